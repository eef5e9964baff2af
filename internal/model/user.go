package model

import "time"

// UserProfile is the learner record consulted when assembling prompts
type UserProfile struct {
	ID               string    `json:"id" bson:"_id,omitempty"`
	DisplayName      string    `json:"displayName" bson:"displayName"`
	PreferredSubject Subject   `json:"preferredSubject,omitempty" bson:"preferredSubject,omitempty"`
	GradeLevel       string    `json:"gradeLevel,omitempty" bson:"gradeLevel,omitempty"`
	Points           int       `json:"points" bson:"points"`
	CreatedAt        time.Time `json:"createdAt" bson:"createdAt"`
}

// LearnerStats are the rolling aggregates kept in Redis
type LearnerStats struct {
	Points         int `json:"points"`
	QuizzesTaken   int `json:"quizzesTaken"`
	QuizzesCorrect int `json:"quizzesCorrect"`
	SessionsEnded  int `json:"sessionsEnded"`
	Streak         int `json:"streak"`
}
