package model

import "time"

type SessionStatus string

const (
	SessionActive SessionStatus = "active"
	SessionEnded  SessionStatus = "ended"
)

// TutorSession is one tutoring conversation owned by a learner
type TutorSession struct {
	ID         string        `json:"id" bson:"_id,omitempty"`
	UserID     string        `json:"userId" bson:"userId"`
	Subject    string        `json:"subject" bson:"subject"`
	Difficulty string        `json:"difficulty" bson:"difficulty"`
	Goals      []string      `json:"goals,omitempty" bson:"goals,omitempty"`
	Status     SessionStatus `json:"status" bson:"status"`
	CreatedAt  time.Time     `json:"createdAt" bson:"createdAt"`
	EndedAt    *time.Time    `json:"endedAt,omitempty" bson:"endedAt,omitempty"`
}

// SessionSummary is the synthesized wrap-up emitted when a session ends
type SessionSummary struct {
	SessionID       string        `json:"sessionId" bson:"sessionId"`
	Duration        time.Duration `json:"duration" bson:"duration"`
	MessagesSent    int           `json:"messagesSent" bson:"messagesSent"`
	QuizzesTaken    int           `json:"quizzesTaken" bson:"quizzesTaken"`
	QuizzesCorrect  int           `json:"quizzesCorrect" bson:"quizzesCorrect"`
	EngagementScore float64       `json:"engagementScore" bson:"engagementScore"`
	PointsDelta     int           `json:"pointsDelta" bson:"pointsDelta"`
	Tier            string        `json:"tier" bson:"tier"`
}

// Qualitative tiers for the end-of-session rating
const (
	TierOutstanding = "outstanding"
	TierGreat       = "great"
	TierGood        = "good"
	TierEncouraging = "encouraging"
)

// RateEngagement maps an engagement score onto a qualitative tier
func RateEngagement(score float64) string {
	switch {
	case score >= 0.8:
		return TierOutstanding
	case score >= 0.6:
		return TierGreat
	case score >= 0.4:
		return TierGood
	default:
		return TierEncouraging
	}
}
