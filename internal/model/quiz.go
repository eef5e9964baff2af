package model

import "time"

// ActiveQuiz is the single pending multiple-choice question for a session.
// Cardinality is 0 or 1: a new quiz replaces any stale one, and a valid
// answer consumes it.
type ActiveQuiz struct {
	ID           string    `json:"id"`
	Question     string    `json:"question"`
	Options      []string  `json:"options"`
	CorrectIndex int       `json:"correctIndex"`
	Explanation  string    `json:"explanation,omitempty"`
	ConceptID    string    `json:"conceptId,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// QuizPayload is the structured quiz data returned by the generation
// gateway when a quiz is requested. The correct index comes from the
// generator, never guessed from free text.
type QuizPayload struct {
	Question     string   `json:"question"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
	Explanation  string   `json:"explanation,omitempty"`
	ConceptID    string   `json:"conceptId,omitempty"`
}

// QuizResult records one answered quiz for learner aggregates
type QuizResult struct {
	ID          string    `json:"id" bson:"_id,omitempty"`
	SessionID   string    `json:"sessionId" bson:"sessionId"`
	UserID      string    `json:"userId" bson:"userId"`
	QuizID      string    `json:"quizId" bson:"quizId"`
	ConceptID   string    `json:"conceptId,omitempty" bson:"conceptId,omitempty"`
	ChosenIndex int       `json:"chosenIndex" bson:"chosenIndex"`
	Correct     bool      `json:"correct" bson:"correct"`
	AnsweredAt  time.Time `json:"answeredAt" bson:"answeredAt"`
}
