package model

import "time"

type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleSystem    MessageRole = "system"
	RoleError     MessageRole = "error"
)

// MessageTag marks messages with a lifecycle meaning beyond plain chat
type MessageTag string

const (
	TagNone       MessageTag = ""
	TagQuiz       MessageTag = "quiz"
	TagQuizAnswer MessageTag = "quiz-answer"
	TagQuizResult MessageTag = "quiz-result"
	TagSummary    MessageTag = "session-summary"
)

// ChatMessage is one transcript entry in a tutoring session
type ChatMessage struct {
	ID        string      `json:"id" bson:"_id,omitempty"`
	SessionID string      `json:"sessionId" bson:"sessionId"`
	AuthorID  string      `json:"authorId,omitempty" bson:"authorId,omitempty"`
	Role      MessageRole `json:"role" bson:"role"`
	Text      string      `json:"text" bson:"text"`
	Tag       MessageTag  `json:"tag,omitempty" bson:"tag,omitempty"`
	Timestamp time.Time   `json:"timestamp" bson:"timestamp"`
}

func (m ChatMessage) IsUser() bool {
	return m.Role == RoleUser
}
