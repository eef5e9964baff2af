package model

import "time"

// ExtractedFact is a short factual statement pulled from a learner
// utterance, kept for cross-message recall within a session.
type ExtractedFact struct {
	Text        string    `json:"text"`
	Pattern     string    `json:"pattern"`
	ExtractedAt time.Time `json:"extractedAt"`
}
