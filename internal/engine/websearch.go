package engine

import (
	"strings"

	"studyhall/internal/model"
)

// The need-web-search detector decides when a factual query should be
// routed through the search gateway instead of answered from the model
// alone. Teaching and conversational phrasing always suppress it.

var webSearchCues = []string{
	"current", "latest", "today", "right now", "this week", "this year",
	"news", "price of", "weather", "population of", "stock price",
	"recently", "who is the president", "election",
}

var institutionCues = []string{
	"university", "college", "institute", "company", "organization",
	"admission", "tuition",
}

var webSearchExclusions = []string{
	"explain", "teach me", "help me understand", "how does", "why does",
	"practice", "quiz me", "how are you", "thank", "hello", "tutor",
}

// NeedsWebSearch reports whether the utterance asks about live, real-world
// state that the generator cannot answer from training alone.
func NeedsWebSearch(text string, analysis model.QueryAnalysis) bool {
	lower := strings.ToLower(text)
	if containsAny(lower, webSearchExclusions) {
		return false
	}
	if containsAny(lower, webSearchCues) {
		return true
	}
	// Factual lookups about named institutions are worth a live search.
	if analysis.Intent == model.IntentFactual &&
		containsAny(lower, institutionCues) && len(ProperNouns(text)) > 0 {
		return true
	}
	return false
}
