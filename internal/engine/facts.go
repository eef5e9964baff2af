package engine

import (
	"regexp"
	"strings"

	"studyhall/internal/model"
)

// factPattern is one syntactic extraction rule. Patterns are an ordered,
// declared table; extraction applies each in turn and skips any that fail
// to match rather than propagating an error.
type factPattern struct {
	Name string
	Re   *regexp.Regexp
	// Render turns the submatch groups into the stored fact text.
	Render func(groups []string) string
}

var factPatterns = []factPattern{
	{
		Name: "self-introduction",
		Re:   regexp.MustCompile(`(?i)\bmy name(?:'s| is) ([A-Za-z][\w'-]*(?:\s+[A-Za-z][\w'-]*)?)`),
		Render: func(g []string) string {
			return "The learner's name is " + strings.TrimSpace(g[1])
		},
	},
	{
		Name: "subject-of-study",
		Re:   regexp.MustCompile(`(?i)\bi(?:'m| am)?\s*(?:currently\s+)?study(?:ing)?\s+([a-z][\w\s]{1,40}?)(?:[.,!?]|$)`),
		Render: func(g []string) string {
			return "The learner is studying " + strings.TrimSpace(g[1])
		},
	},
	{
		Name: "institutional-affiliation",
		Re:   regexp.MustCompile(`(?i)\bi (?:attend|go to|study at|am at)\s+(?:the\s+)?([\w\s'-]*?(?:university|college|school|academy|institute))`),
		Render: func(g []string) string {
			return "The learner attends " + strings.TrimSpace(g[1])
		},
	},
	{
		Name: "numeric-equality",
		Re:   regexp.MustCompile(`(?i)\b([a-z][a-z\s]{2,30}?)\s*(?:=|equals)\s*(-?\d+(?:\.\d+)?)`),
		Render: func(g []string) string {
			return strings.TrimSpace(g[1]) + " equals " + g[2]
		},
	},
	{
		Name: "assertion",
		Re:   regexp.MustCompile(`(?i)\b(my [\w\s]{2,40}?)\s+(?:is|are)\s+([\w\s'-]{2,40}?)(?:[.,!?]|$)`),
		Render: func(g []string) string {
			return strings.TrimSpace(g[1]) + " is " + strings.TrimSpace(g[2])
		},
	},
}

// excludedPhrases filter out interrogative fragments that the assertion
// patterns would otherwise swallow.
var excludedPhrases = []string{
	"is it", "is there", "is this", "is that", "what is", "what are",
	"who is", "how is", "why is",
}

// FactExtractor retains the most recent distinct facts pulled from learner
// messages, capped at capacity.
type FactExtractor struct {
	capacity int
	facts    []model.ExtractedFact
	seen     map[string]bool
}

func NewFactExtractor(capacity int) *FactExtractor {
	if capacity <= 0 {
		capacity = 10
	}
	return &FactExtractor{
		capacity: capacity,
		seen:     make(map[string]bool),
	}
}

// ExtractFrom scans one message and records any facts found. Only
// user-authored messages are scanned. Returns the newly added facts.
func (f *FactExtractor) ExtractFrom(msg model.ChatMessage) []model.ExtractedFact {
	if !msg.IsUser() {
		return nil
	}
	var added []model.ExtractedFact
	for _, p := range factPatterns {
		groups := p.Re.FindStringSubmatch(msg.Text)
		if groups == nil {
			continue
		}
		text := p.Render(groups)
		if text == "" || f.excluded(text) {
			continue
		}
		key := strings.ToLower(text)
		if f.seen[key] {
			continue
		}
		f.seen[key] = true
		fact := model.ExtractedFact{
			Text:        text,
			Pattern:     p.Name,
			ExtractedAt: msg.Timestamp,
		}
		f.facts = append([]model.ExtractedFact{fact}, f.facts...)
		added = append(added, fact)
	}
	f.trim()
	return added
}

// Facts returns retained facts, most recent first.
func (f *FactExtractor) Facts() []model.ExtractedFact {
	out := make([]model.ExtractedFact, len(f.facts))
	copy(out, f.facts)
	return out
}

func (f *FactExtractor) excluded(text string) bool {
	lower := strings.ToLower(text)
	for _, p := range excludedPhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

func (f *FactExtractor) trim() {
	if len(f.facts) <= f.capacity {
		return
	}
	for _, dropped := range f.facts[f.capacity:] {
		delete(f.seen, strings.ToLower(dropped.Text))
	}
	f.facts = f.facts[:f.capacity]
}
