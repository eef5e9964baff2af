package engine

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"studyhall/internal/model"
)

// Relevance retrieval is gated on recall intent: unless the learner is
// asking the tutor to remember something, it returns nothing. Retrieval is
// a pure function of a memory snapshot and the query; it never mutates
// memory.

var recallCues = []string{
	"remember", "recall", "favorite", "favourite", "told you", "mentioned",
	"said earlier", "what did i", "what's my", "whats my", "my name",
	"do you know my", "i said",
}

// Scoring weights. Proper nouns dominate generic keyword hits, and a
// case-sensitive match outranks a case-insensitive one.
const (
	keywordWeight        = 1.0
	properNounExactBonus = 5.0
	properNounLooseBonus = 3.0
	userAuthorBonus      = 0.5
)

// commonCapitalized are capitalized function words that are not names.
var commonCapitalized = map[string]bool{
	"I": true, "I'm": true, "I've": true, "I'll": true, "I'd": true,
	"The": true, "A": true, "An": true, "And": true, "But": true,
	"What": true, "Why": true, "How": true, "When": true, "Where": true,
	"Who": true, "Is": true, "Are": true, "Do": true, "Does": true,
	"My": true, "It": true, "This": true, "That": true, "OK": true,
}

var sentenceSplitRe = regexp.MustCompile(`[.!?]+`)
var properNounRe = regexp.MustCompile(`^[A-Z][a-z'’-]+$`)

// ScoredMessage pairs a candidate message with its relevance score.
type ScoredMessage struct {
	Message model.ChatMessage
	Score   float64
}

// IsRecallQuery reports whether the utterance asks the tutor to remember
// something from earlier in the conversation.
func IsRecallQuery(text string) bool {
	return containsAny(strings.ToLower(text), recallCues)
}

// Retrieve ranks prior messages against a recall query and returns the top
// limit results by descending score. A non-recall query yields nil
// regardless of memory contents.
func Retrieve(msgs []model.ChatMessage, query string, now time.Time, limit int) []ScoredMessage {
	if !IsRecallQuery(query) {
		return nil
	}
	if limit <= 0 {
		limit = 5
	}

	keywords := extractKeywords(strings.ToLower(query))
	nouns := ProperNouns(query)

	var scored []ScoredMessage
	for _, msg := range msgs {
		score, matched := scoreMessage(msg, keywords, nouns)
		if !matched {
			continue
		}
		ageHours := now.Sub(msg.Timestamp).Hours()
		if ageHours < 0 {
			ageHours = 0
		}
		score += 1.0 / (1.0 + ageHours)
		if msg.IsUser() {
			score += userAuthorBonus
		}
		scored = append(scored, ScoredMessage{Message: msg, Score: score})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Message.Timestamp.After(scored[j].Message.Timestamp)
	})
	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}

// scoreMessage returns the keyword and proper-noun contribution. matched is
// false when the message shares nothing with the query; recency and
// authorship alone never qualify a message.
func scoreMessage(msg model.ChatMessage, keywords, nouns []string) (float64, bool) {
	lowerText := strings.ToLower(msg.Text)
	var score float64
	matched := false

	for _, kw := range keywords {
		if strings.Contains(lowerText, kw) {
			score += keywordWeight
			matched = true
		}
	}
	for _, noun := range nouns {
		if strings.Contains(msg.Text, noun) {
			score += properNounExactBonus
			matched = true
		} else if strings.Contains(lowerText, strings.ToLower(noun)) {
			score += properNounLooseBonus
			matched = true
		}
	}
	return score, matched
}

// ProperNouns extracts capitalized tokens that are not sentence-initial and
// not common capitalized function words.
func ProperNouns(text string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, sentence := range sentenceSplitRe.Split(text, -1) {
		words := strings.Fields(sentence)
		for i, w := range words {
			if i == 0 {
				continue
			}
			w = strings.Trim(w, ",;:\"'()")
			if !properNounRe.MatchString(w) || commonCapitalized[w] || seen[w] {
				continue
			}
			seen[w] = true
			out = append(out, w)
		}
	}
	return out
}
