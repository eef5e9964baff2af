package engine

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"studyhall/internal/model"
)

// Quiz textual contract: generated text is a quiz iff it contains all four
// option markers "A)".."D)". Accepted learner answers are exactly one
// letter A-D, case-insensitive, trimmed.

var quizOptionMarkers = []string{"A)", "B)", "C)", "D)"}

var optionLineRe = regexp.MustCompile(`(?m)^\s*([A-D])\)\s*(.+?)\s*$`)

// answerLineRe recognizes an explicit answer declaration in free text, the
// fallback when the generator returned no structured payload.
var answerLineRe = regexp.MustCompile(`(?i)\b(?:correct answer|answer)\s*(?:is)?[:\s]+([A-D])\b`)

// ContainsQuizMarkers reports whether text carries all four distinct
// option markers.
func ContainsQuizMarkers(text string) bool {
	for _, marker := range quizOptionMarkers {
		if !strings.Contains(text, marker) {
			return false
		}
	}
	return true
}

// IsQuizAnswer reports whether the utterance is a bare quiz answer and
// returns its option index.
func IsQuizAnswer(text string) (int, bool) {
	t := strings.ToUpper(strings.TrimSpace(text))
	if len(t) != 1 || t[0] < 'A' || t[0] > 'D' {
		return 0, false
	}
	return int(t[0] - 'A'), true
}

// QuizFromPayload materializes an ActiveQuiz from structured generator
// output. This is the preferred path: the correct index is explicit.
func QuizFromPayload(p *model.QuizPayload, now time.Time) *model.ActiveQuiz {
	if p == nil || len(p.Options) != 4 || p.CorrectIndex < 0 || p.CorrectIndex > 3 {
		return nil
	}
	return &model.ActiveQuiz{
		ID:           uuid.New().String(),
		Question:     p.Question,
		Options:      p.Options,
		CorrectIndex: p.CorrectIndex,
		Explanation:  p.Explanation,
		ConceptID:    p.ConceptID,
		CreatedAt:    now,
	}
}

// ParseQuizText recovers a quiz from free generated text. It requires all
// four option markers plus an explicit answer line; without declared
// correct-answer data no quiz is materialized.
func ParseQuizText(text string, now time.Time) *model.ActiveQuiz {
	if !ContainsQuizMarkers(text) {
		return nil
	}
	options := make([]string, 4)
	found := 0
	for _, m := range optionLineRe.FindAllStringSubmatch(text, -1) {
		idx := int(m[1][0] - 'A')
		if options[idx] == "" {
			options[idx] = m[2]
			found++
		}
	}
	if found != 4 {
		return nil
	}
	answer := answerLineRe.FindStringSubmatch(text)
	if answer == nil {
		return nil
	}
	correct := int(strings.ToUpper(answer[1])[0] - 'A')
	question := text
	if i := strings.Index(text, "A)"); i > 0 {
		question = strings.TrimSpace(text[:i])
	}
	return &model.ActiveQuiz{
		ID:           uuid.New().String(),
		Question:     question,
		Options:      options,
		CorrectIndex: correct,
		CreatedAt:    now,
	}
}
