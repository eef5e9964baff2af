package engine

import (
	"regexp"
	"strings"

	"go.uber.org/zap"

	"studyhall/internal/model"
)

// PostProcessor enforces the "simple" tier's output shape. Medium and
// longer tiers pass through unmodified.
type PostProcessor struct {
	ceiling int
	logger  *zap.Logger
}

// paddingPatterns strip generated filler: agreement openers, "the answer
// is" preambles, and helpful-closer boilerplate.
var paddingPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(sure|certainly|of course|great question|good question|absolutely|happy to help)[!.,]?\s*`),
	regexp.MustCompile(`(?i)^(the answer is|the correct answer is|that would be)[:\s]+`),
	regexp.MustCompile(`(?i)\s*(i )?hope (this|that) helps[!.]?\s*$`),
	regexp.MustCompile(`(?i)\s*(please )?(feel free to|don't hesitate to|let me know if).*$`),
}

var leadInRe = regexp.MustCompile(`(?i)^(well|so|basically|essentially|in short)[,:]\s*`)

var firstSentenceRe = regexp.MustCompile(`^[^.!?]*[.!?]`)

var (
	positivePolarity = []string{"true", "yes", "correct", "indeed", "right", "accurate"}
	negativePolarity = []string{"false", "no", "incorrect", "wrong", "inaccurate"}
	negativePhrases  = []string{"not true", "not correct", "not right"}
)

func NewPostProcessor(ceiling int, logger *zap.Logger) *PostProcessor {
	if ceiling <= 0 {
		ceiling = 15
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostProcessor{ceiling: ceiling, logger: logger}
}

// Shape validates generated text against the response-length tier. For the
// simple tier the returned text never exceeds the token ceiling: padding is
// stripped, then intent-specific compression applies, then truncation as a
// logged last resort.
func (p *PostProcessor) Shape(text string, analysis model.QueryAnalysis) string {
	if analysis.ResponseLength != model.LengthSimple {
		return text
	}

	out := strings.TrimSpace(text)
	for _, re := range paddingPatterns {
		out = strings.TrimSpace(re.ReplaceAllString(out, ""))
	}

	if p.tokenCount(out) <= p.ceiling {
		return out
	}

	out = p.compress(out, analysis.Intent)
	if p.tokenCount(out) <= p.ceiling {
		return out
	}

	tokens := strings.Fields(out)
	p.logger.Warn("simple reply over token ceiling, truncating",
		zap.Int("tokens", len(tokens)),
		zap.Int("ceiling", p.ceiling))
	return strings.Join(tokens[:p.ceiling], " ")
}

func (p *PostProcessor) compress(text string, intent model.Intent) string {
	switch intent {
	case model.IntentConfirmatory:
		lower := strings.ToLower(text)
		// Negative polarity first: "not true" must not read as "true".
		// Polarity words match whole tokens only, so "knows" is not "no".
		for _, phrase := range negativePhrases {
			if strings.Contains(lower, phrase) {
				return "False"
			}
		}
		words := strings.Fields(lower)
		for i := range words {
			words[i] = strings.Trim(words[i], ".,!?;:'\"")
		}
		for _, w := range negativePolarity {
			for _, tok := range words {
				if tok == w {
					return "False"
				}
			}
		}
		for _, w := range positivePolarity {
			for _, tok := range words {
				if tok == w {
					return "True"
				}
			}
		}
		return text
	case model.IntentFactual:
		out := leadInRe.ReplaceAllString(text, "")
		if first := firstSentenceRe.FindString(out); first != "" {
			return strings.TrimSpace(first)
		}
		return out
	default:
		out := leadInRe.ReplaceAllString(text, "")
		if first := firstSentenceRe.FindString(out); first != "" {
			return strings.TrimSpace(first)
		}
		return out
	}
}

func (p *PostProcessor) tokenCount(text string) int {
	return len(strings.Fields(text))
}
