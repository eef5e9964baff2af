// Package engine implements the adaptive tutoring dialogue engine: query
// classification, bounded session memory, fact extraction, relevance
// retrieval, prompt synthesis, response post-processing, and the session
// state machine that orchestrates them.
package engine

import (
	"regexp"
	"strings"

	"studyhall/internal/model"
)

// Classification is rule-table driven: every axis is a declared ordered
// table evaluated top to bottom, so rules can be added without touching
// control flow. Classify is a pure function and never fails.

type subjectRule struct {
	Subject  model.Subject
	Keywords []string
}

// subjectRules is evaluated in priority order; first match wins.
var subjectRules = []subjectRule{
	{model.SubjectMathematics, []string{
		"math", "algebra", "calculus", "geometry", "arithmetic", "equation",
		"fraction", "integral", "derivative", "theorem", "polynomial",
		"trigonometry", "probability", "matrix",
	}},
	{model.SubjectScience, []string{
		"physics", "chemistry", "biology", "atom", "molecule", "gravity",
		"energy", "cell", "evolution", "force", "planet", "photosynthesis",
		"quantum", "electron", "velocity",
	}},
	{model.SubjectHistory, []string{
		"history", "war", "empire", "revolution", "ancient", "century",
		"dynasty", "civilization", "treaty", "medieval",
	}},
	{model.SubjectLiterature, []string{
		"novel", "poem", "poetry", "shakespeare", "literature", "author",
		"metaphor", "prose", "playwright", "symbolism",
	}},
	{model.SubjectLanguage, []string{
		"grammar", "vocabulary", "verb", "noun", "adjective", "pronunciation",
		"translate", "spanish", "french", "conjugation",
	}},
	{model.SubjectPhilosophy, []string{
		"philosophy", "ethics", "morality", "metaphysics", "epistemology",
		"existentialism", "stoic", "utilitarian",
	}},
	{model.SubjectArts, []string{
		"painting", "sculpture", "music", "artist", "melody", "composer",
		"drawing", "harmony", "renaissance art",
	}},
	{model.SubjectTechnology, []string{
		"computer", "software", "programming", "algorithm", "internet",
		"code", "hardware", "database", "network", "robot",
	}},
	{model.SubjectSocialStudies, []string{
		"economics", "government", "society", "geography", "culture",
		"politics", "psychology", "sociology", "democracy",
	}},
}

var (
	// bareArithmeticRe matches utterances that are only digits, operators,
	// and trivial punctuation, e.g. "2+2=?" or "12 * 7".
	bareArithmeticRe = regexp.MustCompile(`^[0-9\s+\-*/x×÷^%=?.()]+$`)
	hasDigitRe       = regexp.MustCompile(`[0-9]`)
	hasOperatorRe    = regexp.MustCompile(`[+\-*/x×÷^%=]`)

	// bareAssertionRe matches declarative statements offered for
	// confirmation, e.g. "The sun sets in the west".
	bareAssertionRe = regexp.MustCompile(`^(the|a|an|this|that|these|those|it|he|she|they|we|my|our)\s+\w+`)

	interrogatives = []string{"what", "why", "how", "who", "when", "where", "which", "whose", "whom"}
)

var advancedIndicators = []string{
	"prove", "derive", "derivation", "rigorous", "formal proof", "in depth",
	"advanced", "graduate level", "from first principles", "asymptotic",
	"eigenvalue", "stochastic", "thermodynamic", "epistemolog",
	"diagonaliz", "isomorph", "covariance",
}

var basicIndicators = []string{
	"basics", "beginner", "simple terms", "eli5", "explain like", "new to",
	"just starting", "for dummies", "easy way",
}

var confirmatoryPhrases = []string{
	"true or false", "is it true", "is that true", "is this true",
	"is it correct", "right?", "correct?", "yes or no",
}

var factualPrefixes = []string{
	"who ", "when ", "where ", "which ", "what year", "what date",
	"how many", "how much", "name the", "capital of",
}

var proceduralCues = []string{
	"how do i", "how do you", "how to", "how can i", "steps to",
	"procedure", "walk me through", "guide me", "show me how",
}

var analyticalCues = []string{
	"why", "compare", "difference between", "analyze", "analyse",
	"evaluate", "pros and cons", "cause of", "what leads to", "implications",
}

var creativeCues = []string{
	"imagine", "write a", "make up", "story about", "design a",
	"invent", "brainstorm", "compose",
}

var brevityCues = []string{
	"briefly", "in short", "quick answer", "one word", "short answer",
	"tl;dr", "concise", "just the answer",
}

var verbosityCues = []string{
	"in detail", "detailed", "thoroughly", "elaborate", "comprehensive",
	"deep dive", "at length", "everything about",
}

var openConceptualPrefixes = []string{
	"what is", "what are", "explain", "describe", "why ", "tell me about",
}

var approachRules = []struct {
	Approach model.LearningApproach
	Cues     []string
}{
	{model.ApproachScaffolded, []string{"step by step", "step-by-step", "walk me through", "one step", "steps"}},
	{model.ApproachExampleBased, []string{"example", "examples", "instance", "show me", "such as"}},
	{model.ApproachAnalogical, []string{"analogy", "similar to", "compare it to", "like what", "metaphor for"}},
	{model.ApproachSocratic, []string{"why", "what if", "how come", "does that mean"}},
}

var stopWords = map[string]bool{
	"the": true, "and": true, "that": true, "this": true, "with": true,
	"from": true, "what": true, "when": true, "where": true, "which": true,
	"whose": true, "about": true, "does": true, "have": true, "will": true,
	"would": true, "could": true, "should": true, "their": true, "there": true,
	"these": true, "those": true, "then": true, "than": true, "some": true,
	"like": true, "into": true, "your": true, "mine": true, "very": true,
	"just": true, "explain": true, "tell": true, "please": true, "help": true,
}

var exampleCues = []string{"example", "examples", "instance", "such as", "show me"}

var stepCues = []string{"step", "steps", "how do i", "how to", "process", "procedure", "walk me"}

// Classify analyzes one learner utterance into a QueryAnalysis. It is
// deterministic and has no side effects.
func Classify(text string) model.QueryAnalysis {
	original := strings.TrimSpace(text)
	lower := strings.ToLower(original)
	words := strings.Fields(lower)

	intent := classifyIntent(lower)

	return model.QueryAnalysis{
		Subject:          classifySubject(lower),
		Complexity:       classifyComplexity(lower, len(words)),
		Intent:           intent,
		ResponseLength:   classifyLength(lower, intent, len(words)),
		Approach:         classifyApproach(lower),
		Keywords:         extractKeywords(lower),
		QuestionType:     questionType(lower),
		RequiresExamples: containsAny(lower, exampleCues),
		RequiresSteps:    containsAny(lower, stepCues),
	}
}

// IsBareArithmetic reports whether the utterance is a pure arithmetic
// expression such as "2+2=?".
func IsBareArithmetic(text string) bool {
	t := strings.TrimSpace(text)
	return t != "" && bareArithmeticRe.MatchString(t) &&
		hasDigitRe.MatchString(t) && hasOperatorRe.MatchString(t)
}

func classifySubject(lower string) model.Subject {
	if IsBareArithmetic(lower) {
		return model.SubjectMathematics
	}
	for _, rule := range subjectRules {
		for _, kw := range rule.Keywords {
			if strings.Contains(lower, kw) {
				return rule.Subject
			}
		}
	}
	return model.SubjectGeneral
}

func classifyComplexity(lower string, wordCount int) model.Complexity {
	if containsAny(lower, advancedIndicators) {
		return model.ComplexityAdvanced
	}
	if containsAny(lower, basicIndicators) || wordCount <= 5 {
		return model.ComplexityBasic
	}
	return model.ComplexityIntermediate
}

func classifyIntent(lower string) model.Intent {
	if containsAny(lower, confirmatoryPhrases) || isBareAssertion(lower) {
		return model.IntentConfirmatory
	}
	if isDirectFactual(lower) {
		return model.IntentFactual
	}
	if containsAny(lower, proceduralCues) {
		return model.IntentProcedural
	}
	if containsAny(lower, analyticalCues) {
		return model.IntentAnalytical
	}
	if containsAny(lower, creativeCues) {
		return model.IntentCreative
	}
	return model.IntentConceptual
}

// isBareAssertion detects declarative statements implicitly offered for
// confirmation: determiner-led, no interrogative, at most 12 words.
func isBareAssertion(lower string) bool {
	trimmed := strings.TrimSuffix(strings.TrimSpace(lower), "?")
	words := strings.Fields(trimmed)
	if len(words) < 3 || len(words) > 12 {
		return false
	}
	for _, w := range words {
		for _, q := range interrogatives {
			if w == q {
				return false
			}
		}
	}
	return bareAssertionRe.MatchString(trimmed)
}

func classifyLength(lower string, intent model.Intent, wordCount int) model.ResponseLength {
	// Explicit cue words override everything else.
	if containsAny(lower, brevityCues) {
		return model.LengthSimple
	}
	if containsAny(lower, verbosityCues) {
		return model.LengthLonger
	}
	if intent == model.IntentConfirmatory || isDirectFactual(lower) {
		return model.LengthSimple
	}
	if wordCount <= 3 && !isOpenConceptual(lower) {
		return model.LengthSimple
	}
	if IsBareArithmetic(lower) && !strings.Contains(lower, "how") && !strings.Contains(lower, "why") {
		return model.LengthSimple
	}
	if isOpenConceptual(lower) {
		return model.LengthMedium
	}
	if intent == model.IntentProcedural || intent == model.IntentAnalytical {
		return model.LengthLonger
	}
	if wordCount <= 5 {
		return model.LengthSimple
	}
	return model.LengthMedium
}

// isDirectFactual matches short lookup questions that deserve one-line
// answers ("who wrote hamlet", "when did ww2 end").
func isDirectFactual(lower string) bool {
	for _, p := range factualPrefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}

func isOpenConceptual(lower string) bool {
	for _, p := range openConceptualPrefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}

func classifyApproach(lower string) model.LearningApproach {
	for _, rule := range approachRules {
		if containsAny(lower, rule.Cues) {
			return rule.Approach
		}
	}
	return model.ApproachDirect
}

// extractKeywords keeps tokens longer than three characters that are not
// stop words, order preserved, capped at five.
func extractKeywords(lower string) []string {
	const maxKeywords = 5
	seen := make(map[string]bool)
	var out []string
	for _, tok := range strings.Fields(lower) {
		tok = strings.Trim(tok, ".,!?;:'\"()")
		if len(tok) <= 3 || stopWords[tok] || seen[tok] {
			continue
		}
		seen[tok] = true
		out = append(out, tok)
		if len(out) == maxKeywords {
			break
		}
	}
	return out
}

func questionType(lower string) string {
	words := strings.Fields(lower)
	if len(words) == 0 {
		return "statement"
	}
	first := strings.Trim(words[0], "?,.!")
	for _, q := range interrogatives {
		if first == q {
			return q
		}
	}
	if strings.HasSuffix(strings.TrimSpace(lower), "?") {
		return "general"
	}
	return "statement"
}

func containsAny(s string, cues []string) bool {
	for _, c := range cues {
		if strings.Contains(s, c) {
			return true
		}
	}
	return false
}
