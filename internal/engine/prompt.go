package engine

import (
	"fmt"
	"strings"

	"studyhall/internal/model"
)

// PromptRequest is the structured request handed to the generation gateway.
type PromptRequest struct {
	Prompt   string
	Analysis model.QueryAnalysis

	// FastPath marks the minimal bare-arithmetic prompt.
	FastPath bool

	// QuizRequested routes the request to structured quiz generation.
	QuizRequested bool
}

// PromptInput carries everything the synthesizer combines.
type PromptInput struct {
	Utterance string
	Analysis  model.QueryAnalysis
	Memory    *Memory
	Facts     []model.ExtractedFact
	Retrieved []ScoredMessage
	Carryover []model.ChatMessage
	Profile   *model.UserProfile

	// SearchAnswer is a web-lookup result to ground the reply, if any.
	SearchAnswer string
}

var quizRequestCues = []string{"quiz me", "test me", "give me a quiz", "ask me a question about"}

// IsQuizRequest reports whether the learner asked to be quizzed.
func IsQuizRequest(text string) bool {
	return containsAny(strings.ToLower(text), quizRequestCues)
}

var subjectPersonas = map[model.Subject]string{
	model.SubjectMathematics:   "You are a patient mathematics tutor who values precise notation and clear reasoning.",
	model.SubjectScience:       "You are an enthusiastic science tutor who grounds ideas in observable phenomena.",
	model.SubjectHistory:       "You are a history tutor who connects events to their causes and consequences.",
	model.SubjectLiterature:    "You are a literature tutor who reads closely and cites the text.",
	model.SubjectLanguage:      "You are a language tutor who models correct usage before explaining rules.",
	model.SubjectPhilosophy:    "You are a philosophy tutor who presents arguments charitably and rigorously.",
	model.SubjectArts:          "You are an arts tutor who links technique to artistic intent.",
	model.SubjectTechnology:    "You are a technology tutor who explains systems from the ground up.",
	model.SubjectSocialStudies: "You are a social studies tutor who weighs evidence from multiple perspectives.",
	model.SubjectGeneral:       "You are a knowledgeable, encouraging tutor.",
}

var lengthDirectives = map[model.ResponseLength]string{
	model.LengthSimple: "Answer in ONE short sentence, at most 15 words. No preamble, no filler.\n" +
		"Examples of the expected shape:\n" +
		"  Q: 2+2=?  A: 4\n" +
		"  Q: Who wrote Hamlet?  A: William Shakespeare.\n" +
		"  Q: The sun rises in the east.  A: True",
	model.LengthMedium: "Answer in one focused paragraph (3-5 sentences).",
	model.LengthLonger: "Answer thoroughly with clear structure; use numbered steps or sections where helpful.",
}

// pedagogyKey indexes tutoring techniques by (intent, complexity).
type pedagogyKey struct {
	Intent     model.Intent
	Complexity model.Complexity
}

var pedagogyTechniques = map[pedagogyKey][]string{
	{model.IntentConceptual, model.ComplexityBasic}:        {"Define the core idea in plain words first", "Anchor it to something familiar"},
	{model.IntentConceptual, model.ComplexityIntermediate}: {"Build from the learner's existing vocabulary", "Contrast with a near-miss concept"},
	{model.IntentConceptual, model.ComplexityAdvanced}:     {"State the formal definition", "Discuss boundary cases and limitations"},
	{model.IntentProcedural, model.ComplexityBasic}:        {"Number every step", "Show one fully worked example"},
	{model.IntentProcedural, model.ComplexityIntermediate}: {"Explain why each step works, not just what it is"},
	{model.IntentProcedural, model.ComplexityAdvanced}:     {"Present the general method, then edge cases where it fails"},
	{model.IntentAnalytical, model.ComplexityBasic}:        {"Compare one factor at a time"},
	{model.IntentAnalytical, model.ComplexityIntermediate}: {"Weigh competing explanations explicitly"},
	{model.IntentAnalytical, model.ComplexityAdvanced}:     {"Address counterarguments and evidence quality"},
	{model.IntentFactual, model.ComplexityBasic}:           {"Give the fact, then one sentence of context"},
	{model.IntentCreative, model.ComplexityBasic}:          {"Offer a starting point, leave room for the learner's own ideas"},
}

var approachStrategies = map[model.LearningApproach]string{
	model.ApproachSocratic:     "Lead with a guiding question before revealing the answer.",
	model.ApproachExampleBased: "Center the explanation on concrete worked examples.",
	model.ApproachAnalogical:   "Explain through an analogy to something the learner already knows.",
	model.ApproachScaffolded:   "Break the explanation into small, ordered steps that build on each other.",
	model.ApproachDirect:       "Answer directly and clearly, then offer to go deeper.",
}

const qualityStandards = "Be accurate. Admit uncertainty rather than invent facts. Stay on the learner's topic. Encourage without condescending."

const contextDirective = "Use the conversation context and known facts above before claiming you do not know something about this learner."

// SynthesizePrompt assembles the generation request in fixed section order.
// A bare-arithmetic utterance bypasses full synthesis for a minimal
// brevity-constrained prompt.
func SynthesizePrompt(in PromptInput, historyWindow int) *PromptRequest {
	if IsBareArithmetic(in.Utterance) {
		return &PromptRequest{
			Prompt: "Answer this arithmetic expression with only the numeric result, nothing else: " +
				strings.TrimSpace(in.Utterance),
			Analysis: in.Analysis,
			FastPath: true,
		}
	}

	var b strings.Builder

	// 1. Persona framing for the classified subject.
	b.WriteString(subjectPersonas[in.Analysis.Subject])
	b.WriteString("\n\n")

	// 2. Bounded history window plus cross-session carryover.
	if len(in.Carryover) > 0 {
		b.WriteString("Earlier sessions with this learner:\n")
		writeTranscript(&b, in.Carryover)
		b.WriteString("\n")
	}
	if in.Memory != nil {
		if recent := in.Memory.RecentMessages(historyWindow); len(recent) > 0 {
			b.WriteString("Conversation so far:\n")
			writeTranscript(&b, recent)
			b.WriteString("\n")
		}
	}

	// 3. Relevant-context block, only when retrieval was gated on.
	if len(in.Retrieved) > 0 {
		b.WriteString("Possibly relevant earlier messages:\n")
		for _, sm := range in.Retrieved {
			fmt.Fprintf(&b, "- [%s] %s\n", sm.Message.Role, sm.Message.Text)
		}
		b.WriteString("\n")
	}

	// 4. The current utterance.
	fmt.Fprintf(&b, "The learner now says: %q\n\n", in.Utterance)

	// 5. QueryAnalysis summary.
	fmt.Fprintf(&b, "Query analysis: subject=%s complexity=%s intent=%s question-type=%s\n",
		in.Analysis.Subject, in.Analysis.Complexity, in.Analysis.Intent, in.Analysis.QuestionType)
	if len(in.Analysis.Keywords) > 0 {
		fmt.Fprintf(&b, "Key terms: %s\n", strings.Join(in.Analysis.Keywords, ", "))
	}
	b.WriteString("\n")

	// 6. Session contextual guidance: facts, statistics, profile.
	if len(in.Facts) > 0 {
		b.WriteString("Known facts about this learner:\n")
		for _, f := range in.Facts {
			b.WriteString("- " + f.Text + "\n")
		}
	}
	if in.Memory != nil {
		fmt.Fprintf(&b, "Session focus: %s\n", in.Memory.ContextSummary())
	}
	if in.Profile != nil && in.Profile.DisplayName != "" {
		fmt.Fprintf(&b, "Learner name: %s\n", in.Profile.DisplayName)
	}
	if in.SearchAnswer != "" {
		fmt.Fprintf(&b, "Live lookup result to ground your answer: %s\n", in.SearchAnswer)
	}
	b.WriteString("\n")

	// 7. Response-structure directive bound to the length tier.
	b.WriteString(lengthDirectives[in.Analysis.ResponseLength])
	b.WriteString("\n\n")

	// 8. Pedagogical techniques keyed by (intent, complexity).
	if techniques, ok := pedagogyTechniques[pedagogyKey{in.Analysis.Intent, in.Analysis.Complexity}]; ok {
		b.WriteString("Tutoring techniques to apply:\n")
		for _, t := range techniques {
			b.WriteString("- " + t + "\n")
		}
		b.WriteString("\n")
	}

	// 9. Learning-approach instructional strategy.
	b.WriteString(approachStrategies[in.Analysis.Approach])
	b.WriteString("\n")

	// 10. Special requirements.
	if in.Analysis.RequiresExamples {
		b.WriteString("Include at least one concrete example.\n")
	}
	if in.Analysis.RequiresSteps {
		b.WriteString("Lay out the solution as explicit numbered steps.\n")
	}
	b.WriteString("\n")

	// 11-12. Context directive and quality standards.
	b.WriteString(contextDirective)
	b.WriteString("\n")
	b.WriteString(qualityStandards)

	return &PromptRequest{
		Prompt:        b.String(),
		Analysis:      in.Analysis,
		QuizRequested: IsQuizRequest(in.Utterance),
	}
}

func writeTranscript(b *strings.Builder, msgs []model.ChatMessage) {
	for _, m := range msgs {
		fmt.Fprintf(b, "[%s] %s\n", m.Role, m.Text)
	}
}
