package model

// Subject categories recognized by the classifier, in priority order
type Subject string

const (
	SubjectMathematics   Subject = "mathematics"
	SubjectScience       Subject = "science"
	SubjectHistory       Subject = "history"
	SubjectLiterature    Subject = "literature"
	SubjectLanguage      Subject = "language"
	SubjectPhilosophy    Subject = "philosophy"
	SubjectArts          Subject = "arts"
	SubjectTechnology    Subject = "technology"
	SubjectSocialStudies Subject = "social-studies"
	SubjectGeneral       Subject = "general"
)

type Complexity string

const (
	ComplexityBasic        Complexity = "basic"
	ComplexityIntermediate Complexity = "intermediate"
	ComplexityAdvanced     Complexity = "advanced"
)

type Intent string

const (
	IntentConfirmatory Intent = "confirmatory"
	IntentFactual      Intent = "factual"
	IntentProcedural   Intent = "procedural"
	IntentAnalytical   Intent = "analytical"
	IntentCreative     Intent = "creative"
	IntentConceptual   Intent = "conceptual"
)

// ResponseLength is the verbosity budget tier for the generated reply
type ResponseLength string

const (
	LengthSimple ResponseLength = "simple"
	LengthMedium ResponseLength = "medium"
	LengthLonger ResponseLength = "longer"
)

type LearningApproach string

const (
	ApproachSocratic     LearningApproach = "socratic"
	ApproachExampleBased LearningApproach = "example-based"
	ApproachAnalogical   LearningApproach = "analogical"
	ApproachScaffolded   LearningApproach = "scaffolded"
	ApproachDirect       LearningApproach = "direct"
)

// QueryAnalysis is the structured classification of one learner utterance.
// It is recomputed per utterance and never mutated afterwards.
type QueryAnalysis struct {
	Subject          Subject          `json:"subject"`
	Complexity       Complexity       `json:"complexity"`
	Intent           Intent           `json:"intent"`
	ResponseLength   ResponseLength   `json:"responseLength"`
	Approach         LearningApproach `json:"approach"`
	Keywords         []string         `json:"keywords"`
	QuestionType     string           `json:"questionType"`
	RequiresExamples bool             `json:"requiresExamples"`
	RequiresSteps    bool             `json:"requiresSteps"`
}
