package config

import "os"

// GeminiModels defines which Gemini models to use for different tasks
type GeminiModels struct {
	// TutorReply is for per-message tutoring replies (needs to be fast)
	TutorReply string `json:"tutorReply"`

	// QuizGen is for structured quiz generation (quality over speed)
	QuizGen string `json:"quizGen"`
}

// AIConfig holds all generation-gateway configuration
type AIConfig struct {
	APIKey    string       `json:"-"` // Never serialize
	BaseURL   string       `json:"baseUrl"`
	Models    GeminiModels `json:"models"`
	TimeoutMS int          `json:"timeoutMs"`
}

// DefaultAIConfig returns the default generation-gateway configuration
func DefaultAIConfig() *AIConfig {
	return &AIConfig{
		APIKey:  os.Getenv("GEMINI_API_KEY"),
		BaseURL: "https://generativelanguage.googleapis.com/v1beta/models",
		Models: GeminiModels{
			TutorReply: getEnv("GEMINI_MODEL_TUTOR", "gemini-2.5-flash-preview-05-20"),
			QuizGen:    getEnv("GEMINI_MODEL_QUIZ", "gemini-2.0-flash"),
		},
		TimeoutMS: 10000,
	}
}

// IsEnabled returns true if the AI API is configured
func (c *AIConfig) IsEnabled() bool {
	return c.APIKey != ""
}

// ModelEndpoint returns the full endpoint for a given model
func (c *AIConfig) ModelEndpoint(model string) string {
	return c.BaseURL + "/" + model + ":generateContent"
}

// SearchConfig holds the external answer-lookup gateway configuration
type SearchConfig struct {
	BaseURL    string
	APIKey     string
	TimeoutMS  int
	CacheTTLMS int
}

func DefaultSearchConfig() *SearchConfig {
	return &SearchConfig{
		BaseURL:    getEnv("SEARCH_BASE_URL", ""),
		APIKey:     os.Getenv("SEARCH_API_KEY"),
		TimeoutMS:  8000,
		CacheTTLMS: 10 * 60 * 1000,
	}
}

func (c *SearchConfig) IsEnabled() bool {
	return c.BaseURL != ""
}
