package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"studyhall/internal/config"
	"studyhall/internal/engine"
	"studyhall/internal/model"
)

// GeminiService handles tutoring-reply and quiz generation via the Gemini
// API with per-task models. It implements engine.Generator.
type GeminiService struct {
	config *config.AIConfig
	client *http.Client
}

// NewGeminiService creates a new generation gateway
func NewGeminiService() *GeminiService {
	cfg := config.DefaultAIConfig()
	return &GeminiService{
		config: cfg,
		client: &http.Client{
			Timeout: time.Duration(cfg.TimeoutMS) * time.Millisecond,
		},
	}
}

// Generate produces a tutoring reply for a synthesized prompt
func (s *GeminiService) Generate(ctx context.Context, req *engine.PromptRequest) (string, error) {
	if !s.config.IsEnabled() {
		return s.mockReply(req), nil
	}

	response, err := s.callGemini(ctx, s.config.Models.TutorReply, req.Prompt, false)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(response), nil
}

// GenerateQuiz produces structured quiz data so the correct index comes
// back as a field rather than prose
func (s *GeminiService) GenerateQuiz(ctx context.Context, req *engine.PromptRequest) (*model.QuizPayload, error) {
	if !s.config.IsEnabled() {
		return s.mockQuiz(req), nil
	}

	prompt := s.buildQuizPrompt(req)
	response, err := s.callGemini(ctx, s.config.Models.QuizGen, prompt, true)
	if err != nil {
		return nil, err
	}

	var payload model.QuizPayload
	if err := json.Unmarshal([]byte(response), &payload); err != nil {
		return nil, fmt.Errorf("decode quiz payload: %w", err)
	}
	return &payload, nil
}

// callGemini makes a request to the Gemini API
func (s *GeminiService) callGemini(ctx context.Context, modelName, prompt string, jsonOutput bool) (string, error) {
	reqBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{
				"parts": []map[string]string{
					{"text": prompt},
				},
			},
		},
	}
	if jsonOutput {
		reqBody["generationConfig"] = map[string]interface{}{
			"responseMimeType": "application/json",
		}
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s?key=%s", s.config.ModelEndpoint(modelName), s.config.APIKey)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	// Parse Gemini response structure
	var geminiResp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}

	if err := json.Unmarshal(body, &geminiResp); err != nil {
		return "", err
	}

	if len(geminiResp.Candidates) > 0 && len(geminiResp.Candidates[0].Content.Parts) > 0 {
		return geminiResp.Candidates[0].Content.Parts[0].Text, nil
	}

	return "", fmt.Errorf("empty response from Gemini")
}

func (s *GeminiService) buildQuizPrompt(req *engine.PromptRequest) string {
	return fmt.Sprintf(`You are a tutor writing one multiple-choice practice question. Return ONLY valid JSON:
{
  "question": "the question text",
  "options": ["option A", "option B", "option C", "option D"],
  "correctIndex": 0,
  "explanation": "one sentence explaining the correct answer",
  "conceptId": "short-kebab-case-concept"
}

Exactly four options. correctIndex is the zero-based index of the right option.

Tutoring context:
%s

Write one question matched to the learner's subject and level above.`, req.Prompt)
}

// Mock implementations, used when no API key is configured
func (s *GeminiService) mockReply(req *engine.PromptRequest) string {
	if req.FastPath {
		return "42"
	}
	switch req.Analysis.ResponseLength {
	case model.LengthSimple:
		return "Mock answer."
	case model.LengthLonger:
		return "Mock detailed answer. Step 1: set up the problem. Step 2: work through it. Step 3: check the result. Enable Gemini for real tutoring."
	default:
		return "Mock tutoring reply for a " + string(req.Analysis.Subject) + " question. Enable Gemini for real tutoring."
	}
}

func (s *GeminiService) mockQuiz(req *engine.PromptRequest) *model.QuizPayload {
	return &model.QuizPayload{
		Question:     "Which option is the mock answer?",
		Options:      []string{"This one", "Not this", "Nor this", "Definitely not"},
		CorrectIndex: 0,
		Explanation:  "Mock quiz - enable Gemini for real questions.",
		ConceptID:    "mock-concept",
	}
}
