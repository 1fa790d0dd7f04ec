package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// ExtractionService asks an OpenAI-compatible model (Groq by default) to
// pull structured fields out of an academic document and produce a first-pass
// translation. Its output lands in extractedData; human review happens after.
type ExtractionService struct {
	client *openai.Client
	model  string
}

// NewExtractionService returns nil when no API key is configured, which
// disables automatic extraction; documents then wait in pending_review for
// the external pipeline.
func NewExtractionService() *ExtractionService {
	apiKey := strings.TrimSpace(os.Getenv("EXTRACTION_API_KEY"))
	if apiKey == "" {
		return nil
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL := strings.TrimSpace(os.Getenv("EXTRACTION_BASE_URL")); baseURL != "" {
		cfg.BaseURL = baseURL
	} else {
		cfg.BaseURL = "https://api.groq.com/openai/v1"
	}

	model := strings.TrimSpace(os.Getenv("EXTRACTION_MODEL"))
	if model == "" {
		model = "llama-3.1-70b-versatile"
	}

	return &ExtractionService{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

type extractionResult struct {
	Fields     map[string]interface{} `json:"fields"`
	Confidence float64                `json:"confidence"`
	Notes      string                 `json:"notes"`
}

// Extract returns the structured fields, a confidence score in [0,1], and
// free-text notes from the model.
func (s *ExtractionService) Extract(ctx context.Context, formType, sourceText string) (map[string]interface{}, float64, string, error) {
	prompt := fmt.Sprintf(
		"Extract the structured fields of this %s document and translate every value to English. "+
			"Respond with a single JSON object: {\"fields\": {...}, \"confidence\": 0.0-1.0, \"notes\": \"...\"}. "+
			"Use camelCase field names (studentName, institution, dateOfIssue, grades, ...). "+
			"Set confidence low when the source is ambiguous or partially unreadable.", formType)

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt},
			{Role: openai.ChatMessageRoleUser, Content: sourceText},
		},
		Temperature: 0.2,
		MaxTokens:   2000,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, 0, "", fmt.Errorf("extraction API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, 0, "", fmt.Errorf("no response from extraction model")
	}

	var result extractionResult
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &result); err != nil {
		return nil, 0, "", fmt.Errorf("malformed extraction response: %w", err)
	}
	if result.Fields == nil {
		return nil, 0, "", fmt.Errorf("extraction response missing fields")
	}
	if result.Confidence < 0 {
		result.Confidence = 0
	}
	if result.Confidence > 1 {
		result.Confidence = 1
	}

	return result.Fields, result.Confidence, result.Notes, nil
}
