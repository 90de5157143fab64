package perception

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"resqgrid/internal/types"
)

// ErrNoCredential is returned when the live classifier has no API key.
var ErrNoCredential = errors.New("classifier API key is required")

// ErrEmptyResponse is returned when Gemini answers without any text.
var ErrEmptyResponse = errors.New("empty response from classifier")

// contentGenerator is the slice of *genai.Models the classifier uses.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiConfig holds configuration for the live classifier.
type GeminiConfig struct {
	APIKey      string
	Model       string
	Temperature float32
}

// DefaultGeminiConfig returns sensible defaults.
func DefaultGeminiConfig(apiKey string) GeminiConfig {
	return GeminiConfig{
		APIKey:      apiKey,
		Model:       "gemini-2.5-flash",
		Temperature: 0.2,
	}
}

// GeminiClassifier classifies text with Google Gemini using structured
// JSON output.
type GeminiClassifier struct {
	models      contentGenerator
	model       string
	temperature float32
}

// NewGeminiClassifier creates a live classifier backed by the GenAI SDK.
func NewGeminiClassifier(ctx context.Context, cfg GeminiConfig) (*GeminiClassifier, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrNoCredential
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return newGeminiClassifier(client.Models, cfg), nil
}

func newGeminiClassifier(models contentGenerator, cfg GeminiConfig) *GeminiClassifier {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultGeminiConfig("").Model
	}
	return &GeminiClassifier{
		models:      models,
		model:       model,
		temperature: cfg.Temperature,
	}
}

// Model returns the Gemini model name.
func (c *GeminiClassifier) Model() string {
	return c.model
}

// Classify implements Classifier. Transport failures, empty answers and
// payloads that do not match the contract are all returned as errors.
func (c *GeminiClassifier) Classify(ctx context.Context, text string) (types.Classification, error) {
	temperature := c.temperature
	resp, err := c.models.GenerateContent(ctx,
		c.model,
		[]*genai.Content{genai.NewContentFromText(text, genai.RoleUser)},
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
			ResponseMIMEType:  "application/json",
			ResponseSchema:    classificationSchema(),
			Temperature:       &temperature,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("Gemini classify failed: %w", err)
	}

	body := responseText(resp)
	if strings.TrimSpace(body) == "" {
		return nil, ErrEmptyResponse
	}

	result, err := types.Decode([]byte(body))
	if err != nil {
		return nil, fmt.Errorf("Gemini returned an unusable payload: %w", err)
	}
	return result, nil
}

// responseText joins the non-thought text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	cand := resp.Candidates[0]
	if cand == nil || cand.Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range cand.Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		sb.WriteString(part.Text)
	}
	return sb.String()
}
