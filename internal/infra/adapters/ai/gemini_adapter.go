package ai

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/genai"

	"travel-itinerary-ai/internal/domain/ports/adapter"
)

var _ adapter.GenerationAdapter = (*GeminiAdapter)(nil)

type GeminiAdapter struct {
	client *genai.Client
	model  string
}

// NewGeminiAdapter creates a Gemini adapter using the official SDK.
func NewGeminiAdapter(ctx context.Context, apiKey, baseURL, model string) (*GeminiAdapter, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: empty api key")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: baseURL,
		},
	})
	if err != nil {
		return nil, err
	}
	return &GeminiAdapter{client: c, model: model}, nil
}

func (g *GeminiAdapter) Name() string { return "gemini" }

func (g *GeminiAdapter) Generate(ctx context.Context, messages []adapter.Message) (string, error) {
	if len(messages) == 0 {
		return "", errors.New("gemini: no messages")
	}

	// Gemini has no separate system role in contents; the persona message
	// goes in as the system instruction instead.
	var cfg *genai.GenerateContentConfig
	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		switch strings.ToLower(m.Role) {
		case "system":
			cfg = &genai.GenerateContentConfig{
				SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: m.Content}}},
			}
		case "assistant", "model":
			contents = append(contents, &genai.Content{
				Role:  genai.RoleModel,
				Parts: []*genai.Part{{Text: m.Content}},
			})
		default:
			contents = append(contents, &genai.Content{
				Role:  genai.RoleUser,
				Parts: []*genai.Part{{Text: m.Content}},
			})
		}
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return "", &adapter.ProviderError{Provider: g.Name(), StatusCode: apiErr.Code}
		}
		return "", err
	}

	text := resp.Text()
	if text == "" {
		return "", errors.New("gemini: empty candidate text")
	}
	return text, nil
}
