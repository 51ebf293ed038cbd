package generation

import (
	"context"
	"fmt"
	"strings"

	"github.com/gnemet/PromptDeck/internal/config"
	"google.golang.org/genai"
)

// genaiModel uses the unified google.golang.org/genai SDK.
type genaiModel struct {
	client   *genai.Client
	settings config.ProviderSettings
}

func newGenAIModel(ctx context.Context, settings config.ProviderSettings) (*genaiModel, error) {
	if settings.Key == "" {
		return nil, missingKey(settings)
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  settings.Key,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &genaiModel{client: client, settings: settings}, nil
}

func (m *genaiModel) Name() string { return "genai:" + m.settings.Model }

func (m *genaiModel) Close() error { return nil }

func (m *genaiModel) Generate(ctx context.Context, req request) (string, error) {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(req.System, genai.RoleUser),
		ResponseMIMEType:  "application/json",
	}
	if m.settings.Temperature > 0 {
		cfg.Temperature = genai.Ptr(float32(m.settings.Temperature))
	}

	result, err := m.client.Models.GenerateContent(ctx, m.settings.Model, genai.Text(req.User), cfg)
	if err != nil {
		return "", fmt.Errorf("GenAI generate failed: %w", err)
	}

	var b strings.Builder
	if len(result.Candidates) > 0 && result.Candidates[0].Content != nil {
		for _, part := range result.Candidates[0].Content.Parts {
			b.WriteString(part.Text)
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("%w: empty response", ErrMalformedOutput)
	}
	return b.String(), nil
}
