package generation

import (
	"context"
	"fmt"
	"strings"

	"github.com/gnemet/PromptDeck/internal/config"
	gemini "github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// geminiModel talks to the Gemini API through generative-ai-go.
type geminiModel struct {
	client   *gemini.Client
	settings config.ProviderSettings
}

func newGeminiModel(ctx context.Context, settings config.ProviderSettings) (*geminiModel, error) {
	if settings.Key == "" {
		return nil, missingKey(settings)
	}
	client, err := gemini.NewClient(ctx, option.WithAPIKey(settings.Key))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &geminiModel{client: client, settings: settings}, nil
}

func (m *geminiModel) Name() string { return "gemini:" + m.settings.Model }

func (m *geminiModel) Close() error { return m.client.Close() }

func (m *geminiModel) Generate(ctx context.Context, req request) (string, error) {
	gm := m.client.GenerativeModel(m.settings.Model)
	gm.SystemInstruction = gemini.NewUserContent(gemini.Text(req.System))
	gm.ResponseMIMEType = "application/json"
	if m.settings.Temperature > 0 {
		gm.SetTemperature(float32(m.settings.Temperature))
	}
	if m.settings.MaxTokens > 0 {
		gm.SetMaxOutputTokens(int32(m.settings.MaxTokens))
	}

	resp, err := gm.GenerateContent(ctx, gemini.Text(req.User))
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(gemini.Text); ok {
				b.WriteString(string(t))
			}
		}
		break
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("%w: empty response", ErrMalformedOutput)
	}
	return b.String(), nil
}
