// Package generation drafts slide themes and placeholder text with a hosted
// language model.
package generation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/gnemet/PromptDeck/internal/config"
	"go.uber.org/zap"
)

const (
	// MaxThemeLength bounds a single theme, in characters.
	MaxThemeLength = 50
	// PendingTheme pads theme lists the model returned short.
	PendingTheme = "Tema a ser definido"
)

var (
	ErrMissingContent  = errors.New("no content generated for placeholder")
	ErrMalformedOutput = errors.New("malformed model output")
)

// Placeholder is a text region to rewrite. CurrentContent is the template's
// sample text and MaxLength the character budget for the replacement.
type Placeholder struct {
	ObjectID       string `json:"objectId"`
	CurrentContent string `json:"currentContent"`
	MaxLength      int    `json:"maxLength"`
}

type kind int

const (
	kindThemes kind = iota
	kindSlide
)

// request is what a driver sees. System and User carry the rendered prompt;
// the remaining fields let the mock driver answer without parsing it.
type request struct {
	Kind         kind
	System       string
	User         string
	Prompt       string
	Theme        string
	Count        int
	Placeholders []Placeholder
}

type model interface {
	Generate(ctx context.Context, req request) (string, error)
	Name() string
	Close() error
}

// Client validates and post-processes model output.
type Client struct {
	model model
	log   *zap.Logger
}

// New builds the client for the configured active provider.
func New(ctx context.Context, cfg config.AIConfig, log *zap.Logger) (*Client, error) {
	name, settings := cfg.Active()
	driver := settings.Driver
	if driver == "" {
		driver = name
	}

	var (
		m   model
		err error
	)
	switch driver {
	case "gemini":
		m, err = newGeminiModel(ctx, settings)
	case "genai":
		m, err = newGenAIModel(ctx, settings)
	case "mock":
		m = mockModel{}
	default:
		return nil, fmt.Errorf("unknown ai driver %q for provider %q", driver, name)
	}
	if err != nil {
		return nil, err
	}

	log.Info("text generation ready", zap.String("provider", name), zap.String("model", m.Name()))
	return &Client{model: m, log: log}, nil
}

func missingKey(settings config.ProviderSettings) error {
	env := settings.KeyEnv
	if env == "" {
		env = "GEMINI_KEY"
	}
	return fmt.Errorf("missing required environment variables: %s", env)
}

func (c *Client) Close() error {
	return c.model.Close()
}

// Ping runs one trivial round trip through the model.
func (c *Client) Ping(ctx context.Context) (string, error) {
	themes, err := c.GenerateThemes(ctx, "Connection test", 1)
	if err != nil {
		return "", err
	}
	return themes[0], nil
}

// GenerateThemes returns exactly n themes of at most MaxThemeLength
// characters, padding with PendingTheme when the model returns fewer.
func (c *Client) GenerateThemes(ctx context.Context, prompt string, n int) ([]string, error) {
	if n <= 0 {
		return []string{}, nil
	}

	raw, err := c.model.Generate(ctx, request{
		Kind:   kindThemes,
		System: themesSystemPrompt(prompt, n),
		User:   "Generate the slide themes.",
		Prompt: prompt,
		Count:  n,
	})
	if err != nil {
		return nil, fmt.Errorf("generating themes: %w", err)
	}

	var parsed struct {
		Themes []string `json:"themes"`
	}
	if err := json.Unmarshal([]byte(extractJSON(raw)), &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	if parsed.Themes == nil {
		return nil, fmt.Errorf("%w: no themes array", ErrMalformedOutput)
	}

	themes := make([]string, 0, n)
	for _, t := range parsed.Themes {
		if len(themes) == n {
			break
		}
		themes = append(themes, truncate(normalize(t), MaxThemeLength))
	}
	if len(themes) < n {
		c.log.Warn("model returned fewer themes than requested",
			zap.Int("requested", n), zap.Int("returned", len(themes)))
	}
	for len(themes) < n {
		themes = append(themes, PendingTheme)
	}
	return themes, nil
}

// GenerateSlideContent returns replacement text for every placeholder of a
// slide, keyed by object id. A placeholder the model left out fails the call.
func (c *Client) GenerateSlideContent(ctx context.Context, prompt, theme string, placeholders []Placeholder) (map[string]string, error) {
	c.log.Debug("generating slide content",
		zap.String("theme", theme),
		zap.Int("placeholders", len(placeholders)))

	raw, err := c.model.Generate(ctx, request{
		Kind:         kindSlide,
		System:       slideSystemPrompt,
		User:         slideUserPrompt(prompt, theme, placeholders),
		Prompt:       prompt,
		Theme:        theme,
		Placeholders: placeholders,
	})
	if err != nil {
		return nil, fmt.Errorf("generating slide content: %w", err)
	}

	var parsed map[string]json.RawMessage
	if err := json.Unmarshal([]byte(extractJSON(raw)), &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}

	out := make(map[string]string, len(placeholders))
	for _, p := range placeholders {
		value, ok := parsed[p.ObjectID]
		if !ok {
			return nil, fmt.Errorf("%w %s", ErrMissingContent, p.ObjectID)
		}
		text, err := decodeText(value)
		if err != nil {
			return nil, fmt.Errorf("%w: placeholder %s: %v", ErrMalformedOutput, p.ObjectID, err)
		}
		text = normalize(text)
		if text == "" {
			return nil, fmt.Errorf("%w %s", ErrMissingContent, p.ObjectID)
		}
		if p.MaxLength > 0 && runeLen(text) > p.MaxLength {
			c.log.Debug("truncating generated text",
				zap.String("placeholder", p.ObjectID),
				zap.Int("length", runeLen(text)),
				zap.Int("budget", p.MaxLength))
			text = truncate(text, p.MaxLength)
		}
		out[p.ObjectID] = text
	}
	return out, nil
}

// decodeText accepts a JSON string, or a list of strings joined by newlines.
func decodeText(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var lines []string
	if err := json.Unmarshal(raw, &lines); err == nil {
		return strings.Join(lines, "\n"), nil
	}
	return "", fmt.Errorf("expected text, got %s", string(raw))
}
