package generation

import (
	"context"
	"encoding/json"
	"fmt"
)

// mockModel answers deterministically without any network call.
type mockModel struct{}

func (mockModel) Name() string { return "mock" }

func (mockModel) Close() error { return nil }

func (mockModel) Generate(_ context.Context, req request) (string, error) {
	var out any
	switch req.Kind {
	case kindThemes:
		themes := make([]string, req.Count)
		for i := range themes {
			themes[i] = fmt.Sprintf("%s %d", req.Prompt, i+1)
		}
		out = map[string]any{"themes": themes}
	case kindSlide:
		content := make(map[string]string, len(req.Placeholders))
		for _, p := range req.Placeholders {
			content[p.ObjectID] = fmt.Sprintf("%s: %s", req.Theme, req.Prompt)
		}
		out = content
	}
	data, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
