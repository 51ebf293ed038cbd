package editor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gnemet/PromptDeck/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(d Deck) []int {
	out := make([]int, len(d.Slides))
	for i, s := range d.Slides {
		out[i] = s.ID
	}
	return out
}

func TestNewPlaceholderDeck(t *testing.T) {
	d := NewPlaceholderDeck(DefaultDeckSize)
	require.Len(t, d.Slides, 8)
	assert.Equal(t, Slide{ID: 1, Image: PlaceholderImage, IsActive: true}, d.Slides[0])
	assert.Equal(t, 8, d.Slides[7].ID)
}

func TestNewDeckFromThumbnails(t *testing.T) {
	d := NewDeckFromThumbnails([]string{"https://lh3/a", "", "https://lh3/c"})
	assert.Equal(t, []int{1, 2, 3}, ids(d))
	assert.Equal(t, PlaceholderImage, d.Slides[1].Image)
	assert.Equal(t, "https://lh3/c", d.Slides[2].Image)
}

func TestMove(t *testing.T) {
	d := NewPlaceholderDeck(4)

	assert.True(t, d.Move(1, 3))
	assert.Equal(t, []int{2, 3, 1, 4}, ids(d))

	assert.True(t, d.Move(4, 2))
	assert.Equal(t, []int{4, 2, 3, 1}, ids(d))

	assert.False(t, d.Move(2, 2))
	assert.False(t, d.Move(2, 99))
	assert.False(t, d.Move(99, 2))
	assert.Equal(t, []int{4, 2, 3, 1}, ids(d))
}

func TestToggleKeepsOrder(t *testing.T) {
	d := NewPlaceholderDeck(3)
	require.NoError(t, d.Toggle(2))
	assert.Equal(t, []int{1, 2, 3}, ids(d))
	assert.Equal(t, []int{1, 3}, d.ActiveIDs())

	require.NoError(t, d.Toggle(2))
	assert.Equal(t, []int{1, 2, 3}, d.ActiveIDs())

	assert.ErrorIs(t, d.Toggle(7), ErrSlideNotFound)
}

func TestApplyThemes(t *testing.T) {
	d := NewPlaceholderDeck(4)
	d.Move(4, 1)
	require.NoError(t, d.Toggle(2))

	require.NoError(t, d.ApplyThemes([]string{"Abertura", "Meio", "Fim"}))
	assert.Equal(t, "Abertura", d.Slides[0].Theme) // id 4
	assert.Equal(t, "Meio", d.Slides[1].Theme)     // id 1
	assert.Equal(t, "", d.Slides[2].Theme)         // id 2, inactive
	assert.Equal(t, "Fim", d.Slides[3].Theme)      // id 3

	assert.Equal(t, map[string]string{"0": "Abertura", "1": "Meio", "2": "Fim"}, d.ThemeMap())
}

func TestApplyThemesTooFewLeavesDeckUntouched(t *testing.T) {
	d := NewPlaceholderDeck(3)
	require.NoError(t, d.SetTheme(1, "manual"))

	err := d.ApplyThemes([]string{"a", "b"})
	assert.ErrorIs(t, err, ErrNotEnoughThemes)
	assert.Equal(t, "manual", d.Slides[0].Theme)
	assert.Equal(t, "", d.Slides[1].Theme)
}

func TestCreateRequest(t *testing.T) {
	d := NewPlaceholderDeck(3)
	d.Move(3, 1)
	require.NoError(t, d.Toggle(2))
	require.NoError(t, d.SetTheme(3, "Início"))
	require.NoError(t, d.SetTheme(1, "Fim"))

	tpl := `{"id":"tpl-1","title":"Biologia"}`
	now := time.Date(2024, 5, 2, 13, 4, 5, 0, time.UTC)
	req, err := d.CreateRequest(tpl, "Intro to Biology", nil, now)
	require.NoError(t, err)

	assert.Equal(t, "tpl-1", req.TemplateID)
	assert.Equal(t, []int{3, 1}, req.ActiveSlides)
	assert.Equal(t, "Intro to Biology", req.Prompt)
	assert.Equal(t, map[string]string{"0": "Início", "1": "Fim"}, req.SlideThemes)
	assert.Equal(t, tpl, req.Metadata["originalTemplate"])
	assert.Equal(t, "2024-05-02T13:04:05.000Z", req.Metadata["generatedAt"])
}

func TestCreateRequestPreconditions(t *testing.T) {
	d := NewPlaceholderDeck(1)
	now := time.Now()

	_, err := d.CreateRequest("", "p", nil, now)
	assert.ErrorIs(t, err, ErrTemplateRequired)

	_, err = d.CreateRequest("tpl", "", nil, now)
	assert.ErrorIs(t, err, ErrPromptRequired)

	require.NoError(t, d.Toggle(1))
	_, err = d.CreateRequest("tpl", "p", nil, now)
	assert.ErrorIs(t, err, ErrNoActiveSlides)
}

func TestSessionsRoundTrip(t *testing.T) {
	sm := NewSessionManager(config.SessionConfig{Lifetime: time.Hour, CookieName: "deck"})
	sessions := NewSessions(sm)

	save := sm.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok := sessions.Load(r.Context())
		assert.False(t, ok)
		sessions.Save(r.Context(), State{Template: "tpl", Prompt: "p", Deck: NewPlaceholderDeck(2)})
	}))
	rec := httptest.NewRecorder()
	save.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "deck", cookies[0].Name)

	load := sm.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		st, ok := sessions.Load(r.Context())
		require.True(t, ok)
		assert.Equal(t, "tpl", st.Template)
		assert.Len(t, st.Deck.Slides, 2)
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	load.ServeHTTP(httptest.NewRecorder(), req)

	ctx, err := sm.Load(context.Background(), "")
	require.NoError(t, err)
	_, ok := sessions.Load(ctx)
	assert.False(t, ok)
}
