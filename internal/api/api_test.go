package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gnemet/PromptDeck/internal/assembly"
	"github.com/gnemet/PromptDeck/internal/gdocs"
	"github.com/gnemet/PromptDeck/internal/generation"
	"github.com/gnemet/PromptDeck/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/drive/v3"
)

func (ts *testServer) do(t *testing.T, method, target, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	ts.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestListTemplates(t *testing.T) {
	ts := newTestServer(t)
	ts.provider.files = []*drive.File{
		{Id: "p1", Name: "Biologia", MimeType: gdocs.MimePresentation, ThumbnailLink: "https://drive/p1"},
		{Id: "p2", Name: "História", MimeType: gdocs.MimePresentation, ThumbnailLink: "https://drive/p2"},
		{Id: "i1", Name: "capa.png", MimeType: gdocs.MimePNG},
		{Id: "i2", Name: "foto.jpg", MimeType: gdocs.MimeJPEG},
	}
	ts.provider.firstThumbs["p1"] = "https://slides/p1-large"

	rec := ts.do(t, http.MethodGet, "/templates", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "public, s-maxage=300, stale-while-revalidate=59", rec.Header().Get("Cache-Control"))

	got := decodeBody[templateList](t, rec)
	assert.Equal(t, 4, got.TotalCount)
	require.Len(t, got.Files.Presentations, 2)
	assert.Equal(t, "https://slides/p1-large", got.Files.Presentations[0].ThumbnailLink)
	assert.Equal(t, "https://drive/p2", got.Files.Presentations[1].ThumbnailLink, "falls back to the Drive thumbnail")
	assert.Len(t, got.Files.Images, 2)

	rec = ts.do(t, http.MethodGet, "/templates", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int32(1), ts.provider.listCalls.Load(), "second listing is served from cache")
	assert.Equal(t, int32(2), ts.provider.thumbCalls.Load())
}

func TestListTemplatesEmptyFolder(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/templates", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"files":{"presentations":[],"images":[]},"totalCount":0}`, rec.Body.String())
}

func TestListTemplatesErrors(t *testing.T) {
	ts := newTestServer(t)
	ts.opts.TemplatesFolder = ""

	rec := ts.do(t, http.MethodGet, "/templates", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "ID da pasta de templates não está configurado", decodeBody[errorResponse](t, rec).Error)

	ts = newTestServer(t)
	ts.provider.listErr = &gdocs.ProviderError{Op: "list files", Code: 403, Err: errors.New("insufficient permissions")}
	rec = ts.do(t, http.MethodGet, "/templates", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decodeBody[errorResponse](t, rec)
	assert.Equal(t, "Falha ao buscar templates", resp.Error)
	assert.Contains(t, resp.Details, "insufficient permissions")
	assert.Equal(t, "403", resp.Code)
}

func TestGetTemplate(t *testing.T) {
	ts := newTestServer(t)
	ts.provider.broken["s2"] = true

	rec := ts.do(t, http.MethodGet, "/templates/tpl", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Cache-Control"))

	got := decodeBody[templateDeck](t, rec)
	assert.Equal(t, "Biologia", got.Title)
	require.Len(t, got.Slides, 3)
	assert.Equal(t, "https://thumbs/s1", got.Slides[0].Thumbnail)
	assert.Equal(t, "", got.Slides[1].Thumbnail, "one broken thumbnail does not fail the listing")
	assert.NotNil(t, got.Slides[2].PageElements)
}

func TestGetTemplateNotFound(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/templates/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Apresentação não encontrada", decodeBody[errorResponse](t, rec).Error)
}

func TestCreatePresentation(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/presentations",
		`{"templateId":"tpl","activeSlides":[2,1],"prompt":"Intro","slideThemes":{"0":"a","1":"b"},"metadata":{"k":"v"}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"presentation":{"id":"copy-1","webViewLink":"https://docs/copy-1"}}`, rec.Body.String())

	require.Len(t, ts.assembler.got, 1)
	got := ts.assembler.got[0]
	assert.Equal(t, []int{2, 1}, got.ActiveSlides)
	assert.Equal(t, map[string]string{"0": "a", "1": "b"}, got.SlideThemes)
	assert.Equal(t, "v", got.Metadata["k"])
}

func TestCreatePresentationErrors(t *testing.T) {
	cases := []struct {
		name   string
		body   string
		err    error
		status int
		msg    string
	}{
		{"bad json", `{"templateId":`, nil, http.StatusBadRequest, "Corpo da requisição inválido"},
		{"validation", `{}`, &assembly.ValidationError{Key: "template_id_required", Msg: "template id is required"}, http.StatusBadRequest, "ID do template é obrigatório"},
		{"missing template", `{}`, &gdocs.ProviderError{Op: "get file", Code: 404, Err: errors.New("File not found")}, http.StatusNotFound, "Apresentação não encontrada"},
		{"aborted", `{}`, &assembly.AbortError{CopyID: "copy-1", Err: generation.ErrMissingContent}, http.StatusInternalServerError, "Erro ao salvar apresentação"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ts := newTestServer(t)
			ts.assembler.err = tc.err

			rec := ts.do(t, http.MethodPost, "/presentations", tc.body)
			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.msg, decodeBody[errorResponse](t, rec).Error)
		})
	}
}

func TestErrorMessagesFollowLanguage(t *testing.T) {
	ts := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/presentations/none", nil)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	rec := httptest.NewRecorder()
	ts.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Presentation not found", decodeBody[errorResponse](t, rec).Error)
}

func TestGetPresentation(t *testing.T) {
	ts := newTestServer(t)
	require.NoError(t, ts.store.Insert(context.Background(), &store.Presentation{
		GoogleSlidesID: "tpl",
		TemplateID:     "origin",
		SlidesOrder:    []int{1, 2, 3},
		Metadata:       map[string]any{"prompt": "Intro"},
	}))

	rec := ts.do(t, http.MethodGet, "/presentations/tpl", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	got := decodeBody[struct {
		Presentation store.Presentation  `json:"presentation"`
		Slides       []presentationSlide `json:"slides"`
	}](t, rec)
	assert.Equal(t, "origin", got.Presentation.TemplateID)
	require.Len(t, got.Slides, 3)
	assert.Equal(t, presentationSlide{ID: 1, Thumbnail: "https://thumbs/s2", ContentURL: "https://thumbs/s2"}, got.Slides[1])
}

func TestExport(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/presentations/copy-1/export?format=pdf", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, gdocs.MimePDF, rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="copy-1.pdf"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, gdocs.MimePDF+":copy-1", rec.Body.String())

	rec = ts.do(t, http.MethodGet, "/presentations/copy-1/export", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, gdocs.MimePPTX, rec.Header().Get("Content-Type"))

	rec = ts.do(t, http.MethodGet, "/presentations/copy-1/export?format=odp", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestThemes(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/themes", `{"prompt":"Intro","selectedSlides":[3,1,2]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"themes":["Abertura","Meio","Fim"]}`, rec.Body.String())
	assert.Equal(t, 3, ts.themes.gotN)

	rec = ts.do(t, http.MethodPost, "/themes", `{"prompt":"","selectedSlides":[1]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Prompt e slides selecionados são obrigatórios", decodeBody[errorResponse](t, rec).Error)

	ts.themes.err = generation.ErrMalformedOutput
	rec = ts.do(t, http.MethodPost, "/themes", `{"prompt":"Intro","selectedSlides":[1]}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Erro ao gerar temas com IA", decodeBody[errorResponse](t, rec).Error)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	ts.store.PingErr = errors.New("connection refused")
	rec = ts.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRequestIDIsEchoed(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/healthz", "")
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestTTLCacheExpires(t *testing.T) {
	c := newTTLCache[int](8, 0)
	c.Set("k", 1)
	_, ok := c.Get("k")
	assert.False(t, ok, "zero ttl disables caching")

	c = newTTLCache[int](8, 50*time.Millisecond)
	c.Set("k", 1)
	v, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	require.Eventually(t, func() bool {
		_, ok := c.Get("k")
		return !ok
	}, 2*time.Second, 10*time.Millisecond)
}

func TestTTLCacheDropsExpiredEntries(t *testing.T) {
	c := newTTLCache[string](0, 20*time.Millisecond)
	for i := range 1000 {
		c.Set(strconv.Itoa(i), "deck")
	}
	require.Equal(t, 1000, c.Len())

	// entries nobody reads again are swept in the background
	require.Eventually(t, func() bool { return c.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestTTLCacheIsBounded(t *testing.T) {
	c := newTTLCache[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)

	assert.Equal(t, 2, c.Len())
	_, ok := c.Get("a")
	assert.False(t, ok, "least recently used entry is evicted")
	v, ok := c.Get("c")
	assert.True(t, ok)
	assert.Equal(t, 3, v)
}
