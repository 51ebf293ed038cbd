// Package api exposes templates, presentations, themes and the editor
// session over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/gnemet/PromptDeck/internal/assembly"
	"github.com/gnemet/PromptDeck/internal/editor"
	"github.com/gnemet/PromptDeck/internal/gdocs"
	"github.com/gnemet/PromptDeck/internal/i18n"
	"github.com/gnemet/PromptDeck/internal/logging"
	"github.com/gnemet/PromptDeck/internal/store"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/slides/v1"
)

// Provider is the read side of the document provider.
type Provider interface {
	ListFiles(ctx context.Context, folderID string, mimeTypes []string) ([]*drive.File, error)
	GetPresentation(ctx context.Context, id string) (*slides.Presentation, error)
	SlideThumbnails(ctx context.Context, presentationID string, pages []*slides.Page) []string
	FirstSlideThumbnail(ctx context.Context, presentationID string) string
	Export(ctx context.Context, id, mimeType string) (io.ReadCloser, error)
}

type ThemeGenerator interface {
	GenerateThemes(ctx context.Context, prompt string, n int) ([]string, error)
}

type Assembler interface {
	Assemble(ctx context.Context, req assembly.Request) (*assembly.Result, error)
}

type Deps struct {
	Provider  Provider
	Themes    ThemeGenerator
	Assembler Assembler
	Store     store.Store
	Sessions  *scs.SessionManager
	Bundle    *i18n.Bundle
	Log       *zap.Logger
}

type Options struct {
	TemplatesFolder  string
	CacheTTL         time.Duration
	CacheSize        int
	ThumbnailWorkers int
}

type Server struct {
	Deps
	opts     Options
	editor   *editor.Sessions
	listings *ttlCache[templateList]
	decks    *ttlCache[templateDeck]
	now      func() time.Time
}

func New(d Deps, opts Options) *Server {
	if opts.ThumbnailWorkers <= 0 {
		opts.ThumbnailWorkers = 4
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 128
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	return &Server{
		Deps:     d,
		opts:     opts,
		editor:   editor.NewSessions(d.Sessions),
		listings: newTTLCache[templateList](opts.CacheSize, opts.CacheTTL),
		decks:    newTTLCache[templateDeck](opts.CacheSize, opts.CacheTTL),
		now:      time.Now,
	}
}

func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(logging.Middleware(s.Log))

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/templates", s.handleListTemplates).Methods(http.MethodGet)
	r.HandleFunc("/templates/{id}", s.handleGetTemplate).Methods(http.MethodGet)
	r.HandleFunc("/themes", s.handleThemes).Methods(http.MethodPost)
	r.HandleFunc("/presentations", s.handleCreatePresentation).Methods(http.MethodPost)
	r.HandleFunc("/presentations/{id}", s.handleGetPresentation).Methods(http.MethodGet)
	r.HandleFunc("/presentations/{id}/export", s.handleExport).Methods(http.MethodGet)

	ed := r.PathPrefix("/editor").Subrouter()
	ed.Use(s.Sessions.LoadAndSave)
	ed.HandleFunc("", s.handleEditorState).Methods(http.MethodGet)
	ed.HandleFunc("/session", s.handleEditorOpen).Methods(http.MethodPost)
	ed.HandleFunc("/move", s.handleEditorMove).Methods(http.MethodPost)
	ed.HandleFunc("/slides/{id:[0-9]+}/toggle", s.handleEditorToggle).Methods(http.MethodPost)
	ed.HandleFunc("/slides/{id:[0-9]+}/theme", s.handleEditorTheme).Methods(http.MethodPut)
	ed.HandleFunc("/themes", s.handleEditorThemes).Methods(http.MethodPost)
	ed.HandleFunc("/generate", s.handleEditorGenerate).Methods(http.MethodPost)

	return r
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Code    string `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError answers with the localized message for key. err, when given,
// becomes the details and its provider status the code.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, key string, err error) {
	resp := errorResponse{Error: s.Bundle.T(s.Bundle.GetLang(r), key)}
	if err != nil {
		resp.Details = err.Error()
		if code := gdocs.Code(err); code != 0 {
			resp.Code = strconv.Itoa(code)
		}
		log := logging.FromContext(r.Context(), s.Log)
		if status >= http.StatusInternalServerError {
			log.Error(key, zap.Error(err))
		} else {
			log.Info(key, zap.Error(err))
		}
	}
	writeJSON(w, status, resp)
}

func decode(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// writeAssemblyError maps a failed assembly run to a response.
func (s *Server) writeAssemblyError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verr  *assembly.ValidationError
		abort *assembly.AbortError
	)
	switch {
	case errors.As(err, &verr):
		s.writeError(w, r, http.StatusBadRequest, verr.Key, err)
	case errors.As(err, &abort):
		s.writeError(w, r, http.StatusInternalServerError, "presentation_create_failed", err)
	case errors.Is(err, gdocs.ErrNotFound):
		s.writeError(w, r, http.StatusNotFound, "template_not_found", err)
	default:
		s.writeError(w, r, http.StatusInternalServerError, "presentation_create_failed", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.Store.Ping(r.Context()); err != nil {
		s.writeError(w, r, http.StatusServiceUnavailable, "store_unavailable", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
