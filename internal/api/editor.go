package api

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gnemet/PromptDeck/internal/assembly"
	"github.com/gnemet/PromptDeck/internal/editor"
	"github.com/gnemet/PromptDeck/internal/logging"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type openEditorRequest struct {
	// Template is a template id or the JSON-encoded template object.
	Template string `json:"template"`
	Prompt   string `json:"prompt"`
}

type moveRequest struct {
	ActiveID int `json:"activeId"`
	OverID   int `json:"overId"`
}

type themeRequest struct {
	Theme string `json:"theme"`
}

// handleEditorOpen starts a fresh editor state. Without a template, or when
// its slides cannot be read, the editor starts with placeholder slides.
func (s *Server) handleEditorOpen(w http.ResponseWriter, r *http.Request) {
	var req openEditorRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid_json", err)
		return
	}

	st := editor.State{Template: req.Template, Prompt: req.Prompt, Deck: editor.NewPlaceholderDeck(editor.DefaultDeckSize)}
	if id := assembly.NormalizeTemplateID(req.Template); id != "" {
		pres, err := s.Provider.GetPresentation(r.Context(), id)
		if err != nil {
			logging.FromContext(r.Context(), s.Log).Warn("template slides unavailable, using placeholders",
				zap.String("template_id", id), zap.Error(err))
		} else {
			st.Deck = editor.NewDeckFromThumbnails(s.Provider.SlideThumbnails(r.Context(), id, pres.Slides))
		}
	}

	s.editor.Save(r.Context(), st)
	writeJSON(w, http.StatusOK, st)
}

// loadState answers 404 itself when there is no editor state.
func (s *Server) loadState(w http.ResponseWriter, r *http.Request) (editor.State, bool) {
	st, ok := s.editor.Load(r.Context())
	if !ok {
		s.writeError(w, r, http.StatusNotFound, "editor_session_missing", nil)
	}
	return st, ok
}

func (s *Server) handleEditorState(w http.ResponseWriter, r *http.Request) {
	st, ok := s.loadState(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleEditorMove(w http.ResponseWriter, r *http.Request) {
	st, ok := s.loadState(w, r)
	if !ok {
		return
	}
	var req moveRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid_json", err)
		return
	}
	if st.Deck.Move(req.ActiveID, req.OverID) {
		s.editor.Save(r.Context(), st)
	}
	writeJSON(w, http.StatusOK, st)
}

func slideID(r *http.Request) int {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	return id
}

func (s *Server) handleEditorToggle(w http.ResponseWriter, r *http.Request) {
	st, ok := s.loadState(w, r)
	if !ok {
		return
	}
	if err := st.Deck.Toggle(slideID(r)); err != nil {
		s.writeError(w, r, http.StatusNotFound, "slide_not_found", nil)
		return
	}
	s.editor.Save(r.Context(), st)
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleEditorTheme(w http.ResponseWriter, r *http.Request) {
	st, ok := s.loadState(w, r)
	if !ok {
		return
	}
	var req themeRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid_json", err)
		return
	}
	if err := st.Deck.SetTheme(slideID(r), req.Theme); err != nil {
		s.writeError(w, r, http.StatusNotFound, "slide_not_found", nil)
		return
	}
	s.editor.Save(r.Context(), st)
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleEditorThemes(w http.ResponseWriter, r *http.Request) {
	st, ok := s.loadState(w, r)
	if !ok {
		return
	}
	active := st.Deck.ActiveIDs()
	if len(active) == 0 {
		s.writeError(w, r, http.StatusBadRequest, "active_slides_required", nil)
		return
	}
	if st.Prompt == "" {
		s.writeError(w, r, http.StatusBadRequest, "prompt_required", nil)
		return
	}

	themes, err := s.Themes.GenerateThemes(r.Context(), st.Prompt, len(active))
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, "themes_failed", err)
		return
	}
	if err := st.Deck.ApplyThemes(themes); err != nil {
		s.writeError(w, r, http.StatusBadGateway, "not_enough_themes", err)
		return
	}
	s.editor.Save(r.Context(), st)
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleEditorGenerate(w http.ResponseWriter, r *http.Request) {
	st, ok := s.loadState(w, r)
	if !ok {
		return
	}
	req, err := st.Deck.CreateRequest(st.Template, st.Prompt, nil, s.now())
	switch {
	case errors.Is(err, editor.ErrTemplateRequired):
		s.writeError(w, r, http.StatusBadRequest, "template_required", nil)
		return
	case errors.Is(err, editor.ErrPromptRequired):
		s.writeError(w, r, http.StatusBadRequest, "prompt_required", nil)
		return
	case errors.Is(err, editor.ErrNoActiveSlides):
		s.writeError(w, r, http.StatusBadRequest, "active_slides_required", nil)
		return
	}

	res, err := s.Assembler.Assemble(r.Context(), req)
	if err != nil {
		s.writeAssemblyError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, createResponse{
		Presentation: createdPresentation{ID: res.ID, WebViewLink: res.WebViewLink},
		Slides:       res.Slides,
		PreviewURL:   "/preview?presentationId=" + url.QueryEscape(res.ID),
	})
}
