package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gnemet/PromptDeck/internal/assembly"
	"github.com/gnemet/PromptDeck/internal/gdocs"
	"github.com/gnemet/PromptDeck/internal/logging"
	"github.com/gnemet/PromptDeck/internal/store"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type createdPresentation struct {
	ID          string `json:"id"`
	WebViewLink string `json:"webViewLink"`
}

type createResponse struct {
	Presentation createdPresentation    `json:"presentation"`
	Slides       []assembly.SlideReport `json:"slides,omitempty"`
	PreviewURL   string                 `json:"previewUrl,omitempty"`
}

type presentationSlide struct {
	ID         int    `json:"id"`
	Thumbnail  string `json:"thumbnail"`
	ContentURL string `json:"contentUrl"`
}

var exportFormats = map[string]string{
	"pptx": gdocs.MimePPTX,
	"pdf":  gdocs.MimePDF,
}

func (s *Server) handleCreatePresentation(w http.ResponseWriter, r *http.Request) {
	var req assembly.Request
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid_json", err)
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
	})
}

func (s *Server) handleGetPresentation(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	rec, err := s.Store.GetBySlidesID(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, r, http.StatusNotFound, "presentation_not_found", nil)
		return
	}
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, "presentation_fetch_failed", err)
		return
	}

	pres, err := s.Provider.GetPresentation(r.Context(), id)
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, "presentation_fetch_failed", err)
		return
	}
	thumbs := s.Provider.SlideThumbnails(r.Context(), id, pres.Slides)
	out := make([]presentationSlide, len(thumbs))
	for i, t := range thumbs {
		out[i] = presentationSlide{ID: i, Thumbnail: t, ContentURL: t}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"presentation": rec,
		"slides":       out,
	})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "pptx"
	}
	mime, ok := exportFormats[format]
	if !ok {
		s.writeError(w, r, http.StatusBadRequest, "export_format_invalid", nil)
		return
	}

	body, err := s.Provider.Export(r.Context(), id, mime)
	if errors.Is(err, gdocs.ErrNotFound) {
		s.writeError(w, r, http.StatusNotFound, "presentation_not_found", err)
		return
	}
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, "presentation_fetch_failed", err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.%s"`, id, format))
	if _, err := io.Copy(w, body); err != nil {
		logging.FromContext(r.Context(), s.Log).Warn("export interrupted", zap.String("presentation_id", id), zap.Error(err))
	}
}
