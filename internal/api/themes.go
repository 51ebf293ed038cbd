package api

import (
	"net/http"
	"strings"
)

type themesRequest struct {
	Prompt         string `json:"prompt"`
	SelectedSlides []int  `json:"selectedSlides"`
}

func (s *Server) handleThemes(w http.ResponseWriter, r *http.Request) {
	var req themesRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid_json", err)
		return
	}
	if strings.TrimSpace(req.Prompt) == "" || len(req.SelectedSlides) == 0 {
		s.writeError(w, r, http.StatusBadRequest, "themes_input_required", nil)
		return
	}

	themes, err := s.Themes.GenerateThemes(r.Context(), req.Prompt, len(req.SelectedSlides))
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, "themes_failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"themes": themes})
}
