package api

import (
	"errors"
	"net/http"

	"github.com/gnemet/PromptDeck/internal/gdocs"
	"github.com/gorilla/mux"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/slides/v1"
)

const cacheControl = "public, s-maxage=300, stale-while-revalidate=59"

type TemplateFile struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	MimeType      string `json:"mimeType"`
	ThumbnailLink string `json:"thumbnailLink,omitempty"`
	WebViewLink   string `json:"webViewLink,omitempty"`
}

type templateList struct {
	Files struct {
		Presentations []TemplateFile `json:"presentations"`
		Images        []TemplateFile `json:"images"`
	} `json:"files"`
	TotalCount int `json:"totalCount"`
}

type TemplateSlide struct {
	ID           string                `json:"id"`
	Title        string                `json:"title"`
	Thumbnail    string                `json:"thumbnail"`
	PageElements []*slides.PageElement `json:"pageElements"`
}

type templateDeck struct {
	ID     string          `json:"id"`
	Title  string          `json:"title"`
	Slides []TemplateSlide `json:"slides"`
}

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	if s.opts.TemplatesFolder == "" {
		s.writeError(w, r, http.StatusInternalServerError, "templates_folder_missing", nil)
		return
	}
	if cached, ok := s.listings.Get(s.opts.TemplatesFolder); ok {
		w.Header().Set("Cache-Control", cacheControl)
		writeJSON(w, http.StatusOK, cached)
		return
	}

	files, err := s.Provider.ListFiles(r.Context(), s.opts.TemplatesFolder,
		[]string{gdocs.MimePresentation, gdocs.MimePNG, gdocs.MimeJPEG})
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, "templates_fetch_failed", err)
		return
	}

	var out templateList
	out.Files.Presentations = []TemplateFile{}
	out.Files.Images = []TemplateFile{}
	for _, f := range files {
		tf := TemplateFile{ID: f.Id, Name: f.Name, MimeType: f.MimeType, ThumbnailLink: f.ThumbnailLink, WebViewLink: f.WebViewLink}
		switch f.MimeType {
		case gdocs.MimePresentation:
			out.Files.Presentations = append(out.Files.Presentations, tf)
		case gdocs.MimePNG, gdocs.MimeJPEG:
			out.Files.Images = append(out.Files.Images, tf)
		}
	}
	out.TotalCount = len(files)

	// A missing high quality thumbnail falls back to Drive's own.
	g, ctx := errgroup.WithContext(r.Context())
	g.SetLimit(s.opts.ThumbnailWorkers)
	for i := range out.Files.Presentations {
		p := &out.Files.Presentations[i]
		g.Go(func() error {
			if thumb := s.Provider.FirstSlideThumbnail(ctx, p.ID); thumb != "" {
				p.ThumbnailLink = thumb
			}
			return nil
		})
	}
	g.Wait()

	s.listings.Set(s.opts.TemplatesFolder, out)
	w.Header().Set("Cache-Control", cacheControl)
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id == "" {
		s.writeError(w, r, http.StatusBadRequest, "template_id_missing", nil)
		return
	}
	if cached, ok := s.decks.Get(id); ok {
		w.Header().Set("Cache-Control", cacheControl)
		writeJSON(w, http.StatusOK, cached)
		return
	}

	pres, err := s.Provider.GetPresentation(r.Context(), id)
	if errors.Is(err, gdocs.ErrNotFound) {
		s.writeError(w, r, http.StatusNotFound, "template_not_found", err)
		return
	}
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, "template_slides_failed", err)
		return
	}

	thumbs := s.Provider.SlideThumbnails(r.Context(), id, pres.Slides)
	out := templateDeck{ID: id, Title: pres.Title, Slides: make([]TemplateSlide, len(pres.Slides))}
	for i, page := range pres.Slides {
		elements := page.PageElements
		if elements == nil {
			elements = []*slides.PageElement{}
		}
		out.Slides[i] = TemplateSlide{
			ID:           page.ObjectId,
			Title:        speakerNotesID(page),
			Thumbnail:    thumbs[i],
			PageElements: elements,
		}
	}

	s.decks.Set(id, out)
	w.Header().Set("Cache-Control", cacheControl)
	writeJSON(w, http.StatusOK, out)
}

// speakerNotesID is what the editor shows as a slide title.
func speakerNotesID(page *slides.Page) string {
	sp := page.SlideProperties
	if sp == nil || sp.NotesPage == nil || sp.NotesPage.NotesProperties == nil {
		return ""
	}
	return sp.NotesPage.NotesProperties.SpeakerNotesObjectId
}
