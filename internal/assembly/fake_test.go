package assembly

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/gnemet/PromptDeck/internal/gdocs"
	"github.com/gnemet/PromptDeck/internal/generation"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/slides/v1"
)

// fakeProvider keeps decks in memory and applies the batch requests the
// workflow sends, so tests can assert on the resulting deck.
type fakeProvider struct {
	mu      sync.Mutex
	files   map[string]*drive.File
	decks   map[string]*slides.Presentation
	batches map[string][][]*slides.Request
	copies  int
	deleted []string

	batchErr func(id string, reqs []*slides.Request) error
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		files:   make(map[string]*drive.File),
		decks:   make(map[string]*slides.Presentation),
		batches: make(map[string][][]*slides.Request),
	}
}

func (f *fakeProvider) addTemplate(id, name string, pages ...*slides.Page) {
	f.files[id] = &drive.File{Id: id, Name: name, MimeType: gdocs.MimePresentation}
	f.decks[id] = &slides.Presentation{PresentationId: id, Title: name, Slides: pages}
}

func notFound(op string) error {
	return &gdocs.ProviderError{Op: op, Code: 404, Err: errors.New("File not found")}
}

func (f *fakeProvider) GetFile(_ context.Context, id string) (*drive.File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	file, ok := f.files[id]
	if !ok {
		return nil, notFound("get file")
	}
	return file, nil
}

func (f *fakeProvider) GetPresentation(_ context.Context, id string) (*slides.Presentation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	deck, ok := f.decks[id]
	if !ok {
		return nil, notFound("get presentation")
	}
	return cloneDeck(deck), nil
}

func (f *fakeProvider) CopyFile(_ context.Context, id, name, parent string) (*drive.File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	deck, ok := f.decks[id]
	if !ok {
		return nil, notFound("copy file")
	}
	f.copies++
	copyID := fmt.Sprintf("copy-%d", f.copies)
	file := &drive.File{
		Id:          copyID,
		Name:        name,
		Parents:     []string{parent},
		WebViewLink: "https://docs.google.com/presentation/d/" + copyID + "/edit",
	}
	f.files[copyID] = file
	cp := cloneDeck(deck)
	cp.PresentationId = copyID
	f.decks[copyID] = cp
	return file, nil
}

func (f *fakeProvider) DeleteFile(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	delete(f.files, id)
	delete(f.decks, id)
	return nil
}

func (f *fakeProvider) BatchUpdate(_ context.Context, id string, reqs []*slides.Request) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.batchErr != nil {
		if err := f.batchErr(id, reqs); err != nil {
			return err
		}
	}
	deck, ok := f.decks[id]
	if !ok {
		return notFound("batch update")
	}
	f.batches[id] = append(f.batches[id], reqs)

	for _, r := range reqs {
		switch {
		case r.DeleteObject != nil:
			deck.Slides = slices.DeleteFunc(deck.Slides, func(p *slides.Page) bool {
				return p.ObjectId == r.DeleteObject.ObjectId
			})
		case r.UpdateSlidesPosition != nil:
			target := r.UpdateSlidesPosition.SlideObjectIds[0]
			idx := slices.IndexFunc(deck.Slides, func(p *slides.Page) bool { return p.ObjectId == target })
			page := deck.Slides[idx]
			deck.Slides = slices.Delete(deck.Slides, idx, idx+1)
			deck.Slides = slices.Insert(deck.Slides, int(r.UpdateSlidesPosition.InsertionIndex), page)
		case r.DeleteText != nil:
			if sh := findShape(deck, r.DeleteText.ObjectId); sh != nil {
				sh.Text = nil
			}
		case r.InsertText != nil:
			if sh := findShape(deck, r.InsertText.ObjectId); sh != nil {
				sh.Text = &slides.TextContent{TextElements: []*slides.TextElement{
					{TextRun: &slides.TextRun{Content: r.InsertText.Text + "\n"}},
				}}
			}
		}
	}
	return nil
}

// text returns the current text of a shape in deck id.
func (f *fakeProvider) text(id, objectID string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	sh := findShape(f.decks[id], objectID)
	if sh == nil {
		return ""
	}
	s, _ := shapeText(sh.Text)
	return s
}

func (f *fakeProvider) order(id string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slideIDs(f.decks[id].Slides)
}

func findShape(deck *slides.Presentation, objectID string) *slides.Shape {
	for _, p := range deck.Slides {
		for _, el := range p.PageElements {
			if el.ObjectId == objectID && el.Shape != nil {
				return el.Shape
			}
		}
	}
	return nil
}

func cloneDeck(in *slides.Presentation) *slides.Presentation {
	data, err := json.Marshal(in)
	if err != nil {
		panic(err)
	}
	var out slides.Presentation
	if err := json.Unmarshal(data, &out); err != nil {
		panic(err)
	}
	return &out
}

// fakeGenerator answers "<theme>|<objectId>" for every placeholder.
type fakeGenerator struct {
	mu     sync.Mutex
	themes []string
	calls  [][]generation.Placeholder
	err    error
	failAt int
}

func (g *fakeGenerator) GenerateSlideContent(_ context.Context, prompt, theme string, phs []generation.Placeholder) (map[string]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.themes = append(g.themes, theme)
	g.calls = append(g.calls, phs)
	if g.err != nil && len(g.calls) == g.failAt {
		return nil, g.err
	}
	out := make(map[string]string, len(phs))
	for _, p := range phs {
		out[p.ObjectID] = strings.TrimSpace(theme + "|" + p.ObjectID)
	}
	return out, nil
}

func textPage(id string, shapes ...*slides.PageElement) *slides.Page {
	return &slides.Page{ObjectId: id, PageElements: shapes}
}

func placeholderShape(id, kind, text string, style *slides.TextStyle) *slides.PageElement {
	sh := &slides.Shape{ShapeType: "TEXT_BOX"}
	if kind != "" {
		sh.Placeholder = &slides.Placeholder{Type: kind}
	}
	if text != "" {
		sh.Text = &slides.TextContent{TextElements: []*slides.TextElement{
			{ParagraphMarker: &slides.ParagraphMarker{}},
			{TextRun: &slides.TextRun{Content: text + "\n", Style: style}},
		}}
	}
	return &slides.PageElement{ObjectId: id, Shape: sh}
}

func imageElement(id string) *slides.PageElement {
	return &slides.PageElement{ObjectId: id, Image: &slides.Image{ContentUrl: "https://example.com/" + id + ".png"}}
}
