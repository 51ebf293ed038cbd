// Package editor holds the slide list a user arranges before generating a
// deck: order, active flags and per-slide themes.
package editor

import (
	"errors"
	"slices"
	"strconv"
	"time"

	"github.com/gnemet/PromptDeck/internal/assembly"
)

// PlaceholderImage is shown for slides without a thumbnail.
const PlaceholderImage = "/placeholder.svg"

// DefaultDeckSize is the number of entries when no template is loaded.
const DefaultDeckSize = 8

var (
	ErrNotEnoughThemes  = errors.New("fewer themes than active slides")
	ErrNoActiveSlides   = errors.New("no active slides")
	ErrTemplateRequired = errors.New("template is required")
	ErrPromptRequired   = errors.New("prompt is required")
	ErrSlideNotFound    = errors.New("slide not found")
)

// Slide is one entry of the editor. ID is the slide's 1-based position in
// the template and never changes when the list is reordered.
type Slide struct {
	ID       int    `json:"id"`
	Image    string `json:"image"`
	IsActive bool   `json:"isActive"`
	Theme    string `json:"theme"`
}

type Deck struct {
	Slides []Slide `json:"slides"`
}

func NewPlaceholderDeck(n int) Deck {
	d := Deck{Slides: make([]Slide, n)}
	for i := range d.Slides {
		d.Slides[i] = Slide{ID: i + 1, Image: PlaceholderImage, IsActive: true}
	}
	return d
}

// NewDeckFromThumbnails builds one active entry per url; empty urls get the
// placeholder image.
func NewDeckFromThumbnails(urls []string) Deck {
	d := Deck{Slides: make([]Slide, len(urls))}
	for i, u := range urls {
		if u == "" {
			u = PlaceholderImage
		}
		d.Slides[i] = Slide{ID: i + 1, Image: u, IsActive: true}
	}
	return d
}

func (d *Deck) index(id int) int {
	return slices.IndexFunc(d.Slides, func(s Slide) bool { return s.ID == id })
}

// Move places the slide activeID where overID is. Dropping a slide on itself
// or on an unknown id does nothing.
func (d *Deck) Move(activeID, overID int) bool {
	if activeID == overID {
		return false
	}
	from, to := d.index(activeID), d.index(overID)
	if from < 0 || to < 0 {
		return false
	}
	s := d.Slides[from]
	d.Slides = slices.Delete(d.Slides, from, from+1)
	d.Slides = slices.Insert(d.Slides, to, s)
	return true
}

func (d *Deck) Toggle(id int) error {
	i := d.index(id)
	if i < 0 {
		return ErrSlideNotFound
	}
	d.Slides[i].IsActive = !d.Slides[i].IsActive
	return nil
}

func (d *Deck) SetTheme(id int, theme string) error {
	i := d.index(id)
	if i < 0 {
		return ErrSlideNotFound
	}
	d.Slides[i].Theme = theme
	return nil
}

// ActiveIDs returns the ids of active slides in display order.
func (d *Deck) ActiveIDs() []int {
	var ids []int
	for _, s := range d.Slides {
		if s.IsActive {
			ids = append(ids, s.ID)
		}
	}
	return ids
}

// ApplyThemes hands themes out to the active slides in order. The deck is
// left untouched when there are not enough themes.
func (d *Deck) ApplyThemes(themes []string) error {
	if len(themes) < len(d.ActiveIDs()) {
		return ErrNotEnoughThemes
	}
	next := 0
	for i := range d.Slides {
		if d.Slides[i].IsActive {
			d.Slides[i].Theme = themes[next]
			next++
		}
	}
	return nil
}

// ThemeMap keys the active slides' themes by their index in the generated deck.
func (d *Deck) ThemeMap() map[string]string {
	m := make(map[string]string)
	i := 0
	for _, s := range d.Slides {
		if s.IsActive {
			m[strconv.Itoa(i)] = s.Theme
			i++
		}
	}
	return m
}

// CreateRequest builds the assembly request for the current state.
// template is the raw template reference the editor was opened with.
func (d *Deck) CreateRequest(template, prompt string, metadata map[string]any, now time.Time) (assembly.Request, error) {
	if template == "" {
		return assembly.Request{}, ErrTemplateRequired
	}
	if prompt == "" {
		return assembly.Request{}, ErrPromptRequired
	}
	active := d.ActiveIDs()
	if len(active) == 0 {
		return assembly.Request{}, ErrNoActiveSlides
	}

	meta := make(map[string]any, len(metadata)+2)
	for k, v := range metadata {
		meta[k] = v
	}
	meta["originalTemplate"] = template
	meta["generatedAt"] = now.UTC().Format("2006-01-02T15:04:05.000Z07:00")

	return assembly.Request{
		TemplateID:   assembly.NormalizeTemplateID(template),
		ActiveSlides: active,
		Metadata:     meta,
		Prompt:       prompt,
		SlideThemes:  d.ThemeMap(),
	}, nil
}
