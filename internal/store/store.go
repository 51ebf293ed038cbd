// Package store persists one record per generated presentation.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gnemet/PromptDeck/internal/config"
)

var ErrNotFound = errors.New("presentation not found")

// Presentation is the persisted record of a generated deck.
type Presentation struct {
	ID             int64          `json:"id"`
	GoogleSlidesID string         `json:"google_slides_id"`
	TemplateID     string         `json:"template_id"`
	SlidesOrder    []int          `json:"slides_order"`
	Metadata       map[string]any `json:"metadata"`
	WebViewLink    string         `json:"web_view_link"`
	CreatedAt      time.Time      `json:"created_at"`
}

// Store is insert-and-read only; records are never updated or deleted.
type Store interface {
	// Ping is a cheap read proving the backend is reachable.
	Ping(ctx context.Context) error
	Insert(ctx context.Context, p *Presentation) error
	GetBySlidesID(ctx context.Context, slidesID string) (*Presentation, error)
	Close() error
}

// Open returns the backend selected by cfg.Driver.
func Open(ctx context.Context, cfg config.DatabaseConfig) (Store, error) {
	switch cfg.Driver {
	case "", "postgres":
		return OpenPostgres(ctx, cfg.GetConnectStr())
	case "datastore":
		return OpenDatastore(ctx, cfg.ProjectID, cfg.Namespace)
	case "memory":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}
