package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

//go:embed schema.sql
var schemaSQL string

type Postgres struct {
	db *sql.DB
}

func OpenPostgres(ctx context.Context, connectStr string) (*Postgres, error) {
	db, err := sql.Open("postgres", connectStr)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	return &Postgres{db: db}, nil
}

// NewPostgres wraps an already opened handle.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Close() error {
	return s.db.Close()
}

// EnsureSchema creates the presentations table when missing.
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}
	return nil
}

func (s *Postgres) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database unreachable: %w", err)
	}
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT count(*) FROM presentations LIMIT 1").Scan(&count); err != nil {
		return fmt.Errorf("database probe failed: %w", err)
	}
	return nil
}

func (s *Postgres) Insert(ctx context.Context, p *Presentation) error {
	meta, err := json.Marshal(metadataOrEmpty(p.Metadata))
	if err != nil {
		return fmt.Errorf("encoding metadata: %w", err)
	}

	query := `
		INSERT INTO presentations (google_slides_id, template_id, slides_order, metadata, web_view_link)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err = s.db.QueryRowContext(ctx, query,
		p.GoogleSlidesID, p.TemplateID, pq.Array(toInt64(p.SlidesOrder)), meta, p.WebViewLink,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting presentation: %w", err)
	}
	return nil
}

func (s *Postgres) GetBySlidesID(ctx context.Context, slidesID string) (*Presentation, error) {
	var (
		p     Presentation
		order []int64
		meta  []byte
	)
	query := `
		SELECT id, google_slides_id, template_id, slides_order, metadata, web_view_link, created_at
		FROM presentations WHERE google_slides_id = $1
	`
	err := s.db.QueryRowContext(ctx, query, slidesID).Scan(
		&p.ID, &p.GoogleSlidesID, &p.TemplateID, pq.Array(&order), &meta, &p.WebViewLink, &p.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching presentation: %w", err)
	}

	if err := json.Unmarshal(meta, &p.Metadata); err != nil {
		return nil, fmt.Errorf("decoding metadata: %w", err)
	}
	p.SlidesOrder = make([]int, len(order))
	for i, v := range order {
		p.SlidesOrder[i] = int(v)
	}
	return &p, nil
}

func toInt64(in []int) []int64 {
	out := make([]int64, len(in))
	for i, v := range in {
		out[i] = int64(v)
	}
	return out
}

func metadataOrEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
