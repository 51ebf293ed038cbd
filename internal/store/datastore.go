package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/datastore"
)

const presentationKind = "Presentation"

// presentationEntity keys on the slides id; metadata is kept as opaque JSON.
type presentationEntity struct {
	TemplateID  string
	SlidesOrder []int64
	Metadata    string `datastore:",noindex"`
	WebViewLink string `datastore:",noindex"`
	CreatedAt   time.Time
}

type Datastore struct {
	client    *datastore.Client
	namespace string
}

func OpenDatastore(ctx context.Context, projectID, namespace string) (*Datastore, error) {
	if projectID == "" {
		projectID = datastore.DetectProjectID
	}
	client, err := datastore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating datastore client: %w", err)
	}
	return &Datastore{client: client, namespace: namespace}, nil
}

func (s *Datastore) Close() error {
	return s.client.Close()
}

func (s *Datastore) key(slidesID string) *datastore.Key {
	k := datastore.NameKey(presentationKind, slidesID, nil)
	k.Namespace = s.namespace
	return k
}

func (s *Datastore) Ping(ctx context.Context) error {
	q := datastore.NewQuery(presentationKind).Namespace(s.namespace).KeysOnly().Limit(1)
	if _, err := s.client.GetAll(ctx, q, nil); err != nil {
		return fmt.Errorf("datastore probe failed: %w", err)
	}
	return nil
}

func (s *Datastore) Insert(ctx context.Context, p *Presentation) error {
	meta, err := json.Marshal(metadataOrEmpty(p.Metadata))
	if err != nil {
		return fmt.Errorf("encoding metadata: %w", err)
	}
	p.CreatedAt = time.Now().UTC()
	e := &presentationEntity{
		TemplateID:  p.TemplateID,
		SlidesOrder: toInt64(p.SlidesOrder),
		Metadata:    string(meta),
		WebViewLink: p.WebViewLink,
		CreatedAt:   p.CreatedAt,
	}
	if _, err := s.client.Mutate(ctx, datastore.NewInsert(s.key(p.GoogleSlidesID), e)); err != nil {
		return fmt.Errorf("inserting presentation: %w", err)
	}
	return nil
}

func (s *Datastore) GetBySlidesID(ctx context.Context, slidesID string) (*Presentation, error) {
	var e presentationEntity
	if err := s.client.Get(ctx, s.key(slidesID), &e); err != nil {
		if errors.Is(err, datastore.ErrNoSuchEntity) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("fetching presentation: %w", err)
	}

	p := &Presentation{
		GoogleSlidesID: slidesID,
		TemplateID:     e.TemplateID,
		WebViewLink:    e.WebViewLink,
		CreatedAt:      e.CreatedAt,
		SlidesOrder:    make([]int, len(e.SlidesOrder)),
	}
	for i, v := range e.SlidesOrder {
		p.SlidesOrder[i] = int(v)
	}
	if err := json.Unmarshal([]byte(e.Metadata), &p.Metadata); err != nil {
		return nil, fmt.Errorf("decoding metadata: %w", err)
	}
	return p, nil
}
