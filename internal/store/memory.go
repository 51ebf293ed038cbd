package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// Memory keeps records in process. It backs local runs (driver "memory") and tests.
type Memory struct {
	mu      sync.RWMutex
	records map[string]Presentation
	nextID  int64
	// PingErr, when set, is returned by Ping.
	PingErr error
}

func NewMemory() *Memory {
	return &Memory{records: make(map[string]Presentation)}
}

func (m *Memory) Close() error { return nil }

func (m *Memory) Ping(context.Context) error { return m.PingErr }

func (m *Memory) Insert(_ context.Context, p *Presentation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[p.GoogleSlidesID]; ok {
		return fmt.Errorf("inserting presentation: duplicate google_slides_id %s", p.GoogleSlidesID)
	}
	m.nextID++
	p.ID = m.nextID
	p.CreatedAt = time.Now().UTC()

	rec, err := clone(*p)
	if err != nil {
		return err
	}
	m.records[p.GoogleSlidesID] = rec
	return nil
}

func (m *Memory) GetBySlidesID(_ context.Context, slidesID string) (*Presentation, error) {
	m.mu.RLock()
	rec, ok := m.records[slidesID]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	out, err := clone(rec)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Len reports how many records were inserted.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

// clone round-trips through JSON so callers never share maps with the store,
// and metadata comes back with the same shapes the SQL backend returns.
func clone(p Presentation) (Presentation, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return Presentation{}, fmt.Errorf("encoding presentation: %w", err)
	}
	var out Presentation
	if err := json.Unmarshal(data, &out); err != nil {
		return Presentation{}, fmt.Errorf("decoding presentation: %w", err)
	}
	return out, nil
}
