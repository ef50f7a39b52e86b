package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	appLog "eventdash/internal/log"
	"eventdash/internal/model"
	"eventdash/internal/storage"
)

// StorageKey is where the fallback list lives in the KV store.
const StorageKey = "@events_storage"

// LocalBackend keeps the whole event list as one JSON value in a KV store.
// The first read of an empty store seeds it with InitialEvents.
type LocalBackend struct {
	kv storage.KV
	mu sync.Mutex
}

func NewLocalBackend(kv storage.KV) *LocalBackend {
	return &LocalBackend{kv: kv}
}

func (b *LocalBackend) load(ctx context.Context) ([]model.Event, error) {
	data, err := b.kv.Get(ctx, StorageKey)
	if errors.Is(err, storage.ErrNotFound) {
		seed := InitialEvents()
		if err := b.save(ctx, seed); err != nil {
			return nil, err
		}
		appLog.Info("local events seeded", "count", len(seed))
		return seed, nil
	}
	if err != nil {
		return nil, fmt.Errorf("events: read local store: %w", err)
	}

	var evs []model.Event
	if err := json.Unmarshal(data, &evs); err != nil {
		return nil, fmt.Errorf("events: decode local store: %w", err)
	}
	return evs, nil
}

func (b *LocalBackend) save(ctx context.Context, evs []model.Event) error {
	data, err := json.Marshal(evs)
	if err != nil {
		return fmt.Errorf("events: encode local store: %w", err)
	}
	if err := b.kv.Set(ctx, StorageKey, data); err != nil {
		return fmt.Errorf("events: write local store: %w", err)
	}
	return nil
}

func (b *LocalBackend) List(ctx context.Context) ([]model.Event, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.load(ctx)
}

// Get returns one event by id.
func (b *LocalBackend) Get(ctx context.Context, id int) (model.Event, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	evs, err := b.load(ctx)
	if err != nil {
		return model.Event{}, err
	}
	for _, ev := range evs {
		if ev.ID == id {
			return ev, nil
		}
	}
	return model.Event{}, ErrNotFound
}

// Create assigns id max+1 (1 for an empty list).
func (b *LocalBackend) Create(ctx context.Context, ev model.Event) (model.Event, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	evs, err := b.load(ctx)
	if err != nil {
		return model.Event{}, err
	}

	next := 1
	for _, e := range evs {
		if e.ID >= next {
			next = e.ID + 1
		}
	}
	ev.ID = next
	if ev.AdminID == 0 {
		ev.AdminID = 1
	}

	if err := b.save(ctx, append(evs, ev)); err != nil {
		return model.Event{}, err
	}
	return ev, nil
}

func (b *LocalBackend) Update(ctx context.Context, id int, p Patch) (model.Event, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	evs, err := b.load(ctx)
	if err != nil {
		return model.Event{}, err
	}

	for i := range evs {
		if evs[i].ID != id {
			continue
		}
		if p.Date != nil {
			evs[i].Date = *p.Date
		}
		if p.Location != nil {
			evs[i].Location = *p.Location
		}
		if err := b.save(ctx, evs); err != nil {
			return model.Event{}, err
		}
		return evs[i], nil
	}
	return model.Event{}, ErrNotFound
}

func (b *LocalBackend) Delete(ctx context.Context, id int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	evs, err := b.load(ctx)
	if err != nil {
		return err
	}

	kept := evs[:0]
	for _, ev := range evs {
		if ev.ID != id {
			kept = append(kept, ev)
		}
	}
	if len(kept) == len(evs) {
		return ErrNotFound
	}
	return b.save(ctx, kept)
}

// Reset restores the seed list.
func (b *LocalBackend) Reset(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.save(ctx, InitialEvents())
}
