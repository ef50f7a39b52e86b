// Package events is the event store the screens work against. A Backend
// is either the remote REST API or the on-device fallback list; Service
// keeps the last good snapshot and routes form input through validation
// before any backend call.
package events

import (
	"context"
	"errors"
	"fmt"

	"eventdash/internal/api"
	"eventdash/internal/model"
)

// ErrNotFound is returned when an event id does not exist. It is distinct
// from transport and server failures.
var ErrNotFound = errors.New("events: event not found")

// ErrUnsupported is returned by operations the active backend cannot do.
var ErrUnsupported = errors.New("events: operation not supported by backend")

// Patch carries the editable fields of an existing event. Nil means "keep".
type Patch struct {
	Date     *string
	Location *string
}

// Backend is an event source.
type Backend interface {
	List(ctx context.Context) ([]model.Event, error)
	Create(ctx context.Context, ev model.Event) (model.Event, error)
	Update(ctx context.Context, id int, p Patch) (model.Event, error)
	// Delete returns an error matching ErrNotFound for a missing id.
	Delete(ctx context.Context, id int) error
}

// Resetter is implemented by backends that can restore their seed data.
type Resetter interface {
	Reset(ctx context.Context) error
}

// RemoteBackend adapts api.Client to Backend.
type RemoteBackend struct {
	client *api.Client
}

func NewRemoteBackend(c *api.Client) *RemoteBackend {
	return &RemoteBackend{client: c}
}

func (b *RemoteBackend) List(ctx context.Context) ([]model.Event, error) {
	return b.client.ListEvents(ctx)
}

func (b *RemoteBackend) Create(ctx context.Context, ev model.Event) (model.Event, error) {
	created, err := b.client.CreateEvent(ctx, api.EventPayload{
		Name:     ev.Title,
		Date:     ev.Date,
		Location: ev.Location,
		Image:    ev.ImageURL,
	})
	if err != nil {
		return model.Event{}, err
	}
	// Some servers echo a bare {id}; fill in what we sent.
	if created.Title == "" {
		id := created.ID
		created = ev
		created.ID = id
	}
	return created, nil
}

func (b *RemoteBackend) Update(ctx context.Context, id int, p Patch) (model.Event, error) {
	ev, err := b.client.UpdateEvent(ctx, id, api.EventPatch{Date: p.Date, Location: p.Location})
	if errors.Is(err, api.ErrNotFound) {
		return model.Event{}, fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return ev, err
}

func (b *RemoteBackend) Delete(ctx context.Context, id int) error {
	err := b.client.DeleteEvent(ctx, id)
	if errors.Is(err, api.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return err
}
