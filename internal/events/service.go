package events

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"eventdash/internal/calendar"
	"eventdash/internal/dates"
	"eventdash/internal/form"
	appLog "eventdash/internal/log"
	"eventdash/internal/model"
)

// Service owns the in-memory snapshot the screens render from.
//
// A failed Refresh keeps the previous snapshot. Create and Update validate
// the form first and never call the backend on a validation error.
type Service struct {
	backend Backend
	loc     *time.Location
	now     func() time.Time
	adminID func() int

	mu     sync.RWMutex
	events []model.Event
	index  *calendar.Index
	loaded bool
}

// Option configures a Service.
type Option func(*Service)

// WithLocation sets the timezone that decides "today".
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.loc = loc }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithAdminID supplies the owner id stamped on created events.
func WithAdminID(f func() int) Option {
	return func(s *Service) { s.adminID = f }
}

func NewService(b Backend, opts ...Option) *Service {
	s := &Service{
		backend: b,
		loc:     time.Local,
		now:     time.Now,
		adminID: func() int { return 1 },
		index:   calendar.NewIndex(nil),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Today is the current day in the service's timezone.
func (s *Service) Today() model.Date {
	return dates.FromTime(s.now(), s.loc)
}

// Refresh reloads the snapshot from the backend.
func (s *Service) Refresh(ctx context.Context) ([]model.Event, error) {
	evs, err := s.backend.List(ctx)
	if err != nil {
		appLog.Error("events refresh failed; keeping previous snapshot", err)
		return s.Events(), err
	}

	s.mu.Lock()
	s.setLocked(evs)
	s.mu.Unlock()

	appLog.Debug("events refreshed", "count", len(evs))
	return s.Events(), nil
}

func (s *Service) setLocked(evs []model.Event) {
	s.events = slices.Clone(evs)
	s.index.Rebuild(s.events)
	s.loaded = true
}

// Events returns a copy of the last good snapshot.
func (s *Service) Events() []model.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.events)
}

// Loaded reports whether at least one Refresh succeeded.
func (s *Service) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// HasEventOnDay queries the snapshot.
func (s *Service) HasEventOnDay(year, month, day int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.HasEventOnDay(year, month, day)
}

// EventsOnDay queries the snapshot.
func (s *Service) EventsOnDay(year, month, day int) []model.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.EventsOnDay(year, month, day)
}

// Get finds an event in the snapshot, refreshing once if it is missing.
func (s *Service) Get(ctx context.Context, id int) (model.Event, error) {
	if ev, ok := s.find(id); ok {
		return ev, nil
	}
	if _, err := s.Refresh(ctx); err != nil {
		return model.Event{}, err
	}
	if ev, ok := s.find(id); ok {
		return ev, nil
	}
	return model.Event{}, ErrNotFound
}

func (s *Service) find(id int) (model.Event, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ev := range s.events {
		if ev.ID == id {
			return ev, true
		}
	}
	return model.Event{}, false
}

// Create validates f and creates the event. The date is sent as YYYY-MM-DD.
func (s *Service) Create(ctx context.Context, f form.EventForm) (model.Event, error) {
	d, err := f.Validate(false, s.Today())
	if err != nil {
		return model.Event{}, err
	}

	ev := model.Event{
		Title:    strings.TrimSpace(f.Title),
		Date:     dates.FormatISO(d),
		Location: strings.TrimSpace(f.Location),
		ImageURL: strings.TrimSpace(f.ImageURL),
		AdminID:  s.adminID(),
	}
	created, err := s.backend.Create(ctx, ev)
	if err != nil {
		return model.Event{}, fmt.Errorf("events: create: %w", err)
	}

	s.mu.Lock()
	s.setLocked(append(s.events, created))
	s.mu.Unlock()

	appLog.Info("event created", "id", created.ID, "date", created.Date)
	return created, nil
}

// Update changes date and location of event id. Other form fields are
// ignored.
func (s *Service) Update(ctx context.Context, id int, f form.EventForm) (model.Event, error) {
	d, err := f.Validate(true, s.Today())
	if err != nil {
		return model.Event{}, err
	}

	date := dates.FormatISO(d)
	loc := strings.TrimSpace(f.Location)
	updated, err := s.backend.Update(ctx, id, Patch{Date: &date, Location: &loc})
	if err != nil {
		return model.Event{}, fmt.Errorf("events: update %d: %w", id, err)
	}
	// An empty echo (204 or {}) means the patch applied to the known copy.
	if updated.ID == 0 {
		prev, _ := s.find(id)
		updated = prev
		updated.ID = id
		updated.Date = date
		updated.Location = loc
	}

	s.mu.Lock()
	next := slices.Clone(s.events)
	for i := range next {
		if next[i].ID == id {
			next[i] = updated
		}
	}
	s.setLocked(next)
	s.mu.Unlock()

	appLog.Info("event updated", "id", id, "date", updated.Date)
	return updated, nil
}

// Delete removes event id. A missing id yields an error matching
// ErrNotFound.
func (s *Service) Delete(ctx context.Context, id int) error {
	if err := s.backend.Delete(ctx, id); err != nil {
		return fmt.Errorf("events: delete %d: %w", id, err)
	}

	s.mu.Lock()
	s.setLocked(slices.DeleteFunc(slices.Clone(s.events), func(ev model.Event) bool { return ev.ID == id }))
	s.mu.Unlock()

	appLog.Info("event deleted", "id", id)
	return nil
}

// Reset restores the seed list when the backend supports it.
func (s *Service) Reset(ctx context.Context) error {
	r, ok := s.backend.(Resetter)
	if !ok {
		return ErrUnsupported
	}
	if err := r.Reset(ctx); err != nil {
		return fmt.Errorf("events: reset: %w", err)
	}
	_, err := s.Refresh(ctx)
	return err
}

// Import creates events produced elsewhere (an iCalendar feed), skipping
// ones whose title and day already exist and ones with unreadable dates.
// Past dates are accepted. It returns how many were created.
func (s *Service) Import(ctx context.Context, incoming []model.Event) (int, error) {
	if _, err := s.Refresh(ctx); err != nil {
		return 0, err
	}

	type key struct {
		title string
		day   model.Date
	}
	seen := map[key]bool{}
	for _, ev := range s.Events() {
		if d, err := dates.Parse(ev.Date); err == nil {
			seen[key{strings.ToLower(ev.Title), d}] = true
		}
	}

	created := 0
	for _, ev := range incoming {
		d, err := dates.Parse(ev.Date)
		if err != nil {
			appLog.Warn("import: skipping event with bad date", "title", ev.Title, "date", ev.Date)
			continue
		}
		k := key{strings.ToLower(ev.Title), d}
		if seen[k] {
			continue
		}
		ev.ID = 0
		ev.Date = dates.FormatISO(d)
		if ev.AdminID == 0 {
			ev.AdminID = s.adminID()
		}
		if _, err := s.backend.Create(ctx, ev); err != nil {
			return created, fmt.Errorf("events: import %q: %w", ev.Title, err)
		}
		seen[k] = true
		created++
	}

	if created > 0 {
		if _, err := s.Refresh(ctx); err != nil {
			return created, err
		}
	}
	appLog.Info("import finished", "created", created, "received", len(incoming))
	return created, nil
}
