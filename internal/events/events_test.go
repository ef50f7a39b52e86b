package events

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventdash/internal/api"
	"eventdash/internal/dates"
	"eventdash/internal/form"
	"eventdash/internal/model"
	"eventdash/internal/storage"
)

// countingBackend records calls and can be told to fail.
type countingBackend struct {
	*LocalBackend
	calls   int
	listErr error
}

func (c *countingBackend) List(ctx context.Context) ([]model.Event, error) {
	c.calls++
	if c.listErr != nil {
		return nil, c.listErr
	}
	return c.LocalBackend.List(ctx)
}

func (c *countingBackend) Create(ctx context.Context, ev model.Event) (model.Event, error) {
	c.calls++
	return c.LocalBackend.Create(ctx, ev)
}

func (c *countingBackend) Update(ctx context.Context, id int, p Patch) (model.Event, error) {
	c.calls++
	return c.LocalBackend.Update(ctx, id, p)
}

func fixedClock() time.Time {
	return time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
}

func newTestService(t *testing.T) (*Service, *countingBackend) {
	t.Helper()
	b := &countingBackend{LocalBackend: NewLocalBackend(storage.NewMemoryStore())}
	s := NewService(b, WithLocation(time.UTC), WithClock(fixedClock), WithAdminID(func() int { return 7 }))
	return s, b
}

func TestLocalBackendSeedsOnce(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryStore()
	b := NewLocalBackend(kv)

	evs, err := b.List(ctx)
	require.NoError(t, err)
	require.Len(t, evs, 10)
	assert.Equal(t, "15/01/2026", evs[0].Date)

	require.NoError(t, b.Delete(ctx, 1))
	evs, err = NewLocalBackend(kv).List(ctx)
	require.NoError(t, err)
	assert.Len(t, evs, 9)
}

func TestLocalBackendIDsAndNotFound(t *testing.T) {
	ctx := context.Background()
	b := NewLocalBackend(storage.NewMemoryStore())

	ev, err := b.Create(ctx, model.Event{Title: "Novo", Date: "2026-04-01"})
	require.NoError(t, err)
	assert.Equal(t, 11, ev.ID)
	assert.Equal(t, 1, ev.AdminID)

	assert.ErrorIs(t, b.Delete(ctx, 999), ErrNotFound)
	_, err = b.Update(ctx, 999, Patch{})
	assert.ErrorIs(t, err, ErrNotFound)

	loc := "Arena"
	up, err := b.Update(ctx, 11, Patch{Location: &loc})
	require.NoError(t, err)
	assert.Equal(t, "Novo", up.Title)
	assert.Equal(t, "Arena", up.Location)
	assert.Equal(t, 11, up.ID)

	require.NoError(t, b.Reset(ctx))
	_, err = b.Get(ctx, 11)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateRoundTripKeepsDate(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t)

	created, err := s.Create(ctx, form.EventForm{
		Title: "Show", Day: "25", Month: "3", Year: "2026",
		Location: "Arena", ImageURL: "https://img.example/x.png",
	})
	require.NoError(t, err)
	assert.Equal(t, "2026-03-25", created.Date)
	assert.Equal(t, 7, created.AdminID)

	_, err = s.Refresh(ctx)
	require.NoError(t, err)
	got, err := s.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.Date{Year: 2026, Month: 3, Day: 25}, dates.MustParse(got.Date))
	assert.True(t, s.HasEventOnDay(2026, 3, 25))
}

func TestValidationNeverReachesBackend(t *testing.T) {
	ctx := context.Background()
	s, b := newTestService(t)

	_, err := s.Create(ctx, form.EventForm{Title: "", Day: "1", Month: "1", Year: "2020"})
	require.Error(t, err)
	assert.ErrorIs(t, err, form.ErrValidation)
	assert.Equal(t, 0, b.calls)

	_, err = s.Update(ctx, 1, form.EventForm{Day: "31", Month: "2", Year: "2026", Location: "x"})
	assert.ErrorIs(t, err, form.ErrValidation)
	assert.Equal(t, 0, b.calls)
}

func TestUpdateOnlyTouchesDateAndLocation(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t)
	_, err := s.Refresh(ctx)
	require.NoError(t, err)

	up, err := s.Update(ctx, 2, form.EventForm{
		Title: "ignored", Day: "1", Month: "4", Year: "2026", Location: "Niterói",
	})
	require.NoError(t, err)
	assert.Equal(t, "Workshop de Inovação Tecnológica", up.Title)
	assert.Equal(t, "2026-04-01", up.Date)
	assert.Equal(t, "Niterói", up.Location)
	assert.True(t, s.HasEventOnDay(2026, 4, 1))
	assert.False(t, s.HasEventOnDay(2026, 1, 22))
}

func TestRefreshFailureKeepsSnapshot(t *testing.T) {
	ctx := context.Background()
	s, b := newTestService(t)
	b.listErr = errors.New("offline")
	_, err := s.Refresh(ctx)
	require.Error(t, err)
	assert.False(t, s.Loaded())

	b.listErr = nil
	_, err = s.Refresh(ctx)
	require.NoError(t, err)
	assert.True(t, s.Loaded())

	b.listErr = errors.New("boom")
	evs, err := s.Refresh(ctx)
	require.Error(t, err)
	assert.Len(t, evs, 10)
	assert.Len(t, s.Events(), 10)
	assert.True(t, s.Loaded())
}

func TestDeleteNotFoundDistinctFromFailures(t *testing.T) {
	ctx := context.Background()

	notFound := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer notFound.Close()
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer broken.Close()

	err := NewService(NewRemoteBackend(api.New(notFound.URL, 0, nil))).Delete(ctx, 42)
	assert.ErrorIs(t, err, ErrNotFound)

	err = NewService(NewRemoteBackend(api.New(broken.URL, 0, nil))).Delete(ctx, 42)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)

	gone := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := gone.URL
	gone.Close()
	err = NewService(NewRemoteBackend(api.New(url, 0, nil))).Delete(ctx, 42)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.True(t, api.IsNetwork(err))
}

func TestUpdateWithEmptyEchoKeepsEvent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`[{"id":5,"name":"Feira","date":"2026-02-01","location":"Centro"}]`))
		case http.MethodPut:
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	s := NewService(NewRemoteBackend(api.New(srv.URL, 0, nil)), WithClock(fixedClock), WithLocation(time.UTC))
	_, err := s.Refresh(ctx)
	require.NoError(t, err)

	ev, err := s.Get(ctx, 5)
	require.NoError(t, err)
	f := form.EventFormFor(ev)
	f.Day, f.Month, f.Year = "10", "3", "2026"
	f.Location = "Praça"

	up, err := s.Update(ctx, 5, f)
	require.NoError(t, err)
	assert.Equal(t, 5, up.ID)
	assert.Equal(t, "Feira", up.Title)
	assert.Equal(t, "2026-03-10", up.Date)
	assert.Equal(t, "Praça", up.Location)

	evs := s.Events()
	require.Len(t, evs, 1)
	assert.Equal(t, up, evs[0])
	assert.True(t, s.HasEventOnDay(2026, 3, 10))
}

func TestResetUnsupportedOnRemote(t *testing.T) {
	s := NewService(NewRemoteBackend(api.New("http://127.0.0.1:1", 0, nil)))
	assert.ErrorIs(t, s.Reset(context.Background()), ErrUnsupported)
}

func TestImportSkipsDuplicatesAndBadDates(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t)

	n, err := s.Import(ctx, []model.Event{
		{Title: "Reunião Executiva Q1 2026", Date: "2026-01-15"},
		{Title: "Feriado", Date: "2025-12-25"},
		{Title: "Quebrado", Date: "não é data"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.True(t, s.HasEventOnDay(2025, 12, 25))
	assert.Len(t, s.Events(), 11)
}
