package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventdash/internal/api"
	"eventdash/internal/events"
	"eventdash/internal/form"
	"eventdash/internal/notify"
	"eventdash/internal/session"
	"eventdash/internal/storage"
)

type fixture struct {
	srv  *Server
	http *httptest.Server
	rec  *notify.Recorder
	sess *session.Manager
	cli  *api.Client
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := OpenStore(filepath.Join(t.TempDir(), "server.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	rec := &notify.Recorder{}
	srv, err := NewServer(store, Options{Secret: []byte("test-secret"), Publisher: rec})
	require.NoError(t, err)

	hs := httptest.NewServer(srv.Handler())
	t.Cleanup(hs.Close)

	sess := session.NewManager(storage.NewMemoryStore())
	return &fixture{srv: srv, http: hs, rec: rec, sess: sess, cli: api.New(hs.URL, 5*time.Second, sess)}
}

func (f *fixture) signIn(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	_, err := f.cli.Register(ctx, api.RegisterRequest{Name: "Ana", Email: "ana@x.io", Password: "Secret#12"})
	require.NoError(t, err)
	resp, err := f.cli.Login(ctx, "ana@x.io", "Secret#12")
	require.NoError(t, err)
	require.NoError(t, f.sess.SignIn(ctx, resp.Token, resp.User))
}

func TestNewServerNeedsSecret(t *testing.T) {
	_, err := NewServer(nil, Options{})
	assert.Error(t, err)
}

func TestHealthIsPublic(t *testing.T) {
	f := newFixture(t)
	resp, err := http.Get(f.http.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestCORSHonorsAllowedOrigins(t *testing.T) {
	store, err := OpenStore(filepath.Join(t.TempDir(), "server.db"))
	require.NoError(t, err)
	defer store.Close()

	srv, err := NewServer(store, Options{Secret: []byte("k"), AllowedOrigins: []string{"https://app.example"}})
	require.NoError(t, err)

	for origin, want := range map[string]string{
		"https://app.example":  "https://app.example",
		"https://evil.example": "",
	} {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", origin)
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, want, rec.Header().Get("Access-Control-Allow-Origin"), origin)
	}
}

func TestRegisterValidationAndDuplicates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.cli.Register(ctx, api.RegisterRequest{Name: "Ana", Email: "ana@x.io", Password: "fraca"})
	require.Error(t, err)
	assert.Contains(t, api.UserMessage(err, ""), "mínimo 8 caracteres")

	_, err = f.cli.Register(ctx, api.RegisterRequest{Name: "Ana", Email: "ana@x.io", Password: "Secret#12"})
	require.NoError(t, err)
	_, err = f.cli.Register(ctx, api.RegisterRequest{Name: "Ana 2", Email: "ANA@x.io", Password: "Secret#12"})
	require.Error(t, err)
	assert.Equal(t, "E-mail já cadastrado", api.UserMessage(err, ""))
}

func TestLoginRejectsBadPassword(t *testing.T) {
	f := newFixture(t)
	f.signIn(t)

	_, err := f.cli.Login(context.Background(), "ana@x.io", "Wrong#123")
	require.Error(t, err)
	assert.True(t, api.IsAuth(err))
	assert.True(t, f.sess.Signed(), "failed login must not clear the session")
}

func TestEventsRequireToken(t *testing.T) {
	f := newFixture(t)
	_, err := f.cli.ListEvents(context.Background())
	require.Error(t, err)
	assert.True(t, api.IsAuth(err))
}

func TestInvalidTokenClearsClientSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.signIn(t)

	u, _ := f.sess.User()
	require.NoError(t, f.sess.SignIn(ctx, "forged", u))

	_, err := f.cli.ListEvents(ctx)
	require.Error(t, err)
	assert.True(t, api.IsAuth(err))
	assert.False(t, f.sess.Signed())
}

func TestEventLifecycleThroughService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.signIn(t)

	svc := events.NewService(events.NewRemoteBackend(f.cli),
		events.WithLocation(time.UTC),
		events.WithClock(func() time.Time { return time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC) }),
		events.WithAdminID(f.sess.AdminID),
	)

	created, err := svc.Create(ctx, form.EventForm{
		Title: "Show", Day: "25", Month: "03", Year: "2026",
		Location: "Arena", ImageURL: "https://img.example/show.png",
	})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	evs, err := svc.Refresh(ctx)
	require.NoError(t, err)
	require.Len(t, evs, 1)
	assert.Equal(t, "2026-03-25", evs[0].Date)
	assert.Equal(t, "Show", evs[0].Title)
	assert.True(t, svc.HasEventOnDay(2026, 3, 25))

	up, err := svc.Update(ctx, created.ID, form.EventForm{Day: "2", Month: "4", Year: "2026", Location: "Estádio"})
	require.NoError(t, err)
	assert.Equal(t, "2026-04-02", up.Date)
	assert.Equal(t, "Estádio", up.Location)
	assert.Equal(t, "Show", up.Title)

	require.NoError(t, svc.Delete(ctx, created.ID))
	err = svc.Delete(ctx, created.ID)
	assert.ErrorIs(t, err, events.ErrNotFound)

	changes := f.rec.Changes()
	require.Len(t, changes, 3)
	assert.Equal(t, notify.ActionCreated, changes[0].Action)
	assert.Equal(t, notify.ActionUpdated, changes[1].Action)
	assert.Equal(t, notify.ActionDeleted, changes[2].Action)
}

func TestCreateRejectsBadDate(t *testing.T) {
	f := newFixture(t)
	f.signIn(t)

	_, err := f.cli.CreateEvent(context.Background(), api.EventPayload{Name: "X", Date: "31/02/2026"})
	require.Error(t, err)
	assert.Equal(t, "Data inválida", api.UserMessage(err, ""))
}

func TestSeedNormalizesDates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	n, err := f.srv.Seed(ctx, events.InitialEvents())
	require.NoError(t, err)
	assert.Equal(t, 10, n)

	n, err = f.srv.Seed(ctx, events.InitialEvents())
	require.NoError(t, err)
	assert.Zero(t, n)

	f.signIn(t)
	evs, err := f.cli.ListEvents(ctx)
	require.NoError(t, err)
	require.Len(t, evs, 10)
	assert.Equal(t, "2026-01-15", evs[0].Date)
	assert.Equal(t, "2026-03-25", evs[9].Date)
}
