// Package server is a self-contained implementation of the events REST API
// used as the backend in fallback mode and in tests.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"eventdash/internal/api"
	"eventdash/internal/dates"
	"eventdash/internal/form"
	appLog "eventdash/internal/log"
	"eventdash/internal/model"
	"eventdash/internal/notify"
)

const maxRequestBytes = 1 << 20

// Options configures a Server.
type Options struct {
	// Secret signs HS256 bearer tokens. Required.
	Secret []byte
	// TokenTTL defaults to 24h.
	TokenTTL time.Duration
	// Publisher receives event changes; nil means notify.Nop.
	Publisher notify.Publisher
	// AllowedOrigins for CORS; empty allows any origin.
	AllowedOrigins []string
	// Now replaces time.Now.
	Now func() time.Time
}

// Server provides the HTTP API over a Store.
type Server struct {
	store  *Store
	opts   Options
	now    func() time.Time
	router *mux.Router
}

// NewServer constructs a new Server.
func NewServer(store *Store, opts Options) (*Server, error) {
	if len(opts.Secret) == 0 {
		return nil, errors.New("server: jwt secret is empty")
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 24 * time.Hour
	}
	if opts.Publisher == nil {
		opts.Publisher = notify.Nop{}
	}
	s := &Server{store: store, opts: opts, now: opts.Now, router: mux.NewRouter()}
	if s.now == nil {
		s.now = time.Now
	}
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.router.Use(s.requestID)

	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/users", s.handleRegister).Methods(http.MethodPost)
	s.router.HandleFunc("/users/login", s.handleLogin).Methods(http.MethodPost)

	ev := s.router.PathPrefix("/events").Subrouter()
	ev.Use(s.requireAuth)
	ev.HandleFunc("", s.handleListEvents).Methods(http.MethodGet)
	ev.HandleFunc("", s.handleCreateEvent).Methods(http.MethodPost)
	ev.HandleFunc("/{id:[0-9]+}", s.handleUpdateEvent).Methods(http.MethodPut)
	ev.HandleFunc("/{id:[0-9]+}", s.handleDeleteEvent).Methods(http.MethodDelete)

	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "Rota não encontrada")
	})
}

// Handler returns the router wrapped with CORS.
func (s *Server) Handler() http.Handler {
	origins := s.opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		ExposedHeaders: []string{"X-Request-ID"},
	}).Handler(s.router)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		appLog.Info("shutting down HTTP server")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// Seed fills an empty events table, normalizing dates to YYYY-MM-DD.
func (s *Server) Seed(ctx context.Context, evs []model.Event) (int, error) {
	norm := make([]model.Event, 0, len(evs))
	for _, ev := range evs {
		d, err := dates.Parse(ev.Date)
		if err != nil {
			continue
		}
		ev.Date = dates.FormatISO(d)
		norm = append(norm, ev)
	}
	return s.store.SeedIfEmpty(ctx, norm)
}

func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		appLog.Debug("http request", "id", id, "method", r.Method, "path", r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req api.RegisterRequest
	if !decodeBody(w, r, &req) {
		return
	}

	f := form.RegisterForm{Name: req.Name, Email: req.Email, Password: req.Password, Confirm: req.Password}
	if err := f.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, firstMessage(err))
		return
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		appLog.Error("password hash failed", err)
		writeError(w, http.StatusInternalServerError, "Erro interno")
		return
	}

	u, err := s.store.CreateUser(r.Context(), strings.TrimSpace(req.Name), strings.TrimSpace(req.Email), hash)
	switch {
	case errors.Is(err, ErrEmailTaken):
		writeError(w, http.StatusConflict, "E-mail já cadastrado")
		return
	case err != nil:
		appLog.Error("create user failed", err)
		writeError(w, http.StatusInternalServerError, "Erro interno")
		return
	}

	appLog.Info("user registered", "id", u.ID)
	writeJSON(w, http.StatusCreated, u)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req api.LoginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	rec, err := s.store.userByEmail(r.Context(), strings.TrimSpace(req.Email))
	if err != nil && !errors.Is(err, ErrNotFound) {
		appLog.Error("login lookup failed", err)
		writeError(w, http.StatusInternalServerError, "Erro interno")
		return
	}
	if err != nil || !checkPassword(rec.PasswordHash, req.Password) {
		writeError(w, http.StatusUnauthorized, "E-mail ou senha inválidos")
		return
	}

	tok, err := s.issueToken(rec.User)
	if err != nil {
		appLog.Error("token signing failed", err)
		writeError(w, http.StatusInternalServerError, "Erro interno")
		return
	}
	writeJSON(w, http.StatusOK, api.LoginResponse{Token: tok, User: rec.User})
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	evs, err := s.store.ListEvents(r.Context())
	if err != nil {
		appLog.Error("list events failed", err)
		writeError(w, http.StatusInternalServerError, "Erro ao carregar eventos")
		return
	}
	out := make([]api.RemoteEvent, 0, len(evs))
	for _, ev := range evs {
		out = append(out, api.RemoteFromModel(ev))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var req api.EventPayload
	if !decodeBody(w, r, &req) {
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeError(w, http.StatusBadRequest, "Título é obrigatório")
		return
	}
	d, err := dates.Parse(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Data inválida")
		return
	}

	ev := model.Event{
		Title:    name,
		Date:     dates.FormatISO(d),
		Location: strings.TrimSpace(req.Location),
		ImageURL: strings.TrimSpace(req.Image),
		AdminID:  1,
	}
	if u, ok := userFrom(r.Context()); ok {
		ev.AdminID = u.ID
	}

	created, err := s.store.CreateEvent(r.Context(), ev)
	if err != nil {
		appLog.Error("create event failed", err)
		writeError(w, http.StatusInternalServerError, "Erro ao criar evento")
		return
	}
	s.publish(r.Context(), notify.ActionCreated, created)
	writeJSON(w, http.StatusCreated, api.RemoteFromModel(created))
}

func (s *Server) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])

	var req api.EventPatch
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Date != nil {
		d, err := dates.Parse(*req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Data inválida")
			return
		}
		iso := dates.FormatISO(d)
		req.Date = &iso
	}
	if req.Location != nil {
		loc := strings.TrimSpace(*req.Location)
		if loc == "" {
			writeError(w, http.StatusBadRequest, "Local é obrigatório")
			return
		}
		req.Location = &loc
	}

	updated, err := s.store.UpdateEvent(r.Context(), id, req.Date, req.Location)
	switch {
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "Evento não encontrado")
		return
	case err != nil:
		appLog.Error("update event failed", err, "id", id)
		writeError(w, http.StatusInternalServerError, "Erro ao atualizar evento")
		return
	}
	s.publish(r.Context(), notify.ActionUpdated, updated)
	writeJSON(w, http.StatusOK, api.RemoteFromModel(updated))
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])

	err := s.store.DeleteEvent(r.Context(), id)
	switch {
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "Evento não encontrado")
		return
	case err != nil:
		appLog.Error("delete event failed", err, "id", id)
		writeError(w, http.StatusInternalServerError, "Erro ao excluir evento")
		return
	}
	s.publish(r.Context(), notify.ActionDeleted, model.Event{ID: id})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) publish(ctx context.Context, action string, ev model.Event) {
	c := notify.Change{Action: action, EventID: ev.ID, Date: ev.Date, At: s.now().UTC()}
	if err := s.opts.Publisher.Publish(ctx, c); err != nil {
		appLog.Error("publish change failed", err, "action", action, "id", ev.ID)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "JSON inválido")
		return false
	}
	return true
}

// firstMessage picks one field message from a validation error, in a
// fixed field order.
func firstMessage(err error) string {
	var ve *form.ValidationError
	if !errors.As(err, &ve) {
		return err.Error()
	}
	for _, f := range []string{form.FieldName, form.FieldEmail, form.FieldPassword, form.FieldConfirm} {
		if msg, ok := ve.Fields[f]; ok {
			return msg
		}
	}
	return form.SummaryMessage
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Message string `json:"message"`
	}
	writeJSON(w, status, errResp{Message: msg})
}
