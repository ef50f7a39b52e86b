// Package session holds the authenticated state of the client: the bearer
// token, the signed-in user snapshot and optionally remembered credentials.
// A Manager is created once and injected into whatever needs it.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	appLog "eventdash/internal/log"
	"eventdash/internal/model"
	"eventdash/internal/storage"
)

// Storage keys.
const (
	KeyToken        = "token"
	KeyUser         = "user_data"
	KeyAdminID      = "adminId"
	KeyUserName     = "userName"
	KeyUserEmail    = "userEmail"
	KeyUserPassword = "userPassword"
	KeyRemember     = "rememberPassword"
)

const bearerPrefix = "Bearer "

// Credentials are the remembered login fields.
type Credentials struct {
	Email    string
	Password string
}

// Manager owns the session lifecycle: Load, SignIn, Clear, SignOut.
type Manager struct {
	kv storage.KV

	mu    sync.RWMutex
	token string
	user  *model.User
}

func NewManager(kv storage.KV) *Manager {
	return &Manager{kv: kv}
}

// FormatBearer prefixes token with "Bearer " unless it already has it.
func FormatBearer(token string) string {
	token = strings.TrimSpace(token)
	if token == "" || strings.HasPrefix(token, bearerPrefix) {
		return token
	}
	return bearerPrefix + token
}

// Load restores a persisted session. A session is restored only when both
// the token and the user snapshot are present.
func (m *Manager) Load(ctx context.Context) error {
	tok, err := m.kv.Get(ctx, KeyToken)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("session: load token: %w", err)
	}
	raw, err := m.kv.Get(ctx, KeyUser)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("session: load user: %w", err)
	}

	var u model.User
	if err := json.Unmarshal(raw, &u); err != nil {
		return fmt.Errorf("session: decode user: %w", err)
	}

	m.mu.Lock()
	m.token = FormatBearer(string(tok))
	m.user = &u
	m.mu.Unlock()

	appLog.Debug("session restored", "user_id", u.ID)
	return nil
}

// SignIn records a successful login in memory and in storage.
func (m *Manager) SignIn(ctx context.Context, token string, user model.User) error {
	formatted := FormatBearer(token)
	if formatted == "" {
		return errors.New("session: empty token")
	}

	raw, err := json.Marshal(user)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.token = formatted
	m.user = &user
	m.mu.Unlock()

	writes := []struct {
		key string
		val string
	}{
		{KeyUser, string(raw)},
		{KeyToken, formatted},
		{KeyAdminID, strconv.Itoa(user.ID)},
		{KeyUserName, user.Name},
		{KeyUserEmail, user.Email},
	}
	for _, w := range writes {
		if err := m.kv.Set(ctx, w.key, []byte(w.val)); err != nil {
			return fmt.Errorf("session: persist %s: %w", w.key, err)
		}
	}

	appLog.Info("signed in", "user_id", user.ID, "email", user.Email)
	return nil
}

// Clear drops the token and user snapshot but keeps remembered credentials
// and cached data. Used when the API rejects the token.
func (m *Manager) Clear(ctx context.Context) error {
	m.mu.Lock()
	m.token = ""
	m.user = nil
	m.mu.Unlock()

	var errs []error
	for _, k := range []string{KeyToken, KeyUser} {
		if err := m.kv.Delete(ctx, k); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SignOut wipes all local state.
func (m *Manager) SignOut(ctx context.Context) error {
	m.mu.Lock()
	m.token = ""
	m.user = nil
	m.mu.Unlock()

	appLog.Info("signed out")
	return m.kv.Clear(ctx)
}

// Token returns the bearer header value, or "" when signed out.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

// User returns the signed-in user.
func (m *Manager) User() (model.User, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return model.User{}, false
	}
	return *m.user, true
}

// Signed reports whether a user is signed in.
func (m *Manager) Signed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user != nil && m.token != ""
}

// AdminID is the id new events are attributed to. It falls back to 1 when
// nobody is signed in, matching the seed data.
func (m *Manager) AdminID() int {
	if u, ok := m.User(); ok && u.ID != 0 {
		return u.ID
	}
	return 1
}

// Remember stores the login fields for pre-filling the next login. The
// password is stored only when non-empty.
func (m *Manager) Remember(ctx context.Context, c Credentials) error {
	if err := m.kv.Set(ctx, KeyUserEmail, []byte(c.Email)); err != nil {
		return err
	}
	if c.Password == "" {
		return m.kv.Delete(ctx, KeyUserPassword)
	}
	if err := m.kv.Set(ctx, KeyUserPassword, []byte(c.Password)); err != nil {
		return err
	}
	return m.kv.Set(ctx, KeyRemember, []byte("true"))
}

// Remembered returns the remembered login fields, if any.
func (m *Manager) Remembered(ctx context.Context) (Credentials, bool) {
	email, err := m.kv.Get(ctx, KeyUserEmail)
	if err != nil {
		return Credentials{}, false
	}
	c := Credentials{Email: string(email)}
	if flag, err := m.kv.Get(ctx, KeyRemember); err == nil && string(flag) == "true" {
		if pw, err := m.kv.Get(ctx, KeyUserPassword); err == nil {
			c.Password = string(pw)
		}
	}
	return c, true
}

// Forget drops the remembered password; the e-mail stays for convenience.
func (m *Manager) Forget(ctx context.Context) error {
	return errors.Join(
		m.kv.Delete(ctx, KeyUserPassword),
		m.kv.Delete(ctx, KeyRemember),
	)
}
