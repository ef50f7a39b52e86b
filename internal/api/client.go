package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	appLog "eventdash/internal/log"
	"eventdash/internal/model"
	"eventdash/internal/session"
)

const maxBodyBytes = 1 << 20

// Client talks to the events REST API. Every request after login carries
// the session's bearer token; a 401/403 on any call except login clears
// the session.
type Client struct {
	baseURL string
	client  *http.Client
	session *session.Manager
}

// New creates a Client. sess may be nil for unauthenticated use.
func New(baseURL string, timeout time.Duration, sess *session.Manager) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		session: sess,
	}
}

// EventPayload is the body of POST /events.
type EventPayload struct {
	Name     string `json:"name"`
	Date     string `json:"date"`
	Location string `json:"location"`
	Image    string `json:"image"`
}

// EventPatch is the body of PUT /events/{id}. Only date and location are
// editable.
type EventPatch struct {
	Date     *string `json:"date,omitempty"`
	Location *string `json:"location,omitempty"`
}

// RemoteEvent is the event shape returned by the API. Older backends use
// title/imageUrl instead of name/image; both are accepted.
type RemoteEvent struct {
	ID          int    `json:"id"`
	Name        string `json:"name,omitempty"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Date        string `json:"date"`
	Location    string `json:"location,omitempty"`
	Image       string `json:"image,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`
	StartTime   string `json:"startTime,omitempty"`
	EndTime     string `json:"endTime,omitempty"`
	AdminID     int    `json:"adminId,omitempty"`
}

// Model converts the wire shape into a model.Event.
func (r RemoteEvent) Model() model.Event {
	title := r.Name
	if title == "" {
		title = r.Title
	}
	img := r.Image
	if img == "" {
		img = r.ImageURL
	}
	return model.Event{
		ID:          r.ID,
		Title:       title,
		Description: r.Description,
		Date:        r.Date,
		Location:    r.Location,
		ImageURL:    img,
		StartTime:   r.StartTime,
		EndTime:     r.EndTime,
		AdminID:     r.AdminID,
	}
}

// RemoteFromModel is the inverse of RemoteEvent.Model, used by servers
// speaking this API.
func RemoteFromModel(ev model.Event) RemoteEvent {
	return RemoteEvent{
		ID:          ev.ID,
		Name:        ev.Title,
		Description: ev.Description,
		Date:        ev.Date,
		Location:    ev.Location,
		Image:       ev.ImageURL,
		StartTime:   ev.StartTime,
		EndTime:     ev.EndTime,
		AdminID:     ev.AdminID,
	}
}

// RegisterRequest is the body of POST /users.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the body of POST /users/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is returned by POST /users/login.
type LoginResponse struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

// ListEvents calls GET /events.
func (c *Client) ListEvents(ctx context.Context) ([]model.Event, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/events", nil, &raw); err != nil {
		return nil, err
	}

	var remote []RemoteEvent
	trimmed := bytes.TrimSpace(raw)
	switch {
	case len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")):
	case trimmed[0] == '[':
		if err := json.Unmarshal(trimmed, &remote); err != nil {
			return nil, fmt.Errorf("api: decode events: %w", err)
		}
	default:
		var wrapped struct {
			Events []RemoteEvent `json:"events"`
		}
		if err := json.Unmarshal(trimmed, &wrapped); err != nil {
			return nil, fmt.Errorf("api: decode events: %w", err)
		}
		remote = wrapped.Events
	}

	out := make([]model.Event, 0, len(remote))
	for _, r := range remote {
		out = append(out, r.Model())
	}
	return out, nil
}

// CreateEvent calls POST /events.
func (c *Client) CreateEvent(ctx context.Context, p EventPayload) (model.Event, error) {
	var r RemoteEvent
	if err := c.do(ctx, http.MethodPost, "/events", p, &r); err != nil {
		return model.Event{}, err
	}
	return r.Model(), nil
}

// UpdateEvent calls PUT /events/{id}.
func (c *Client) UpdateEvent(ctx context.Context, id int, p EventPatch) (model.Event, error) {
	var r RemoteEvent
	if err := c.do(ctx, http.MethodPut, "/events/"+strconv.Itoa(id), p, &r); err != nil {
		return model.Event{}, err
	}
	return r.Model(), nil
}

// DeleteEvent calls DELETE /events/{id}. A missing id yields an error
// matching ErrNotFound.
func (c *Client) DeleteEvent(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, "/events/"+strconv.Itoa(id), nil, nil)
}

// Register calls POST /users.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (model.User, error) {
	var u model.User
	if err := c.do(ctx, http.MethodPost, "/users", req, &u); err != nil {
		return model.User{}, err
	}
	return u, nil
}

// Login calls POST /users/login. A rejected login returns *AuthError and
// leaves the session untouched.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResponse, error) {
	var resp LoginResponse
	if err := c.do(ctx, http.MethodPost, "/users/login", LoginRequest{Email: email, Password: password}, &resp); err != nil {
		return LoginResponse{}, err
	}
	if resp.Token == "" {
		return LoginResponse{}, &ServerError{Op: "POST /users/login", Status: http.StatusOK, Message: "login response without token"}
	}
	return resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	op := method + " " + path

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("api: %s: encode body: %w", op, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("api: %s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.session != nil {
		if tok := c.session.Token(); tok != "" {
			req.Header.Set("Authorization", tok)
		}
	}

	appLog.Debug("api request", "op", op)

	resp, err := c.client.Do(req)
	if err != nil {
		appLog.Error("api request failed", err, "op", op)
		return &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		if !strings.Contains(path, "/login") && c.session != nil {
			if cerr := c.session.Clear(ctx); cerr != nil {
				appLog.Error("api: failed to clear session after auth error", cerr, "op", op)
			}
			appLog.Info("api: session cleared after auth error", "op", op, "status", resp.StatusCode)
		}
		return &AuthError{Op: op, Status: resp.StatusCode, Message: messageFrom(data)}

	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		appLog.Error("api non-2xx response", errors.New(resp.Status), "op", op, "status", resp.StatusCode)
		return &ServerError{Op: op, Status: resp.StatusCode, Message: messageFrom(data)}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("api: %s: decode response: %w", op, err)
	}
	return nil
}

// messageFrom extracts {"message": "..."} or {"error": "..."} from an error body.
func messageFrom(data []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}
	if body.Message != "" {
		return body.Message
	}
	return body.Error
}
