// Package notify announces event changes made through the local backend.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	appLog "eventdash/internal/log"
)

// Actions carried in Change.Action.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// Change is the message published for every event write.
type Change struct {
	Action  string    `json:"action"`
	EventID int       `json:"eventId"`
	Date    string    `json:"date,omitempty"`
	At      time.Time `json:"at"`
}

// Publisher delivers changes. Publish failures are reported but must not
// fail the write that caused them.
type Publisher interface {
	Publish(ctx context.Context, c Change) error
	Close() error
}

// Nop drops every change.
type Nop struct{}

func (Nop) Publish(context.Context, Change) error { return nil }
func (Nop) Close() error                          { return nil }

// Redis publishes changes as JSON on a pub/sub channel.
type Redis struct {
	client  *redis.Client
	channel string
}

// NewRedis connects to url (redis://...) and verifies it with PING.
func NewRedis(ctx context.Context, url, channel string) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("notify: invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("notify: redis ping: %w", err)
	}
	appLog.Info("notify: connected to redis", "addr", opts.Addr, "channel", channel)
	return &Redis{client: client, channel: channel}, nil
}

func (r *Redis) Publish(ctx context.Context, c Change) error {
	payload, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("notify: encode change: %w", err)
	}
	if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
		return fmt.Errorf("notify: publish: %w", err)
	}
	return nil
}

// Subscribe calls fn for each change until ctx is done.
func (r *Redis) Subscribe(ctx context.Context, fn func(Change)) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var c Change
			if err := json.Unmarshal([]byte(msg.Payload), &c); err != nil {
				appLog.Warn("notify: dropping malformed message", "payload", msg.Payload)
				continue
			}
			fn(c)
		}
	}
}

func (r *Redis) Close() error {
	return r.client.Close()
}

// Recorder keeps published changes in memory.
type Recorder struct {
	mu      sync.Mutex
	changes []Change
}

func (r *Recorder) Publish(_ context.Context, c Change) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, c)
	return nil
}

func (r *Recorder) Close() error { return nil }

// Changes returns a copy of what was published.
func (r *Recorder) Changes() []Change {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Change(nil), r.changes...)
}
