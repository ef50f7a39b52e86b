package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mattn/go-sqlite3"

	"eventdash/internal/model"
)

var (
	// ErrNotFound is returned for unknown event ids and emails.
	ErrNotFound = errors.New("server: not found")
	// ErrEmailTaken is returned when registering an existing email.
	ErrEmailTaken = errors.New("server: email already registered")
)

// Store is the SQLite persistence of the local backend.
type Store struct {
	db *sql.DB
}

// userRecord is a users row including the password hash.
type userRecord struct {
	model.User
	PasswordHash []byte
}

// OpenStore opens (and migrates) the database at path.
func OpenStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("server: create db dir: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("server: open db: %w", err)
	}
	// SQLite allows one writer; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("server: ping db: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("server: migrate: %w", err)
	}
	return &Store{db: db}, nil
}

func migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE COLLATE NOCASE,
			password_hash BLOB NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			date TEXT NOT NULL,
			location TEXT NOT NULL DEFAULT '',
			image TEXT NOT NULL DEFAULT '',
			start_time TEXT NOT NULL DEFAULT '',
			end_time TEXT NOT NULL DEFAULT '',
			admin_id INTEGER NOT NULL DEFAULT 1,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_date ON events(date)`,
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, s := range stmts {
		if _, err := tx.Exec(s); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) CreateUser(ctx context.Context, name, email string, hash []byte) (model.User, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (name, email, password_hash) VALUES (?, ?, ?)`, name, email, hash)
	if err != nil {
		var se sqlite3.Error
		if errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique {
			return model.User{}, ErrEmailTaken
		}
		return model.User{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.User{}, err
	}
	return model.User{ID: int(id), Name: name, Email: email}, nil
}

func (s *Store) userByEmail(ctx context.Context, email string) (userRecord, error) {
	var u userRecord
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash FROM users WHERE email = ?`, email,
	).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return userRecord{}, ErrNotFound
	}
	return u, err
}

const eventColumns = `id, name, description, date, location, image, start_time, end_time, admin_id`

func scanEvent(row interface{ Scan(...any) error }) (model.Event, error) {
	var ev model.Event
	err := row.Scan(&ev.ID, &ev.Title, &ev.Description, &ev.Date, &ev.Location,
		&ev.ImageURL, &ev.StartTime, &ev.EndTime, &ev.AdminID)
	return ev, err
}

// ListEvents returns all events ordered by date, then id.
func (s *Store) ListEvents(ctx context.Context) ([]model.Event, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+eventColumns+` FROM events ORDER BY date, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Event, 0)
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (s *Store) GetEvent(ctx context.Context, id int) (model.Event, error) {
	ev, err := scanEvent(s.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Event{}, ErrNotFound
	}
	return ev, err
}

func (s *Store) CreateEvent(ctx context.Context, ev model.Event) (model.Event, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO events (name, description, date, location, image, start_time, end_time, admin_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.Title, ev.Description, ev.Date, ev.Location, ev.ImageURL, ev.StartTime, ev.EndTime, ev.AdminID)
	if err != nil {
		return model.Event{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Event{}, err
	}
	ev.ID = int(id)
	return ev, nil
}

// UpdateEvent changes date and/or location. Nil leaves the column as is.
func (s *Store) UpdateEvent(ctx context.Context, id int, date, location *string) (model.Event, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE events SET
			date = COALESCE(?, date),
			location = COALESCE(?, location),
			updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`, date, location, id)
	if err != nil {
		return model.Event{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.Event{}, ErrNotFound
	}
	return s.GetEvent(ctx, id)
}

func (s *Store) DeleteEvent(ctx context.Context, id int) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// CountEvents is used to decide whether to seed.
func (s *Store) CountEvents(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&n)
	return n, err
}

// SeedIfEmpty inserts evs when the events table is empty and reports how
// many were inserted.
func (s *Store) SeedIfEmpty(ctx context.Context, evs []model.Event) (int, error) {
	n, err := s.CountEvents(ctx)
	if err != nil || n > 0 {
		return 0, err
	}
	for _, ev := range evs {
		if _, err := s.CreateEvent(ctx, ev); err != nil {
			return 0, err
		}
	}
	return len(evs), nil
}
