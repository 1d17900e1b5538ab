package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/NicolasHaas/itemtrack/pkg/model"
	"github.com/NicolasHaas/itemtrack/pkg/session"
)

// SQLiteStorage persists the session snapshot in a single-row SQLite table.
// It is the backend for installs that keep other client data in the same
// database file.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLite opens (or creates) a SQLite database at dbPath and ensures the
// snapshot table exists.
func NewSQLite(dbPath string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: open DB: %w", err)
	}

	ctx := context.Background()

	// Set busy timeout to avoid "database is locked" under concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage: set busy_timeout: %w", err)
	}

	const schema = `
	CREATE TABLE IF NOT EXISTS session_snapshot (
		id               INTEGER PRIMARY KEY CHECK(id = 1),
		is_authenticated INTEGER NOT NULL DEFAULT 0,
		token            TEXT    NOT NULL DEFAULT '',
		user_json        TEXT    NOT NULL DEFAULT '',
		updated_at       TEXT    NOT NULL DEFAULT (datetime('now'))
	);`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage: migrate: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// Save upserts the single snapshot row.
func (ss *SQLiteStorage) Save(snap session.Session) error {
	userJSON := ""
	if snap.User != nil {
		data, err := json.Marshal(snap.User)
		if err != nil {
			return fmt.Errorf("storage: marshal user: %w", err)
		}
		userJSON = string(data)
	}

	authed := 0
	if snap.Authenticated {
		authed = 1
	}

	_, err := ss.db.ExecContext(context.Background(), `
		INSERT INTO session_snapshot (id, is_authenticated, token, user_json, updated_at)
		VALUES (1, ?, ?, ?, datetime('now'))
		ON CONFLICT(id) DO UPDATE SET
			is_authenticated = excluded.is_authenticated,
			token            = excluded.token,
			user_json        = excluded.user_json,
			updated_at       = excluded.updated_at`,
		authed, snap.Token, userJSON)
	if err != nil {
		return fmt.Errorf("storage: save snapshot: %w", err)
	}
	return nil
}

// Load reads the snapshot row. Returns (nil, nil) when none has been saved.
func (ss *SQLiteStorage) Load() (*session.Session, error) {
	var authed int
	var token, userJSON string
	err := ss.db.QueryRowContext(context.Background(),
		`SELECT is_authenticated, token, user_json FROM session_snapshot WHERE id = 1`).
		Scan(&authed, &token, &userJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: load snapshot: %w", err)
	}

	snap := &session.Session{Authenticated: authed != 0, Token: token}
	if userJSON != "" {
		var user model.UserInfo
		if err := json.Unmarshal([]byte(userJSON), &user); err != nil {
			return nil, fmt.Errorf("storage: parse user: %w", err)
		}
		snap.User = &user
	}
	return snap, nil
}

// Delete removes the snapshot row. Deleting an absent row is not an error.
func (ss *SQLiteStorage) Delete() error {
	if _, err := ss.db.ExecContext(context.Background(),
		`DELETE FROM session_snapshot WHERE id = 1`); err != nil {
		return fmt.Errorf("storage: delete snapshot: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (ss *SQLiteStorage) Close() error {
	return ss.db.Close()
}
