// Package session holds the client's authentication state: whether, and as
// whom, the current user is signed in.
//
// There is exactly one Store per process. Every other component reads it
// through Current and mutates it through SetAuth/ClearAuth only; the three
// fields (authenticated flag, user, token) always change together so that
// authenticated == true exactly when both a user and a non-empty token are
// held.
package session

import (
	"log/slog"
	"sync"

	"github.com/NicolasHaas/itemtrack/pkg/model"
)

// Session is the client-held authentication record. The zero value is the
// signed-out state.
type Session struct {
	Authenticated bool            `json:"isAuthenticated" yaml:"is_authenticated"`
	User          *model.UserInfo `json:"user,omitempty" yaml:"user,omitempty"`
	Token         string          `json:"token,omitempty" yaml:"token,omitempty"`
}

// Valid reports whether the session is internally consistent: authenticated
// exactly when both user and token are present.
func (s Session) Valid() bool {
	if s.Authenticated {
		return s.User != nil && s.Token != ""
	}
	return s.User == nil && s.Token == ""
}

// Storage persists a session snapshot across process restarts. Load returns
// (nil, nil) when no snapshot exists. Implementations live in pkg/storage.
type Storage interface {
	Save(Session) error
	Load() (*Session, error)
	Delete() error
}

// Store is the in-memory session store. Mutations are mirrored synchronously
// to the injected Storage; a persistence failure is logged, never surfaced,
// and never leaves the in-memory state behind.
type Store struct {
	mu      sync.RWMutex
	cur     Session
	storage Storage
}

// New creates a Store backed by the given storage and rehydrates any
// previously persisted snapshot. An absent or malformed snapshot yields the
// signed-out state. Rehydration never makes a network call and never checks
// the token against the server; a stale token surfaces on the next API call.
func New(storage Storage) *Store {
	s := &Store{storage: storage}
	if storage == nil {
		return s
	}

	snap, err := storage.Load()
	if err != nil {
		slog.Warn("session: rehydrate failed, starting signed out", "err", err)
		return s
	}
	if snap == nil {
		return s
	}
	if !snap.Valid() || !snap.Authenticated {
		// A snapshot that claims authentication without a token (or the
		// other way round) is discarded rather than trusted halfway.
		if snap.Authenticated || snap.Token != "" || snap.User != nil {
			slog.Warn("session: discarding malformed snapshot")
		}
		return s
	}

	s.cur = *snap
	slog.Info("session: rehydrated", "user", snap.User.Email)
	return s
}

// Current returns the session state. Never blocks on I/O, never fails.
func (s *Store) Current() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

// Token returns the current bearer token, or "" when signed out.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur.Token
}

// SetAuth marks the session authenticated as the given user with the given
// bearer token and persists the snapshot. The token is treated as opaque; any
// non-empty string is accepted. A nil user or empty token is refused to keep
// the store's invariant, leaving the session untouched.
func (s *Store) SetAuth(user *model.UserInfo, token string) {
	if user == nil || token == "" {
		slog.Warn("session: SetAuth refused", "haveUser", user != nil, "haveToken", token != "")
		return
	}

	s.mu.Lock()
	s.cur = Session{Authenticated: true, User: user, Token: token}
	snap := s.cur
	s.mu.Unlock()

	s.persist(snap)
}

// ClearAuth resets the session to the signed-out state and removes the
// persisted snapshot.
func (s *Store) ClearAuth() {
	s.mu.Lock()
	s.cur = Session{}
	s.mu.Unlock()

	if s.storage == nil {
		return
	}
	if err := s.storage.Delete(); err != nil {
		slog.Error("session: delete snapshot failed", "err", err)
	}
}

func (s *Store) persist(snap Session) {
	if s.storage == nil {
		return
	}
	if err := s.storage.Save(snap); err != nil {
		slog.Error("session: persist failed", "err", err)
	}
}
