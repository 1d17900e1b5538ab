// Package storage provides the persistence backends for the session
// snapshot: a YAML file (optionally sealed), a SQLite database, and an
// in-memory store for tests. All of them implement session.Storage.
package storage

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/NicolasHaas/itemtrack/pkg/crypto"
	"github.com/NicolasHaas/itemtrack/pkg/session"
)

// Compile-time checks: every backend implements session.Storage.
var (
	_ session.Storage = (*FileStorage)(nil)
	_ session.Storage = (*SQLiteStorage)(nil)
	_ session.Storage = (*MemoryStorage)(nil)
)

// FileStorage persists the session snapshot as a YAML file (0600). With a
// key set, the YAML bytes are sealed with ChaCha20-Poly1305 before hitting
// disk.
type FileStorage struct {
	path string
	key  []byte
}

// NewFile creates a plaintext YAML file backend at path.
func NewFile(path string) *FileStorage {
	return &FileStorage{path: path}
}

// NewEncryptedFile creates a sealed file backend at path. The key must be
// crypto.KeySize bytes (see crypto.LoadOrCreateKey).
func NewEncryptedFile(path string, key []byte) (*FileStorage, error) {
	if len(key) != crypto.KeySize {
		return nil, crypto.ErrInvalidKey
	}
	return &FileStorage{path: path, key: key}, nil
}

// Save writes the snapshot to disk, replacing any previous one.
func (fs *FileStorage) Save(snap session.Session) error {
	data, err := yaml.Marshal(&snap)
	if err != nil {
		return fmt.Errorf("storage: marshal snapshot: %w", err)
	}
	if fs.key != nil {
		data, err = crypto.Seal(fs.key, data)
		if err != nil {
			return err
		}
	}
	return os.WriteFile(fs.path, data, 0600)
}

// Load reads the snapshot from disk. Returns (nil, nil) if no file exists.
func (fs *FileStorage) Load() (*session.Session, error) {
	data, err := os.ReadFile(fs.path) //nolint:gosec // path is the client's own snapshot file
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("storage: read snapshot: %w", err)
	}
	if fs.key != nil {
		data, err = crypto.Open(fs.key, data)
		if err != nil {
			return nil, err
		}
	}
	var snap session.Session
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("storage: parse snapshot: %w", err)
	}
	return &snap, nil
}

// Delete removes the snapshot file. Deleting an absent snapshot is not an
// error.
func (fs *FileStorage) Delete() error {
	if err := os.Remove(fs.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: delete snapshot: %w", err)
	}
	return nil
}
