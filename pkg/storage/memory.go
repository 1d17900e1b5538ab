package storage

import (
	"sync"

	"github.com/NicolasHaas/itemtrack/pkg/session"
)

// MemoryStorage keeps the snapshot in memory only. It mirrors the behavior
// of the durable backends and is used in tests; nothing survives a process
// restart.
type MemoryStorage struct {
	mu   sync.Mutex
	snap *session.Session

	// FailSave, when set, is returned from Save. Lets tests exercise the
	// store's best-effort persistence path.
	FailSave error
}

// NewMemory creates an empty in-memory backend.
func NewMemory() *MemoryStorage {
	return &MemoryStorage{}
}

func (ms *MemoryStorage) Save(snap session.Session) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if ms.FailSave != nil {
		return ms.FailSave
	}
	cp := snap
	ms.snap = &cp
	return nil
}

func (ms *MemoryStorage) Load() (*session.Session, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if ms.snap == nil {
		return nil, nil
	}
	cp := *ms.snap
	return &cp, nil
}

func (ms *MemoryStorage) Delete() error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.snap = nil
	return nil
}
