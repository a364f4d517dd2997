package attrstore

import (
	"context"
	"log/slog"
	"sync"

	"github.com/ockam-network/direct-authenticator/identity"
)

var _ Store = (*memoryStore)(nil)

// memoryStore is an in-memory Store for tests and ephemeral deployments.
type memoryStore struct {
	mu      sync.Mutex
	entries map[identity.ID]AttributesEntry
	logger  *slog.Logger
}

// NewMemory returns an in-memory Store.
func NewMemory(logger *slog.Logger) Store {
	return &memoryStore{
		entries: make(map[identity.ID]AttributesEntry),
		logger:  logger,
	}
}

func (s *memoryStore) tx(f func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f()
}

func (s *memoryStore) Put(ctx context.Context, id identity.ID, entry AttributesEntry) error {
	s.tx(func() {
		s.entries[id] = entry
	})
	return nil
}

func (s *memoryStore) Get(ctx context.Context, id identity.ID) (entry AttributesEntry, ok bool, err error) {
	s.tx(func() {
		entry, ok = s.entries[id]
	})
	return entry, ok, nil
}

func (s *memoryStore) Delete(ctx context.Context, id identity.ID) error {
	s.tx(func() {
		delete(s.entries, id)
	})
	return nil
}

func (s *memoryStore) Keys(ctx context.Context) ([]identity.ID, error) {
	var ids []identity.ID
	s.tx(func() {
		ids = make([]identity.ID, 0, len(s.entries))
		for id := range s.entries {
			ids = append(ids, id)
		}
	})
	return ids, nil
}

func (s *memoryStore) Close() error { return nil }
