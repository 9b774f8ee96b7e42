// Package state persists stream checkpoints between sync runs.
package state

import (
	"context"
	"sync"
)

// Store persists the cursor state of a stream, keyed by source and stream
// name. An empty map means no checkpoint exists yet.
type Store interface {
	Load(ctx context.Context, source, stream string) (map[string]string, error)
	Save(ctx context.Context, source, stream string, state map[string]string) error
	Close()
}

// MemoryStore keeps checkpoints in process memory. Used by tests and by
// one-off syncs that do not need resumability.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[string]map[string]string
}

// NewMemoryStore creates an empty in-memory checkpoint store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		states: make(map[string]map[string]string),
	}
}

func (s *MemoryStore) Load(ctx context.Context, source, stream string) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]string)
	for k, v := range s.states[stateKey(source, stream)] {
		out[k] = v
	}
	return out, nil
}

func (s *MemoryStore) Save(ctx context.Context, source, stream string, state map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	stored := make(map[string]string, len(state))
	for k, v := range state {
		stored[k] = v
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[stateKey(source, stream)] = stored
	return nil
}

func (s *MemoryStore) Close() {}

func stateKey(source, stream string) string {
	return source + "/" + stream
}
