// Package checkpoint persists per-thread conversation state between turns.
package checkpoint

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/stellarlinkco/briefclaw/internal/agent"
)

// MemoryPath selects the in-process store instead of a SQLite file.
const MemoryPath = ":memory:"

// Store is an agent.Checkpointer that can also report and prune threads.
type Store interface {
	agent.Checkpointer
	// Prune deletes threads last updated before cutoff and returns how many
	// were removed.
	Prune(ctx context.Context, cutoff time.Time) (int, error)
	Count(ctx context.Context) (int, error)
	Close() error
}

// Open returns the store for dbPath: a MemoryStore for MemoryPath, a
// SQLiteStore otherwise.
func Open(dbPath string, logger *zap.Logger) (Store, error) {
	if strings.TrimSpace(dbPath) == MemoryPath {
		return NewMemoryStore(), nil
	}
	return NewSQLiteStore(dbPath, logger)
}

// MemoryStore keeps states in process memory. Threads do not survive a
// restart.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[string]agent.State
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]agent.State)}
}

func (m *MemoryStore) Load(_ context.Context, threadID string) (agent.State, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.states[threadID]
	if !ok {
		return agent.State{}, false, nil
	}
	return copyState(s), true, nil
}

func (m *MemoryStore) Save(_ context.Context, s agent.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[s.ThreadID] = copyState(s)
	return nil
}

func (m *MemoryStore) Prune(_ context.Context, cutoff time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, s := range m.states {
		if s.UpdatedAt.Before(cutoff) {
			delete(m.states, id)
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.states), nil
}

func (m *MemoryStore) Close() error { return nil }

func copyState(s agent.State) agent.State {
	s.Brief = s.Brief.Clone()
	s.Messages = append([]agent.Message(nil), s.Messages...)
	s.Chips = append(s.Chips[:0:0], s.Chips...)
	s.FieldUpdates = append([]string(nil), s.FieldUpdates...)
	return s
}

// ParseRetention parses a retention window such as "720h". Empty or
// non-positive values disable pruning.
func ParseRetention(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("parse retention %q: %w", s, err)
	}
	if d < 0 {
		return 0, nil
	}
	return d, nil
}

// PruneOlderThan removes threads idle for longer than retention. A zero
// retention keeps everything.
func PruneOlderThan(ctx context.Context, s Store, retention time.Duration, now time.Time) (int, error) {
	if retention <= 0 {
		return 0, nil
	}
	return s.Prune(ctx, now.Add(-retention))
}
