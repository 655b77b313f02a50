package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	// ErrPersistence wraps every storage read or write failure.
	ErrPersistence = errors.New("persistence failure")

	// ErrNotFound is returned by Get for an unknown id.
	ErrNotFound = errors.New("session not found")
)

// Store is a key-value store of sessions keyed by Session.ID.
type Store interface {
	Put(ctx context.Context, s Session) error
	Get(ctx context.Context, id string) (*Session, error)
	All(ctx context.Context) ([]Session, error)
	Delete(ctx context.Context, id string) error
}

// SortNewestFirst orders sessions by CreatedAt descending.
func SortNewestFirst(sessions []Session) {
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
	})
}

// Memory is an in-process Store.
type Memory struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{sessions: make(map[string]Session)}
}

func (m *Memory) Put(ctx context.Context, s Session) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	if s.ID == "" {
		return fmt.Errorf("%w: empty session id", ErrPersistence)
	}
	s.Audio = append([]byte(nil), s.Audio...)
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return nil
}

func (m *Memory) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("get %s: %w", id, ErrNotFound)
	}
	s.Audio = append([]byte(nil), s.Audio...)
	return &s, nil
}

func (m *Memory) All(ctx context.Context) ([]Session, error) {
	m.mu.RLock()
	out := make([]Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	m.mu.RUnlock()
	SortNewestFirst(out)
	return out, nil
}

func (m *Memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	return nil
}
