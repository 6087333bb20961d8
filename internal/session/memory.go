package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"
)

type entry[T any] struct {
	v    T
	seen time.Time
}

type MemoryStore[T any] struct {
	mu  sync.Mutex
	m   map[string]entry[T]
	now func() time.Time
}

func NewMemoryStore[T any]() *MemoryStore[T] {
	return NewMemoryStoreWithClock[T](time.Now)
}

// NewMemoryStoreWithClock uses now to stamp accesses.
func NewMemoryStoreWithClock[T any](now func() time.Time) *MemoryStore[T] {
	return &MemoryStore[T]{m: map[string]entry[T]{}, now: now}
}

// Get returns the value for id and refreshes its last access time.
func (s *MemoryStore[T]) Get(_ context.Context, id string) (T, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.m[id]
	if !ok {
		var zero T
		return zero, false, nil
	}
	e.seen = s.now()
	s.m[id] = e
	return e.v, true, nil
}

func (s *MemoryStore[T]) Put(_ context.Context, id string, v T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[id] = entry[T]{v: v, seen: s.now()}
	return nil
}

func (s *MemoryStore[T]) Delete(_ context.Context, id string) (T, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.m[id]
	if ok {
		delete(s.m, id)
	}
	return e.v, ok, nil
}

func (s *MemoryStore[T]) Sweep(_ context.Context, idle time.Duration) ([]T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.now().Add(-idle)
	var evicted []T
	for id, e := range s.m {
		if e.seen.Before(cutoff) {
			evicted = append(evicted, e.v)
			delete(s.m, id)
		}
	}
	return evicted, nil
}

func (s *MemoryStore[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.m)
}

func (s *MemoryStore[T]) NewID() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
