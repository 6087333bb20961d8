package session

import (
	"context"
	"time"
)

// Store keeps per-browser session values keyed by an opaque id.
type Store[T any] interface {
	Get(ctx context.Context, id string) (T, bool, error)
	Put(ctx context.Context, id string, v T) error
	Delete(ctx context.Context, id string) (T, bool, error)
	// Sweep removes values not accessed for idle and returns them so the
	// caller can release their resources.
	Sweep(ctx context.Context, idle time.Duration) ([]T, error)
	Len() int
	NewID() string
}
