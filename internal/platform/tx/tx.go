package tx

import (
	"context"
	"sync"
)

// Manager wraps transactional boundaries for multi-adapter operations.
type Manager interface {
	Within(ctx context.Context, fn func(context.Context) error) error
}

type NoopManager struct{}

func (NoopManager) Within(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

// Serialized runs every unit of work of the wrapped manager one at a time.
// Read-then-write sequences that must not interleave share one Serialized.
type Serialized struct {
	mu    sync.Mutex
	inner Manager
}

func NewSerialized(inner Manager) *Serialized {
	if inner == nil {
		inner = NoopManager{}
	}
	return &Serialized{inner: inner}
}

func (s *Serialized) Within(ctx context.Context, fn func(context.Context) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.inner.Within(ctx, fn)
}
