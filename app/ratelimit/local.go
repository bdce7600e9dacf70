package ratelimit

import (
	"context"
	"sync"
)

var _ Memory = (*Local)(nil)

// Local keeps the state in process memory.
type Local struct {
	mu    sync.RWMutex
	state State
}

func NewLocal() *Local {
	return &Local{}
}

func (l *Local) Snapshot(_ context.Context) (State, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state, nil
}

func (l *Local) Arm(_ context.Context, state State) error {
	state.Limited = true

	l.mu.Lock()
	defer l.mu.Unlock()
	l.state = state
	return nil
}

func (l *Local) Clear(_ context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state = State{}
	return nil
}
