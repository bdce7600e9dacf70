package ratelimit

import (
	"context"
	"time"
)

// State is the most recently observed rate-limit condition for the session.
type State struct {
	Limited    bool          `json:"limited"`
	LimitedAt  time.Time     `json:"limited_at"`
	RetryAfter time.Duration `json:"retry_after"`
	Message    string        `json:"message,omitempty"`
}

// Suppresses reports whether live requests must be skipped at now.
func (s State) Suppresses(now time.Time) bool {
	return s.Limited && now.Sub(s.LimitedAt) < s.RetryAfter
}

// RetryAt is the moment the limit window elapses. Zero when not limited.
func (s State) RetryAt() time.Time {
	if !s.Limited {
		return time.Time{}
	}
	return s.LimitedAt.Add(s.RetryAfter)
}

// Memory stores the session-wide rate-limit state. It is written only from
// the outcome of live upstream attempts.
type Memory interface {
	Snapshot(ctx context.Context) (State, error)
	Arm(ctx context.Context, state State) error
	Clear(ctx context.Context) error
}
