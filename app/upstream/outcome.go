package upstream

import (
	"fmt"
	"time"

	"github.com/lysyi3m/news-comb/app/news"
)

// Reason classifies a failed live attempt.
type Reason int

const (
	Transport Reason = iota
	Malformed
	RateLimited
	CredentialRejected
)

func (r Reason) String() string {
	switch r {
	case Transport:
		return "transport_failure"
	case Malformed:
		return "malformed_response"
	case RateLimited:
		return "rate_limited"
	case CredentialRejected:
		return "credential_rejected"
	default:
		return fmt.Sprintf("reason(%d)", int(r))
	}
}

// Limiting reports whether the reason carries a retry window.
func (r Reason) Limiting() bool {
	return r == RateLimited || r == CredentialRejected
}

// Outcome is the result of one live attempt: either Success or Failure.
type Outcome interface {
	outcome()
}

type Success struct {
	Envelope news.Envelope
}

type Failure struct {
	Reason Reason
	Status int
	// RetryAfter is the upstream's Retry-After hint; zero when absent.
	RetryAfter time.Duration
	Err        error
}

func (Success) outcome() {}
func (Failure) outcome() {}

func (f Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s (status %d): %v", f.Reason, f.Status, f.Err)
	}
	return fmt.Sprintf("%s (status %d)", f.Reason, f.Status)
}
