package credentials

import (
	"errors"
	"strings"
	"sync"
)

var ErrEmptyPool = errors.New("credential pool must contain at least one key")

// Pool is an ordered, immutable set of API keys with a shared rotation index.
// Only the index is mutable; it is guarded by a mutex and always kept in
// [0, Size()).
type Pool struct {
	keys []string

	mu      sync.Mutex
	current int
}

func New(keys []string) (*Pool, error) {
	cleaned := make([]string, 0, len(keys))
	for _, key := range keys {
		if key = strings.TrimSpace(key); key != "" {
			cleaned = append(cleaned, key)
		}
	}

	if len(cleaned) == 0 {
		return nil, ErrEmptyPool
	}

	return &Pool{keys: cleaned}, nil
}

func (p *Pool) Size() int {
	return len(p.keys)
}

// Current returns the index the next caller should start rotating from.
func (p *Pool) Current() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Key returns the credential at i, wrapping around the pool.
func (p *Pool) Key(i int) string {
	return p.keys[p.wrap(i)]
}

// Advance moves the shared index to the credential after from and returns
// the new index. Callers pass the index they actually used so that two
// concurrent rotations away from the same key land on the same successor.
func (p *Pool) Advance(from int) int {
	next := p.wrap(from + 1)

	p.mu.Lock()
	p.current = next
	p.mu.Unlock()

	return next
}

func (p *Pool) wrap(i int) int {
	n := len(p.keys)
	return ((i % n) + n) % n
}

// Mask hides all but the first five characters of a key for log output.
func Mask(key string) string {
	if len(key) <= 5 {
		return strings.Repeat("*", len(key))
	}
	return key[:5] + "..."
}
