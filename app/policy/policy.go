package policy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/lysyi3m/news-comb/app/catalog"
	"github.com/lysyi3m/news-comb/app/credentials"
	"github.com/lysyi3m/news-comb/app/news"
	"github.com/lysyi3m/news-comb/app/ratelimit"
	"github.com/lysyi3m/news-comb/app/upstream"
)

const DefaultRetryAfter = time.Hour

var ErrPoolExhausted = errors.New("all credentials failed")

type Options struct {
	// DefaultRetryAfter arms the rate-limit memory when upstream gives no hint.
	DefaultRetryAfter time.Duration
	PageSize          int
	Now               func() time.Time
}

// Policy serves news queries from the live upstream when it can and from the
// fallback catalog when it cannot. Query is safe for concurrent use.
type Policy struct {
	pool    *credentials.Pool
	memory  ratelimit.Memory
	fetcher upstream.Fetcher
	catalog *catalog.Catalog
	opts    Options

	counters counters
}

type counters struct {
	queries     atomic.Uint64
	live        atomic.Uint64
	fallbacks   atomic.Uint64
	suppressed  atomic.Uint64
	exhaustions atomic.Uint64
	recovered   atomic.Uint64
	attempts    atomic.Uint64
	failures    [4]atomic.Uint64
}

func New(pool *credentials.Pool, memory ratelimit.Memory, fetcher upstream.Fetcher, c *catalog.Catalog, opts Options) *Policy {
	if opts.DefaultRetryAfter <= 0 {
		opts.DefaultRetryAfter = DefaultRetryAfter
	}
	if opts.PageSize <= 0 {
		opts.PageSize = news.DefaultPageSize
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Policy{
		pool:    pool,
		memory:  memory,
		fetcher: fetcher,
		catalog: c,
		opts:    opts,
	}
}

// Query always returns an envelope. Live data is preferred; any failure,
// including a panic, degrades to the fallback catalog.
func (p *Policy) Query(ctx context.Context, params news.Params) (envelope news.Envelope) {
	p.counters.queries.Add(1)

	defer func() {
		if r := recover(); r != nil {
			p.counters.recovered.Add(1)
			slog.Error("Query recovered from panic", "panic", r)
			envelope = p.fallback(news.Params{}.Normalize(p.opts.PageSize))
		}
	}()

	params = params.Normalize(p.opts.PageSize)

	state, err := p.memory.Snapshot(ctx)
	if err != nil {
		slog.Warn("Failed to read rate limit state", "error", err)
		state = ratelimit.State{}
	}

	if state.Suppresses(p.opts.Now()) {
		p.counters.suppressed.Add(1)
		slog.Debug("Live fetch suppressed", "retry_at", state.RetryAt(), "message", state.Message)
		return p.fallback(params)
	}

	live, err := p.fetchLive(ctx, params)
	if err == nil {
		p.counters.live.Add(1)
		return live
	}

	slog.Info("Serving fallback", "reason", err)

	return p.fallback(params)
}

// Probe runs one live cycle with default parameters when the memory is
// limited and its window has elapsed. Otherwise it does nothing.
func (p *Policy) Probe(ctx context.Context) error {
	state, err := p.memory.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("failed to read rate limit state: %w", err)
	}

	if !state.Limited || state.Suppresses(p.opts.Now()) {
		return nil
	}

	_, err = p.fetchLive(ctx, news.Params{}.Normalize(p.opts.PageSize))
	return err
}

// fetchLive tries each credential at most once, starting from the shared
// rotation index as it stood when the call began.
func (p *Policy) fetchLive(ctx context.Context, params news.Params) (news.Envelope, error) {
	size := p.pool.Size()
	start := p.pool.Current()

	var retryAfter time.Duration
	var last upstream.Failure

	for i := 0; i < size; i++ {
		if err := ctx.Err(); err != nil {
			return news.Envelope{}, err
		}

		index := start + i
		key := p.pool.Key(index)

		p.counters.attempts.Add(1)

		switch outcome := p.fetcher.Fetch(ctx, key, params).(type) {
		case upstream.Success:
			if err := p.memory.Clear(ctx); err != nil {
				slog.Warn("Failed to clear rate limit state", "error", err)
			}
			slog.Debug("Live fetch succeeded", "key", credentials.Mask(key), "count", len(outcome.Envelope.Data))
			return outcome.Envelope, nil

		case upstream.Failure:
			p.countFailure(outcome.Reason)
			last = outcome

			if outcome.Reason.Limiting() {
				retryAfter = outcome.RetryAfter
				if retryAfter <= 0 {
					retryAfter = p.opts.DefaultRetryAfter
				}
			}

			next := p.pool.Advance(index)
			slog.Warn("Live attempt failed",
				"key", credentials.Mask(key),
				"reason", outcome.Reason.String(),
				"status", outcome.Status,
				"error", outcome.Err,
				"next_key", next)
		}
	}

	if err := ctx.Err(); err != nil {
		return news.Envelope{}, err
	}

	if retryAfter <= 0 {
		retryAfter = p.opts.DefaultRetryAfter
	}

	state := ratelimit.State{
		Limited:    true,
		LimitedAt:  p.opts.Now(),
		RetryAfter: retryAfter,
		Message:    fmt.Sprintf("all %d credentials failed, last: %s", size, last.Reason),
	}
	if err := p.memory.Arm(ctx, state); err != nil {
		slog.Warn("Failed to store rate limit state", "error", err)
	}

	p.counters.exhaustions.Add(1)
	slog.Warn("Credential pool exhausted", "pool_size", size, "retry_after", retryAfter, "retry_at", state.RetryAt())

	return news.Envelope{}, ErrPoolExhausted
}

func (p *Policy) countFailure(reason upstream.Reason) {
	if int(reason) >= 0 && int(reason) < len(p.counters.failures) {
		p.counters.failures[reason].Add(1)
	}
}
