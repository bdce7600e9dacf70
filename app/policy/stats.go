package policy

import (
	"context"

	"github.com/lysyi3m/news-comb/app/ratelimit"
	"github.com/lysyi3m/news-comb/app/upstream"
)

type Stats struct {
	Queries        uint64            `json:"queries"`
	Live           uint64            `json:"live"`
	Fallbacks      uint64            `json:"fallbacks"`
	Suppressed     uint64            `json:"suppressed"`
	Exhaustions    uint64            `json:"exhaustions"`
	Recovered      uint64            `json:"recovered"`
	Attempts       uint64            `json:"attempts"`
	Failures       map[string]uint64 `json:"failures"`
	PoolSize       int               `json:"pool_size"`
	CurrentKey     int               `json:"current_key"`
	CatalogVersion string            `json:"catalog_version"`
	CatalogRecords int               `json:"catalog_records"`
	RateLimit      ratelimit.State   `json:"rate_limit"`
}

func (p *Policy) Stats(ctx context.Context) Stats {
	stats := Stats{
		Queries:        p.counters.queries.Load(),
		Live:           p.counters.live.Load(),
		Fallbacks:      p.counters.fallbacks.Load(),
		Suppressed:     p.counters.suppressed.Load(),
		Exhaustions:    p.counters.exhaustions.Load(),
		Recovered:      p.counters.recovered.Load(),
		Attempts:       p.counters.attempts.Load(),
		Failures:       make(map[string]uint64, len(p.counters.failures)),
		PoolSize:       p.pool.Size(),
		CurrentKey:     p.pool.Current(),
		CatalogVersion: p.catalog.Version(),
		CatalogRecords: p.catalog.Len(),
	}

	for i := range p.counters.failures {
		stats.Failures[upstream.Reason(i).String()] = p.counters.failures[i].Load()
	}

	if state, err := p.memory.Snapshot(ctx); err == nil {
		stats.RateLimit = state
	}

	return stats
}
