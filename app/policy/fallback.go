package policy

import (
	"github.com/lysyi3m/news-comb/app/news"
)

// fallback synthesizes an envelope from the catalog. Keywords are ignored;
// only the category selection and pagination apply.
func (p *Policy) fallback(params news.Params) news.Envelope {
	p.counters.fallbacks.Add(1)

	include, exclude := params.CategoryList()
	records := p.catalog.Select(include, exclude)

	return Paginate(records, params.Offset, params.Limit)
}

// Paginate slices records[offset:offset+limit], clamped to bounds. The
// returned items never alias records.
func Paginate(records []news.Record, offset, limit int) news.Envelope {
	offset = max(offset, 0)
	limit = max(limit, 0)
	total := len(records)

	start := min(offset, total)
	end := min(start+limit, total)

	items := make([]news.Record, end-start)
	copy(items, records[start:end])

	return news.Envelope{
		Pagination: news.Pagination{
			Limit:  limit,
			Offset: offset,
			Count:  len(items),
			Total:  total,
		},
		Data: items,
	}
}
