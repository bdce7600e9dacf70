package news

import (
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
)

// Params are the caller-supplied filters of a news query. The zero value is
// a valid query; Normalize fills in the defaults.
type Params struct {
	Categories string
	Keywords   string
	Countries  string
	Languages  string
	Sources    string
	Date       string
	Sort       string
	Offset     int
	Limit      int
}

// ParseParams reads the recognized query keys. Malformed or negative numbers
// are dropped in favour of the defaults, so parsing never fails.
func ParseParams(values url.Values, pageSize int) Params {
	p := Params{
		Categories: values.Get("categories"),
		Keywords:   strings.TrimSpace(values.Get("keywords")),
		Countries:  values.Get("countries"),
		Languages:  values.Get("languages"),
		Sources:    values.Get("sources"),
		Date:       strings.TrimSpace(values.Get("date")),
		Sort:       strings.TrimSpace(values.Get("sort")),
		Offset:     parseNonNegative(values.Get("offset"), 0),
		Limit:      parseNonNegative(values.Get("limit"), 0),
	}

	return p.Normalize(pageSize)
}

// Normalize returns a copy of p with defaults applied and list values folded.
func (p Params) Normalize(pageSize int) Params {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	p.Categories = normalizeList(p.Categories)
	p.Countries = normalizeList(p.Countries)
	p.Languages = normalizeList(p.Languages)

	if p.Sort == "" {
		p.Sort = DefaultSort
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	if p.Limit <= 0 {
		p.Limit = pageSize
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}

	return p
}

// CategoryList splits the categories filter into included and excluded
// names. A leading "-" marks an exclusion, as the upstream API does.
func (p Params) CategoryList() (include, exclude []string) {
	for _, name := range splitList(p.Categories) {
		if strings.HasPrefix(name, "-") {
			if trimmed := strings.TrimPrefix(name, "-"); trimmed != "" {
				exclude = append(exclude, trimmed)
			}
			continue
		}
		include = append(include, name)
	}
	return include, exclude
}

// Values builds the outbound query string for the upstream API.
func (p Params) Values(accessKey string) url.Values {
	v := url.Values{}
	v.Set("access_key", accessKey)
	v.Set("sort", p.Sort)
	v.Set("offset", strconv.Itoa(p.Offset))
	v.Set("limit", strconv.Itoa(p.Limit))

	optional := map[string]string{
		"categories": p.Categories,
		"keywords":   p.Keywords,
		"countries":  p.Countries,
		"languages":  p.Languages,
		"sources":    p.Sources,
		"date":       p.Date,
	}
	for key, value := range optional {
		if value != "" {
			v.Set(key, value)
		}
	}

	return v
}

// FoldCategory is the key used to partition and look up categories.
// A Caser keeps state between calls, so each call builds its own.
func FoldCategory(category string) string {
	return cases.Fold().String(strings.TrimSpace(category))
}

func normalizeList(raw string) string {
	return strings.Join(splitList(raw), ",")
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = FoldCategory(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseNonNegative(raw string, fallback int) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
