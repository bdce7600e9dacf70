package catalog

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/lysyi3m/news-comb/app/news"
)

var filterFields = map[string]bool{
	"title":       true,
	"description": true,
	"author":      true,
	"url":         true,
	"source":      true,
}

// Filterer drops records that fail a source's include/exclude rules.
type Filterer struct{}

func NewFilterer() *Filterer {
	return &Filterer{}
}

func (f *Filterer) Run(records []news.Record, filters []SourceFilter) []news.Record {
	if len(filters) == 0 {
		return records
	}

	kept := make([]news.Record, 0, len(records))
	for _, record := range records {
		if rejected, reason := f.applyFilters(record, filters); rejected {
			slog.Debug("Record filtered", "url", record.URL, "reason", reason)
			continue
		}
		kept = append(kept, record)
	}

	return kept
}

func (f *Filterer) applyFilters(record news.Record, filters []SourceFilter) (bool, string) {
	for _, filter := range filters {
		value := fieldValue(record, filter.Field)

		for _, exclude := range filter.Excludes {
			if matches(value, exclude) {
				return true, fmt.Sprintf("excluded by %s filter: contains '%s'", filter.Field, exclude)
			}
		}

		if len(filter.Includes) == 0 {
			continue
		}

		matched := false
		for _, include := range filter.Includes {
			if matches(value, include) {
				matched = true
				break
			}
		}
		if !matched {
			return true, fmt.Sprintf("excluded by %s filter: does not contain any of %v", filter.Field, filter.Includes)
		}
	}

	return false, ""
}

func matches(value, pattern string) bool {
	return strings.Contains(strings.ToLower(value), strings.ToLower(pattern))
}

func fieldValue(record news.Record, field string) string {
	switch field {
	case "title":
		return record.Title
	case "description":
		return record.Description
	case "author":
		return record.Author
	case "url":
		return record.URL
	case "source":
		return record.Source
	default:
		return ""
	}
}
