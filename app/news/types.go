package news

import (
	"time"
)

const (
	DefaultSort     = "published_desc"
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Record is a single headline as served by the upstream API and the fallback catalog.
type Record struct {
	Author      string    `json:"author" yaml:"author,omitempty"`
	Title       string    `json:"title" yaml:"title"`
	Description string    `json:"description" yaml:"description,omitempty"`
	URL         string    `json:"url" yaml:"url"`
	Source      string    `json:"source" yaml:"source,omitempty"`
	Image       string    `json:"image" yaml:"image,omitempty"`
	Category    string    `json:"category" yaml:"category"`
	Language    string    `json:"language" yaml:"language,omitempty"`
	Country     string    `json:"country" yaml:"country,omitempty"`
	PublishedAt time.Time `json:"published_at" yaml:"published_at,omitempty"`
}

type Pagination struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Count  int `json:"count"`
	Total  int `json:"total"`
}

// Envelope mirrors the upstream response shape so callers cannot tell a live
// result from a fallback one.
type Envelope struct {
	Pagination Pagination `json:"pagination"`
	Data       []Record   `json:"data"`
}
