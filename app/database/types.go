package database

import (
	"time"

	"github.com/lysyi3m/news-comb/app/news"
)

// Bookmark is a saved headline, keyed by its URL.
type Bookmark struct {
	ID string `json:"id"`
	news.Record
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
