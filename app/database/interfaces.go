package database

import (
	"context"
	"errors"

	"github.com/lysyi3m/news-comb/app/news"
)

var ErrBookmarkNotFound = errors.New("bookmark not found")

type BookmarkRepository interface {
	Save(ctx context.Context, record news.Record) (*Bookmark, error)
	Get(ctx context.Context, url string) (*Bookmark, error)
	List(ctx context.Context, limit, offset int) ([]Bookmark, error)
	Count(ctx context.Context) (int, error)
	Delete(ctx context.Context, url string) error
}
