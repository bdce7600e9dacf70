package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lysyi3m/news-comb/app/news"
)

// Fixed width so that text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

var _ BookmarkRepository = (*SQLBookmarkRepository)(nil)

type SQLBookmarkRepository struct {
	db  *DB
	now func() time.Time
}

func NewBookmarkRepository(db *DB) *SQLBookmarkRepository {
	return &SQLBookmarkRepository{db: db, now: time.Now}
}

const bookmarkColumns = `id, url, title, description, author, source, image, category, language, country, published_at, created_at, updated_at`

// Save inserts record or refreshes the stored copy when its URL is already
// bookmarked. The original id and created_at are kept.
func (r *SQLBookmarkRepository) Save(ctx context.Context, record news.Record) (*Bookmark, error) {
	record.URL = strings.TrimSpace(record.URL)
	if record.URL == "" {
		return nil, fmt.Errorf("bookmark url is required")
	}
	if strings.TrimSpace(record.Title) == "" {
		return nil, fmt.Errorf("bookmark title is required")
	}

	now := formatTime(r.now())

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO bookmarks (`+bookmarkColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (url) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			author = excluded.author,
			source = excluded.source,
			image = excluded.image,
			category = excluded.category,
			language = excluded.language,
			country = excluded.country,
			published_at = excluded.published_at,
			updated_at = excluded.updated_at
	`,
		uuid.NewString(),
		record.URL,
		record.Title,
		record.Description,
		record.Author,
		record.Source,
		record.Image,
		record.Category,
		record.Language,
		record.Country,
		formatTime(record.PublishedAt),
		now,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to save bookmark: %w", err)
	}

	return r.Get(ctx, record.URL)
}

func (r *SQLBookmarkRepository) Get(ctx context.Context, url string) (*Bookmark, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+bookmarkColumns+` FROM bookmarks WHERE url = ?`, url)

	bookmark, err := scanBookmark(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookmarkNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bookmark: %w", err)
	}

	return bookmark, nil
}

// List returns bookmarks newest first.
func (r *SQLBookmarkRepository) List(ctx context.Context, limit, offset int) ([]Bookmark, error) {
	if limit <= 0 {
		limit = news.DefaultPageSize
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+bookmarkColumns+`
		FROM bookmarks
		ORDER BY created_at DESC, rowid DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookmarks: %w", err)
	}
	defer rows.Close()

	bookmarks := make([]Bookmark, 0, limit)
	for rows.Next() {
		bookmark, err := scanBookmark(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bookmark: %w", err)
		}
		bookmarks = append(bookmarks, *bookmark)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bookmarks: %w", err)
	}

	return bookmarks, nil
}

func (r *SQLBookmarkRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bookmarks`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count bookmarks: %w", err)
	}
	return count, nil
}

func (r *SQLBookmarkRepository) Delete(ctx context.Context, url string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM bookmarks WHERE url = ?`, url)
	if err != nil {
		return fmt.Errorf("failed to delete bookmark: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %w", err)
	}
	if affected == 0 {
		return ErrBookmarkNotFound
	}

	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBookmark(s scanner) (*Bookmark, error) {
	var b Bookmark
	var publishedAt, createdAt, updatedAt string

	err := s.Scan(
		&b.ID,
		&b.URL,
		&b.Title,
		&b.Description,
		&b.Author,
		&b.Source,
		&b.Image,
		&b.Category,
		&b.Language,
		&b.Country,
		&publishedAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if b.PublishedAt, err = parseTime(publishedAt); err != nil {
		return nil, err
	}
	if b.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if b.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}

	return &b, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t, nil
}
