package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lysyi3m/news-comb/app/news"
)

func newTestRepository(t *testing.T) *SQLBookmarkRepository {
	t.Helper()

	db, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	version, dirty, err := RunMigrations(db)
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)

	return NewBookmarkRepository(db)
}

func testRecord(n int) news.Record {
	return news.Record{
		Title:       fmt.Sprintf("Headline %d", n),
		Description: "Something happened",
		URL:         fmt.Sprintf("https://example.com/story/%d", n),
		Source:      "Example News",
		Category:    "general",
		Language:    "en",
		Country:     "us",
		PublishedAt: time.Date(2025, 4, 20, 9, n, 0, 0, time.UTC),
	}
}

func TestBookmarkRepository_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	saved, err := repo.Save(ctx, testRecord(1))
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)
	assert.Equal(t, "Headline 1", saved.Title)
	assert.True(t, saved.PublishedAt.Equal(testRecord(1).PublishedAt))
	assert.False(t, saved.CreatedAt.IsZero())

	got, err := repo.Get(ctx, testRecord(1).URL)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, got.ID)
	assert.Equal(t, "Example News", got.Source)
}

func TestBookmarkRepository_SaveUpserts(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	first, err := repo.Save(ctx, testRecord(1))
	require.NoError(t, err)

	updated := testRecord(1)
	updated.Title = "Headline 1 (updated)"
	second, err := repo.Save(ctx, updated)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Headline 1 (updated)", second.Title)
	assert.True(t, first.CreatedAt.Equal(second.CreatedAt))

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestBookmarkRepository_SaveValidation(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.Save(context.Background(), news.Record{Title: "No URL"})
	assert.Error(t, err)

	_, err = repo.Save(context.Background(), news.Record{URL: "https://example.com"})
	assert.Error(t, err)
}

func TestBookmarkRepository_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	base := time.Date(2025, 4, 20, 12, 0, 0, 0, time.UTC)
	for i := 1; i <= 5; i++ {
		at := base.Add(time.Duration(i) * time.Minute)
		repo.now = func() time.Time { return at }
		_, err := repo.Save(ctx, testRecord(i))
		require.NoError(t, err)
	}

	page, err := repo.List(ctx, 2, 0)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "Headline 5", page[0].Title)
	assert.Equal(t, "Headline 4", page[1].Title)

	page, err = repo.List(ctx, 10, 3)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "Headline 2", page[0].Title)
	assert.Equal(t, "Headline 1", page[1].Title)

	page, err = repo.List(ctx, 10, 50)
	require.NoError(t, err)
	assert.Empty(t, page)
}

func TestBookmarkRepository_Delete(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	_, err := repo.Save(ctx, testRecord(1))
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, testRecord(1).URL))

	_, err = repo.Get(ctx, testRecord(1).URL)
	assert.True(t, errors.Is(err, ErrBookmarkNotFound))

	err = repo.Delete(ctx, testRecord(1).URL)
	assert.True(t, errors.Is(err, ErrBookmarkNotFound))
}

func TestRunMigrations_FileDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "news.db")

	db, err := Open(path)
	require.NoError(t, err)
	defer db.Close()

	_, _, err = RunMigrations(db)
	require.NoError(t, err)

	version, dirty, err := RunMigrations(db)
	require.NoError(t, err, "second run is a no-op")
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)

	health := db.Health(context.Background())
	assert.Equal(t, "healthy", health["status"])
}

func newFileRepository(t *testing.T) (*DB, *SQLBookmarkRepository) {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "news.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, _, err = RunMigrations(db)
	require.NoError(t, err)

	return db, NewBookmarkRepository(db)
}

func TestOpen_PragmasApplyToEveryConnection(t *testing.T) {
	db, _ := newFileRepository(t)
	ctx := context.Background()

	conns := make([]*sql.Conn, 0, 3)
	defer func() {
		for _, conn := range conns {
			conn.Close()
		}
	}()

	for i := 0; i < 3; i++ {
		conn, err := db.Conn(ctx)
		require.NoError(t, err)
		conns = append(conns, conn)

		var timeout, foreignKeys int
		require.NoError(t, conn.QueryRowContext(ctx, "PRAGMA busy_timeout").Scan(&timeout))
		require.NoError(t, conn.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&foreignKeys))
		assert.Equal(t, 5000, timeout, "connection %d", i)
		assert.Equal(t, 1, foreignKeys, "connection %d", i)
	}
}

func TestBookmarkRepository_ConcurrentSaves(t *testing.T) {
	_, repo := newFileRepository(t)
	ctx := context.Background()

	const writers = 64

	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			if _, err := repo.Save(ctx, testRecord(n)); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent save failed: %v", err)
	}

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, writers, count)
}
