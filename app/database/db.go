package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	_ "modernc.org/sqlite"
)

type DB struct {
	*sql.DB
	path string
}

// Open connects to the SQLite database at path. ":memory:" gives a private
// in-memory database backed by a single connection.
func Open(path string) (*DB, error) {
	inMemory := path == ":memory:"

	sqlDB, err := sql.Open("sqlite", dsn(path, inMemory))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if inMemory {
		sqlDB.SetMaxOpenConns(1)
	}

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	slog.Debug("Database opened", "path", path)

	return &DB{DB: sqlDB, path: path}, nil
}

// dsn carries the pragmas in the connection string so that every pooled
// connection applies them, not only the first one.
func dsn(path string, inMemory bool) string {
	pragmas := []string{"busy_timeout(5000)", "foreign_keys(1)"}
	if inMemory {
		path = "file::memory:"
	} else {
		pragmas = append(pragmas, "journal_mode(WAL)")
	}

	params := make([]string, 0, len(pragmas))
	for _, pragma := range pragmas {
		params = append(params, "_pragma="+pragma)
	}

	return path + "?" + strings.Join(params, "&")
}

func (db *DB) Health(ctx context.Context) map[string]interface{} {
	if err := db.PingContext(ctx); err != nil {
		return map[string]interface{}{
			"status": "unhealthy",
			"error":  err.Error(),
		}
	}

	return map[string]interface{}{
		"status": "healthy",
		"path":   db.path,
	}
}
