package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/yigit/jobportal/internal/pkg/logger"
	_ "modernc.org/sqlite" // registers the "sqlite" database/sql driver
)

const sqlitePragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite"

// MemoryDSN is an in-memory SQLite database, used by tests
const MemoryDSN = ":memory:"

// SQLiteDSN turns a file path (or ":memory:") into a DSN with foreign keys
// enabled and a busy timeout.
func SQLiteDSN(path string) string {
	if path == MemoryDSN {
		return "file::memory:?" + sqlitePragmas
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return "file:" + path + sep + sqlitePragmas
}

// NewSQLiteDB opens a SQLite database. An in-memory database is pinned to a
// single connection, otherwise every connection would see its own empty
// database.
func NewSQLiteDB(path string) (*sql.DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	sqlDB, err := sql.Open("sqlite", SQLiteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// SQLite allows a single writer; one connection avoids SQLITE_BUSY under load.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxLifetime(0)

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to establish sqlite connection: %w", err)
	}

	logger.Info().Str("path", path).Msg("Opened SQLite database")
	return sqlDB, nil
}
