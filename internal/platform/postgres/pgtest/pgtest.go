// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package pgtest opens a migrated PostgreSQL pool for integration tests.

Tests are opt-in: without VIDTUBE_TEST_DATABASE_URL they are skipped. The
tables are truncated on every Open, so run integration packages with -p 1.

Usage:

	pool := pgtest.Open(t)
	repo := auth.NewUserRepository(pool)
*/
package pgtest

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/vidtube/internal/platform/migration"
	"github.com/taibuivan/vidtube/internal/platform/postgres"
)

// EnvDatabaseURL names the variable holding the test database DSN.
const EnvDatabaseURL = "VIDTUBE_TEST_DATABASE_URL"

// truncateAll empties every table created by data/migrations.
const truncateAll = `TRUNCATE library.watchhistory, core.video, users.subscription, users.account CASCADE`

// Open migrates the test database, truncates it and returns a pool that is
// closed when the test ends.
func Open(t testing.TB) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv(EnvDatabaseURL)
	if dsn == "" {
		t.Skipf("%s not set", EnvDatabaseURL)
	}

	logger := slog.New(slog.DiscardHandler)

	if err := migration.RunUp(dsn, migrationsDir(), logger); err != nil {
		t.Fatalf("pgtest: migrate: %v", err)
	}

	pool, err := postgres.NewPool(context.Background(), dsn, postgres.PoolOptions{MaxConns: 8, MinConns: 1}, logger)
	if err != nil {
		t.Fatalf("pgtest: open pool: %v", err)
	}
	t.Cleanup(pool.Close)

	if _, err := pool.Exec(context.Background(), truncateAll); err != nil {
		t.Fatalf("pgtest: truncate: %v", err)
	}

	return pool
}

// migrationsDir resolves data/migrations relative to this source file, so
// tests work from any package directory.
func migrationsDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "..", "..", "data", "migrations")
}
