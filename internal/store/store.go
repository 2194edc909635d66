// Copyright (c) 2025-present the Corkboard authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package store provides SQLite-backed persistence for users, posts,
// comments, and access-control rules.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = errors.New("not found")

// ErrExists is returned when a uniqueness constraint rejects a write.
var ErrExists = errors.New("already exists")

// Config holds the parameters for opening a store.
type Config struct {
	// Path is the SQLite database file, created if absent. Use
	// ":memory:" with Pool = 1 for tests.
	Path string
	// Pool is the connection pool size; zero means 4.
	Pool int
	// Logger receives operational messages. Nil discards them.
	Logger *slog.Logger
}

// Store wraps a SQLite connection pool. It is safe for concurrent use;
// individual connections are not, so every operation takes its own
// connection and returns it when done.
type Store struct {
	pool   *sqlitex.Pool
	logger *slog.Logger
}

// Open creates the connection pool, applies per-connection pragmas,
// bootstraps the schema, and seeds a minimal data set into an empty
// database. The caller must Close the store when done.
func Open(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("store: Path is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	size := cfg.Pool
	if size <= 0 {
		size = 4
	}

	pool, err := sqlitex.NewPool(cfg.Path, sqlitex.PoolOptions{
		PoolSize:    size,
		PrepareConn: prepare,
	})
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", cfg.Path, err)
	}

	s := &Store{pool: pool, logger: logger.With("name", "store")}
	if err := s.bootstrap(context.Background()); err != nil {
		_ = pool.Close()
		return nil, err
	}
	s.logger.Info("Database opened", "path", cfg.Path, "pool", size)
	return s, nil
}

// prepare applies standard pragmas to every pooled connection.
func prepare(conn *sqlite.Conn) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if err := sqlitex.ExecuteTransient(conn, pragma, nil); err != nil {
			return fmt.Errorf("store: %s: %w", pragma, err)
		}
	}
	return nil
}

// Close closes all pooled connections.
func (s *Store) Close() error {
	if err := s.pool.Close(); err != nil {
		return fmt.Errorf("store: close: %w", err)
	}
	return nil
}

// Ping verifies that a connection can be taken and queried. Used by the
// readiness probe.
func (s *Store) Ping(ctx context.Context) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer s.pool.Put(conn)
	return sqlitex.ExecuteTransient(conn, "SELECT 1", nil)
}

// take borrows a connection, wrapping the error with the operation name.
func (s *Store) take(ctx context.Context, op string) (*sqlite.Conn, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: %s: %w", op, err)
	}
	return conn, nil
}

// isUnique reports whether err is a uniqueness-constraint violation.
func isUnique(err error) bool {
	return sqlite.ErrCode(err) == sqlite.ResultConstraintUnique
}
