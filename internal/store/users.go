package store

import (
	"context"
	"fmt"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// User is an account row without its password hash.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	Created  string `json:"created"`
}

// Users lists all accounts, newest first. Password hashes never leave
// the store.
func (s *Store) Users(ctx context.Context) ([]User, error) {
	conn, err := s.take(ctx, "users")
	if err != nil {
		return nil, err
	}
	defer s.pool.Put(conn)

	var out []User
	err = sqlitex.Execute(conn,
		"SELECT id, username, role, created FROM users ORDER BY id DESC",
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				out = append(out, User{
					ID:       stmt.ColumnInt64(0),
					Username: stmt.ColumnText(1),
					Role:     stmt.ColumnText(2),
					Created:  stmt.ColumnText(3),
				})
				return nil
			},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("store: list users: %w", err)
	}
	return out, nil
}

// Credentials returns the account and password hash for a username, or
// ErrNotFound.
func (s *Store) Credentials(ctx context.Context, username string) (User, string, error) {
	conn, err := s.take(ctx, "credentials")
	if err != nil {
		return User{}, "", err
	}
	defer s.pool.Put(conn)

	var user User
	var hash string
	found := false
	err = sqlitex.Execute(conn,
		"SELECT id, username, role, created, password FROM users WHERE username = ?",
		&sqlitex.ExecOptions{
			Args: []any{username},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				found = true
				user = User{
					ID:       stmt.ColumnInt64(0),
					Username: stmt.ColumnText(1),
					Role:     stmt.ColumnText(2),
					Created:  stmt.ColumnText(3),
				}
				hash = stmt.ColumnText(4)
				return nil
			},
		},
	)
	if err != nil {
		return User{}, "", fmt.Errorf("store: lookup user: %w", err)
	}
	if !found {
		return User{}, "", ErrNotFound
	}
	return user, hash, nil
}

// CreateUser inserts an account with a pre-hashed password. A taken
// username returns ErrExists.
func (s *Store) CreateUser(ctx context.Context, username, hash, role string) (int64, error) {
	conn, err := s.take(ctx, "create user")
	if err != nil {
		return 0, err
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn,
		"INSERT INTO users (username, password, role) VALUES (?, ?, ?)",
		&sqlitex.ExecOptions{Args: []any{username, hash, role}},
	)
	if err != nil {
		if isUnique(err) {
			return 0, ErrExists
		}
		return 0, fmt.Errorf("store: create user: %w", err)
	}
	return conn.LastInsertRowID(), nil
}
