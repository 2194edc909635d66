package store

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// schema creates the tables and indexes on first open. Statements are
// idempotent so re-opening an existing database is a no-op.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id       INTEGER PRIMARY KEY AUTOINCREMENT,
    username TEXT NOT NULL UNIQUE,
    password TEXT NOT NULL,
    role     TEXT NOT NULL DEFAULT 'user' CHECK (role IN ('admin', 'user')),
    created  TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS posts (
    id       INTEGER PRIMARY KEY AUTOINCREMENT,
    title    TEXT NOT NULL,
    content  TEXT NOT NULL,
    author   TEXT NOT NULL,
    category TEXT NOT NULL DEFAULT '',
    created  TEXT NOT NULL DEFAULT (datetime('now')),
    updated  TEXT
);

CREATE INDEX IF NOT EXISTS idx_posts_category ON posts (category);
CREATE INDEX IF NOT EXISTS idx_posts_created  ON posts (created);

CREATE TABLE IF NOT EXISTS comments (
    id      INTEGER PRIMARY KEY AUTOINCREMENT,
    postId  INTEGER NOT NULL REFERENCES posts (id) ON DELETE CASCADE,
    author  TEXT NOT NULL,
    content TEXT NOT NULL,
    created TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_comments_post ON comments (postId);

CREATE TABLE IF NOT EXISTS acl (
    id        INTEGER PRIMARY KEY AUTOINCREMENT,
    route     TEXT NOT NULL DEFAULT '',
    method    TEXT NOT NULL DEFAULT '*',
    userRoles TEXT NOT NULL DEFAULT '',
    match     TEXT NOT NULL DEFAULT 'true',
    allow     TEXT NOT NULL DEFAULT 'deny'
);
`

// seedRules is the rule table written into an empty database. Allows
// are listed before denies, mirroring the ORDER BY allow fetch: a deny
// evaluated later always overrides an earlier allow.
var seedRules = []struct {
	route, method, roles, match, allow string
}{
	{"/api/health", "GET", "visitor,user,admin", "true", "allow"},
	{"/api/auth", "*", "visitor,user,admin", "true", "allow"},
	{"/api/session", "GET", "visitor,user,admin", "true", "allow"},
	{"/api/posts", "GET", "visitor,user,admin", "true", "allow"},
	{"/api/posts", "*", "user,admin", "true", "allow"},
	{"/api/comments", "*", "user,admin", "true", "allow"},
	{"/api/users", "GET", "admin", "true", "allow"},
	{"/api/admin", "*", "admin", "true", "allow"},
}

// bootstrap creates the schema and, when the database is brand new,
// seeds the admin account, a welcome post, and the default rule table.
func (s *Store) bootstrap(ctx context.Context) error {
	conn, err := s.take(ctx, "bootstrap")
	if err != nil {
		return err
	}
	defer s.pool.Put(conn)

	if err := sqlitex.ExecuteScript(conn, schema, nil); err != nil {
		return fmt.Errorf("store: create schema: %w", err)
	}

	var users int64
	err = sqlitex.Execute(conn, "SELECT COUNT(*) FROM users", &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			users = stmt.ColumnInt64(0)
			return nil
		},
	})
	if err != nil {
		return fmt.Errorf("store: count users: %w", err)
	}
	if users > 0 {
		return nil
	}

	// Fresh database: seed an admin account and a welcome post. The
	// default password is meant to be changed on first login.
	hash, err := bcrypt.GenerateFromPassword([]byte("admin"), 12)
	if err != nil {
		return fmt.Errorf("store: hash seed password: %w", err)
	}
	err = sqlitex.Execute(conn,
		"INSERT INTO users (username, password, role) VALUES (?, ?, 'admin')",
		&sqlitex.ExecOptions{Args: []any{"admin", string(hash)}},
	)
	if err != nil {
		return fmt.Errorf("store: seed admin: %w", err)
	}

	err = sqlitex.Execute(conn,
		"INSERT INTO posts (title, content, author, category) VALUES (?, ?, ?, ?)",
		&sqlitex.ExecOptions{Args: []any{
			"Welcome to the board",
			"This is the first post. Sign in as admin to manage the board.",
			"admin",
			"general",
		}},
	)
	if err != nil {
		return fmt.Errorf("store: seed post: %w", err)
	}

	for _, r := range seedRules {
		err = sqlitex.Execute(conn,
			"INSERT INTO acl (route, method, userRoles, match, allow) VALUES (?, ?, ?, ?, ?)",
			&sqlitex.ExecOptions{Args: []any{r.route, r.method, r.roles, r.match, r.allow}},
		)
		if err != nil {
			return fmt.Errorf("store: seed rules: %w", err)
		}
	}

	s.logger.Info("Seeded empty database")
	return nil
}
