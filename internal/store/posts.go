package store

import (
	"context"
	"fmt"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// Post is a board post.
type Post struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	Author   string `json:"author"`
	Category string `json:"category"`
	Created  string `json:"created"`
	Updated  string `json:"updated,omitempty"`
}

// scanPost reads a post row in SELECT column order.
func scanPost(stmt *sqlite.Stmt) Post {
	return Post{
		ID:       stmt.ColumnInt64(0),
		Title:    stmt.ColumnText(1),
		Content:  stmt.ColumnText(2),
		Author:   stmt.ColumnText(3),
		Category: stmt.ColumnText(4),
		Created:  stmt.ColumnText(5),
		Updated:  stmt.ColumnText(6),
	}
}

const postColumns = "id, title, content, author, category, created, updated"

// Posts lists posts, newest first, optionally restricted to a category.
func (s *Store) Posts(ctx context.Context, category string) ([]Post, error) {
	conn, err := s.take(ctx, "posts")
	if err != nil {
		return nil, err
	}
	defer s.pool.Put(conn)

	query := "SELECT " + postColumns + " FROM posts ORDER BY datetime(created) DESC, id DESC"
	var args []any
	if category != "" {
		query = "SELECT " + postColumns + " FROM posts WHERE category = ? " +
			"ORDER BY datetime(created) DESC, id DESC"
		args = []any{category}
	}

	var out []Post
	err = sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
		Args: args,
		ResultFunc: func(stmt *sqlite.Stmt) error {
			out = append(out, scanPost(stmt))
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("store: list posts: %w", err)
	}
	return out, nil
}

// Post returns a single post or ErrNotFound.
func (s *Store) Post(ctx context.Context, id int64) (Post, error) {
	conn, err := s.take(ctx, "post")
	if err != nil {
		return Post{}, err
	}
	defer s.pool.Put(conn)

	var post Post
	found := false
	err = sqlitex.Execute(conn,
		"SELECT "+postColumns+" FROM posts WHERE id = ?",
		&sqlitex.ExecOptions{
			Args: []any{id},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				found = true
				post = scanPost(stmt)
				return nil
			},
		},
	)
	if err != nil {
		return Post{}, fmt.Errorf("store: get post: %w", err)
	}
	if !found {
		return Post{}, ErrNotFound
	}
	return post, nil
}

// CreatePost inserts a post and returns its id.
func (s *Store) CreatePost(ctx context.Context, p Post) (int64, error) {
	conn, err := s.take(ctx, "create post")
	if err != nil {
		return 0, err
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn,
		"INSERT INTO posts (title, content, author, category) VALUES (?, ?, ?, ?)",
		&sqlitex.ExecOptions{Args: []any{p.Title, p.Content, p.Author, p.Category}},
	)
	if err != nil {
		return 0, fmt.Errorf("store: create post: %w", err)
	}
	return conn.LastInsertRowID(), nil
}

// UpdatePost rewrites a post's editable fields and stamps updated.
// Missing rows return ErrNotFound.
func (s *Store) UpdatePost(ctx context.Context, id int64, p Post) error {
	conn, err := s.take(ctx, "update post")
	if err != nil {
		return err
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn,
		"UPDATE posts SET title = ?, content = ?, category = ?, updated = datetime('now') WHERE id = ?",
		&sqlitex.ExecOptions{Args: []any{p.Title, p.Content, p.Category, id}},
	)
	if err != nil {
		return fmt.Errorf("store: update post: %w", err)
	}
	if conn.Changes() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeletePost removes a post; its comments cascade away with it.
func (s *Store) DeletePost(ctx context.Context, id int64) error {
	conn, err := s.take(ctx, "delete post")
	if err != nil {
		return err
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn, "DELETE FROM posts WHERE id = ?",
		&sqlitex.ExecOptions{Args: []any{id}},
	)
	if err != nil {
		return fmt.Errorf("store: delete post: %w", err)
	}
	if conn.Changes() == 0 {
		return ErrNotFound
	}
	return nil
}
