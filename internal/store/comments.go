package store

import (
	"context"
	"fmt"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// Comment is a reply attached to a post.
type Comment struct {
	ID      int64  `json:"id"`
	PostID  int64  `json:"postId"`
	Author  string `json:"author"`
	Content string `json:"content"`
	Created string `json:"created"`
}

// Comments lists a post's comments, oldest first. The post must exist.
func (s *Store) Comments(ctx context.Context, postID int64) ([]Comment, error) {
	if _, err := s.Post(ctx, postID); err != nil {
		return nil, err
	}

	conn, err := s.take(ctx, "comments")
	if err != nil {
		return nil, err
	}
	defer s.pool.Put(conn)

	var out []Comment
	err = sqlitex.Execute(conn,
		"SELECT id, postId, author, content, created FROM comments WHERE postId = ? ORDER BY id",
		&sqlitex.ExecOptions{
			Args: []any{postID},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				out = append(out, Comment{
					ID:      stmt.ColumnInt64(0),
					PostID:  stmt.ColumnInt64(1),
					Author:  stmt.ColumnText(2),
					Content: stmt.ColumnText(3),
					Created: stmt.ColumnText(4),
				})
				return nil
			},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("store: list comments: %w", err)
	}
	return out, nil
}

// CreateComment attaches a comment to an existing post. A missing post
// returns ErrNotFound.
func (s *Store) CreateComment(ctx context.Context, postID int64, author, content string) (int64, error) {
	if _, err := s.Post(ctx, postID); err != nil {
		return 0, err
	}

	conn, err := s.take(ctx, "create comment")
	if err != nil {
		return 0, err
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn,
		"INSERT INTO comments (postId, author, content) VALUES (?, ?, ?)",
		&sqlitex.ExecOptions{Args: []any{postID, author, content}},
	)
	if err != nil {
		return 0, fmt.Errorf("store: create comment: %w", err)
	}
	return conn.LastInsertRowID(), nil
}

// DeleteComment removes a comment or returns ErrNotFound.
func (s *Store) DeleteComment(ctx context.Context, id int64) error {
	conn, err := s.take(ctx, "delete comment")
	if err != nil {
		return err
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn, "DELETE FROM comments WHERE id = ?",
		&sqlitex.ExecOptions{Args: []any{id}},
	)
	if err != nil {
		return fmt.Errorf("store: delete comment: %w", err)
	}
	if conn.Changes() == 0 {
		return ErrNotFound
	}
	return nil
}
