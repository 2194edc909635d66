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

package store_test

import (
	"context"
	"testing"

	"github.com/corkboard/corkboard/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// open creates an in-memory store. Pool size must be 1 because each
// in-memory connection is its own database.
func open(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(store.Config{Path: "file::memory:?mode=memory&cache=shared", Pool: 1})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenSeedsEmptyDatabase(t *testing.T) {
	s := open(t)
	ctx := context.Background()

	user, hash, err := s.Credentials(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, "admin", user.Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("admin")))

	posts, err := s.Posts(ctx, "")
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "Welcome to the board", posts[0].Title)

	rules, err := s.FetchRules(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, rules)
}

func TestPing(t *testing.T) {
	s := open(t)
	assert.NoError(t, s.Ping(context.Background()))
}

func TestUsers(t *testing.T) {
	s := open(t)
	ctx := context.Background()

	t.Run("create and look up", func(t *testing.T) {
		id, err := s.CreateUser(ctx, "alice", "hash", "user")
		require.NoError(t, err)
		assert.Positive(t, id)

		user, hash, err := s.Credentials(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, "alice", user.Username)
		assert.Equal(t, "user", user.Role)
		assert.Equal(t, "hash", hash)
	})

	t.Run("duplicate username", func(t *testing.T) {
		_, err := s.CreateUser(ctx, "alice", "hash2", "user")
		assert.ErrorIs(t, err, store.ErrExists)
	})

	t.Run("unknown username", func(t *testing.T) {
		_, _, err := s.Credentials(ctx, "nobody")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("list omits hashes", func(t *testing.T) {
		users, err := s.Users(ctx)
		require.NoError(t, err)
		assert.Len(t, users, 2) // alice + seeded admin
	})
}

func TestPosts(t *testing.T) {
	s := open(t)
	ctx := context.Background()

	id, err := s.CreatePost(ctx, store.Post{
		Title:    "First",
		Content:  "body",
		Author:   "alice",
		Category: "general",
	})
	require.NoError(t, err)

	t.Run("get", func(t *testing.T) {
		p, err := s.Post(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "First", p.Title)
		assert.NotEmpty(t, p.Created)
		assert.Empty(t, p.Updated)
	})

	t.Run("filter by category", func(t *testing.T) {
		posts, err := s.Posts(ctx, "general")
		require.NoError(t, err)
		require.Len(t, posts, 2) // seeded welcome post + First
		posts, err = s.Posts(ctx, "other")
		require.NoError(t, err)
		assert.Empty(t, posts)
	})

	t.Run("update stamps updated", func(t *testing.T) {
		err := s.UpdatePost(ctx, id, store.Post{
			Title:    "Edited",
			Content:  "new body",
			Category: "general",
		})
		require.NoError(t, err)

		p, err := s.Post(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "Edited", p.Title)
		assert.NotEmpty(t, p.Updated)
	})

	t.Run("update missing", func(t *testing.T) {
		err := s.UpdatePost(ctx, 9999, store.Post{Title: "x"})
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, s.DeletePost(ctx, id))
		_, err := s.Post(ctx, id)
		assert.ErrorIs(t, err, store.ErrNotFound)
		assert.ErrorIs(t, s.DeletePost(ctx, id), store.ErrNotFound)
	})
}

func TestComments(t *testing.T) {
	s := open(t)
	ctx := context.Background()

	postID, err := s.CreatePost(ctx, store.Post{
		Title: "t", Content: "c", Author: "alice",
	})
	require.NoError(t, err)

	t.Run("create and list", func(t *testing.T) {
		_, err := s.CreateComment(ctx, postID, "bob", "nice post")
		require.NoError(t, err)
		_, err = s.CreateComment(ctx, postID, "carol", "agreed")
		require.NoError(t, err)

		comments, err := s.Comments(ctx, postID)
		require.NoError(t, err)
		require.Len(t, comments, 2)
		assert.Equal(t, "bob", comments[0].Author)
	})

	t.Run("comment on missing post", func(t *testing.T) {
		_, err := s.CreateComment(ctx, 9999, "bob", "into the void")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("cascade on post delete", func(t *testing.T) {
		require.NoError(t, s.DeletePost(ctx, postID))
		_, err := s.Comments(ctx, postID)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("delete missing comment", func(t *testing.T) {
		assert.ErrorIs(t, s.DeleteComment(ctx, 9999), store.ErrNotFound)
	})
}

func TestFetchRulesOrder(t *testing.T) {
	s := open(t)

	rules, err := s.FetchRules(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, rules)

	// Allow rows come before deny rows so denies win under
	// last-writer-wins evaluation.
	sawDeny := false
	for _, r := range rules {
		if r.Allow != "allow" {
			sawDeny = true
		} else {
			assert.False(t, sawDeny, "allow rule after a deny rule")
		}
	}
}
