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

package acl_test

import (
	"context"
	"errors"
	"testing"

	"github.com/corkboard/corkboard/internal/acl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sourceFunc adapts a function to the acl.Source interface.
type sourceFunc func(ctx context.Context) ([]acl.RawRule, error)

func (f sourceFunc) FetchRules(ctx context.Context) ([]acl.RawRule, error) {
	return f(ctx)
}

// onceScheduler runs the job a single time and returns, giving tests a
// synchronous refresh.
type onceScheduler struct{}

func (onceScheduler) Dispatch(ctx context.Context, job acl.Job) {
	job(ctx)
}

func TestStoreDeniesBeforeFirstRefresh(t *testing.T) {
	s := acl.New(sourceFunc(func(context.Context) ([]acl.RawRule, error) {
		return nil, nil
	}))
	d := s.Decide("GET", "/api/posts", "admin")
	assert.False(t, d.Allowed)
}

func TestStoreBypass(t *testing.T) {
	s := acl.New(
		sourceFunc(func(context.Context) ([]acl.RawRule, error) {
			return []acl.RawRule{{Route: "/", UserRoles: "admin", Allow: "deny"}}, nil
		}),
		acl.WithEnabled(false),
	)
	d := s.Decide("DELETE", "/api/admin", "visitor")
	assert.True(t, d.Allowed)
	assert.Nil(t, d.AllowRule)
	assert.Nil(t, d.DenyRule)
}

func TestStoreRefreshPublishes(t *testing.T) {
	s := acl.New(
		sourceFunc(func(context.Context) ([]acl.RawRule, error) {
			return []acl.RawRule{
				{Route: "/api/posts", Method: "GET", UserRoles: "visitor", Allow: "allow"},
			}, nil
		}),
		acl.WithScheduler(onceScheduler{}),
	)
	s.Run(context.Background())

	assert.True(t, s.Decide("GET", "/api/posts", "visitor").Allowed)
	assert.False(t, s.Decide("POST", "/api/posts", "visitor").Allowed)
}

func TestStoreRefreshFailsClosed(t *testing.T) {
	calls := 0
	s := acl.New(
		sourceFunc(func(context.Context) ([]acl.RawRule, error) {
			calls++
			if calls == 1 {
				return []acl.RawRule{
					{Route: "/", UserRoles: "visitor", Allow: "allow"},
				}, nil
			}
			return nil, errors.New("database gone")
		}),
		acl.WithScheduler(onceScheduler{}),
	)

	s.Run(context.Background())
	require.True(t, s.Decide("GET", "/api/posts", "visitor").Allowed)

	// The second refresh fails; the snapshot must drop to the empty set
	// rather than keep serving stale rules.
	s.Run(context.Background())
	assert.False(t, s.Decide("GET", "/api/posts", "visitor").Allowed)
}

func TestStorePinnedRulesDisableRefresh(t *testing.T) {
	fetched := false
	s := acl.New(
		sourceFunc(func(context.Context) ([]acl.RawRule, error) {
			fetched = true
			return nil, nil
		}),
		acl.WithScheduler(onceScheduler{}),
		acl.WithRules([]acl.RawRule{
			{Route: "/api/posts", Method: "GET", UserRoles: "visitor", Allow: "allow"},
		}),
	)

	// Run returns immediately without consulting the source.
	s.Run(context.Background())
	assert.False(t, fetched)
	assert.True(t, s.Decide("GET", "/api/posts", "visitor").Allowed)
}

func TestStoreSnapshotIsStable(t *testing.T) {
	calls := 0
	s := acl.New(
		sourceFunc(func(context.Context) ([]acl.RawRule, error) {
			calls++
			if calls == 1 {
				return []acl.RawRule{
					{Route: "/", UserRoles: "visitor", Allow: "allow"},
				}, nil
			}
			return nil, nil
		}),
		acl.WithScheduler(onceScheduler{}),
	)

	s.Run(context.Background())
	snap := s.Snapshot()
	require.Len(t, snap, 1)

	// A later refresh swaps the published pointer but must not mutate
	// the snapshot already handed out.
	s.Run(context.Background())
	assert.Len(t, snap, 1)
	assert.Empty(t, s.Snapshot())
}
