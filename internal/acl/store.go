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

package acl

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// DefaultInterval is the delay between rule refreshes from the durable
// source.
const DefaultInterval = 60 * time.Second

// Source supplies raw access-control records from the durable store.
type Source interface {
	FetchRules(ctx context.Context) ([]RawRule, error)
}

// Store holds the live rule set and answers authorization queries
// against it. Rules come either from the configuration tree, in which
// case they are compiled once and pinned, or from a Source refreshed on
// a fixed interval by Run. Publication is an atomic snapshot swap, so
// Decide never blocks on a refresh.
type Store struct {
	logger    *slog.Logger
	compiler  *Compiler
	source    Source
	scheduler Scheduler
	enabled   bool
	pinned    bool
	interval  time.Duration
	rules     atomic.Pointer[RuleSet]
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used by the store and its refresh loop.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithEnabled toggles enforcement. When disabled, Decide allows every
// request without consulting the rule set.
func WithEnabled(enabled bool) Option {
	return func(s *Store) {
		s.enabled = enabled
	}
}

// WithInterval sets the refresh interval for source-backed rules.
func WithInterval(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithRules pins rules from the configuration tree. A non-empty list
// takes precedence over the source and disables the refresh loop.
func WithRules(raw []RawRule) Option {
	return func(s *Store) {
		if len(raw) > 0 {
			s.publish(s.compiler.Compile(raw))
			s.pinned = true
		}
	}
}

// WithScheduler replaces the refresh loop driver, mainly for tests.
func WithScheduler(scheduler Scheduler) Option {
	return func(s *Store) {
		if scheduler != nil {
			s.scheduler = scheduler
		}
	}
}

// New creates a rule store backed by the given source. Until the first
// refresh completes, the store holds the empty set and denies
// everything (unless rules were pinned via WithRules).
func New(source Source, opts ...Option) *Store {
	s := &Store{
		logger:   slog.New(slog.DiscardHandler),
		compiler: NewCompiler(),
		source:   source,
		enabled:  true,
		interval: DefaultInterval,
	}
	s.publish(RuleSet{})
	for _, opt := range opts {
		opt(s)
	}
	if s.scheduler == nil {
		s.scheduler = NewScheduler(s.logger)
	}
	return s
}

// Run drives the refresh loop until ctx is cancelled. It blocks, so it
// should be run in a separate goroutine. When rules are pinned from
// configuration the loop is not started and Run returns immediately.
func (s *Store) Run(ctx context.Context) {
	if s.pinned {
		s.logger.Info("Rules pinned from configuration, refresh disabled")
		return
	}
	s.scheduler.Dispatch(ctx, s.refresh)
}

// refresh fetches, compiles, and publishes the rule set. Any failure
// publishes the empty set: a broken source must fail closed, not keep
// serving rules that may have been revoked.
func (s *Store) refresh(ctx context.Context) time.Duration {
	raw, err := s.source.FetchRules(ctx)
	if err != nil {
		s.logger.Warn("Rule refresh failed", "error", err)
		s.publish(RuleSet{})
		return s.interval
	}
	s.publish(s.compiler.Compile(raw))
	s.logger.Debug("Rules refreshed", "count", len(raw))
	return s.interval
}

// publish atomically swaps in a new snapshot.
func (s *Store) publish(rules RuleSet) {
	s.rules.Store(&rules)
}

// Snapshot returns the current rule set. The result is immutable.
func (s *Store) Snapshot() RuleSet {
	return *s.rules.Load()
}

// Enabled reports whether enforcement is on.
func (s *Store) Enabled() bool {
	return s.enabled
}

// Decide implements the Engine interface against the live snapshot.
// With enforcement disabled every request is allowed outright.
func (s *Store) Decide(method, path, role string) Decision {
	if !s.enabled {
		return Decision{Allowed: true}
	}
	return s.Snapshot().Decide(method, path, role)
}

// Ensure Store satisfies the Engine contract.
var _ Engine = (*Store)(nil)
