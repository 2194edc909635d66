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
	"log/slog"
	"regexp"
	"sort"
	"strings"
)

// Mode defines the behavior of a rule when it applies to a request.
const (
	// ModeAllow grants access to requests the rule applies to.
	ModeAllow = "allow"
	// ModeDeny revokes access from requests the rule applies to.
	ModeDeny = "deny"
)

// MethodAny is the canonical HTTP method wildcard. The compiler folds a
// blank method and the legacy "*" spelling into it.
const MethodAny = "any"

// RoleVisitor is the role assigned to unauthenticated callers. Rules
// without an explicit role list apply to visitors only.
const RoleVisitor = "visitor"

// RawRule is an access-control record as stored, either in the acl table
// of the durable store or under acl.rules in the configuration tree. All
// fields are loosely typed strings; compilation normalizes them.
type RawRule struct {
	// Route is a path prefix such as "/api/posts". Matching is
	// prefix-based on whole segments, so "/api/posts" also covers
	// "/api/posts/7" but not "/api/postscript".
	Route string `json:"route" koanf:"route"`
	// Method is an HTTP method, blank or "*" for any.
	Method string `json:"method" koanf:"method"`
	// UserRoles is a comma-separated list of roles the rule applies to.
	UserRoles string `json:"userRoles" koanf:"userRoles"`
	// Match selects polarity of the route test: "true" (or blank) keeps
	// it as is, anything else inverts it.
	Match string `json:"match" koanf:"match"`
	// Allow is either "allow" or "deny"; unknown values mean deny.
	Allow string `json:"allow" koanf:"allow"`
}

// Rule is a compiled, immutable access-control rule. Zero value is not
// usable; rules are produced by a Compiler.
type Rule struct {
	method string
	route  *regexp.Regexp
	invert bool
	roles  map[string]struct{}
	deny   bool
	raw    RawRule
}

// applies reports whether the rule covers the given request. The path
// must already carry the trailing slash appended during evaluation.
func (r *Rule) applies(method, path, role string) bool {
	if _, ok := r.roles[role]; !ok {
		return false
	}
	if r.method != MethodAny && r.method != method {
		return false
	}
	if r.route == nil {
		// A rule without a usable matcher never applies.
		return false
	}
	match := r.route.MatchString(path)
	if r.invert {
		match = !match
	}
	return match
}

// Deny reports whether the rule revokes rather than grants access.
func (r *Rule) Deny() bool {
	return r.deny
}

// Raw returns the record the rule was compiled from, for diagnostics.
func (r *Rule) Raw() RawRule {
	return r.raw
}

// LogValue renders the rule's raw record for structured diagnostics.
func (r *Rule) LogValue() slog.Value {
	mode := ModeAllow
	if r.deny {
		mode = ModeDeny
	}
	return slog.GroupValue(
		slog.String("route", r.raw.Route),
		slog.String("method", r.method),
		slog.String("roles", strings.Join(r.roleList(), ",")),
		slog.String("mode", mode),
		slog.Bool("inverted", r.invert),
	)
}

// roleList returns the compiled role set in sorted order.
func (r *Rule) roleList() []string {
	out := make([]string, 0, len(r.roles))
	for role := range r.roles {
		out = append(out, role)
	}
	sort.Strings(out)
	return out
}

// Ensure rules render themselves when logged.
var _ slog.LogValuer = (*Rule)(nil)
