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

// Decision captures the outcome of evaluating a rule set for a request.
type Decision struct {
	// Allowed indicates whether access is granted. If false, the caller
	// should immediately reject the request.
	Allowed bool
	// AllowRule is the last rule that flipped the decision to allowed,
	// or nil if no allow rule ever took effect.
	AllowRule *Rule
	// DenyRule is the last rule that flipped the decision back to
	// denied, or nil if no deny rule ever took effect.
	DenyRule *Rule
}

// Engine decides whether a request may proceed.
type Engine interface {
	// Decide evaluates the current rule set against the request's
	// method, path, and caller role. It never fails; when in doubt the
	// answer is deny.
	Decide(method, path, role string) Decision
}

// RuleSet is an ordered, immutable snapshot of compiled rules. The
// slice is scanned front to back and later rules override earlier ones,
// so an empty set denies everything.
type RuleSet []Rule

// Decide runs the request through every rule in order. An allow rule
// that applies turns the decision on; a deny rule that applies turns it
// off again; rules that do not apply leave it untouched. The last rule
// to change the decision wins.
func (rs RuleSet) Decide(method, path, role string) Decision {
	var d Decision
	// Both the compiled matchers and the probe end on "/", which makes
	// the prefix test stop at segment boundaries.
	probe := path + "/"
	for i := range rs {
		r := &rs[i]
		if !r.applies(method, probe, role) {
			continue
		}
		prev := d.Allowed
		d.Allowed = !r.deny
		if d.Allowed != prev {
			if r.deny {
				d.DenyRule = r
			} else {
				d.AllowRule = r
			}
		}
	}
	return d
}
