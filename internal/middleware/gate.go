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

package middleware

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/corkboard/corkboard/internal/acl"
	"github.com/corkboard/corkboard/internal/debuglog"
	"github.com/corkboard/corkboard/internal/session"
	"github.com/goccy/go-json"
)

// deniedBody is the fixed response body sent on every denial.
var deniedBody = map[string]string{"error": "Not allowed."}

// GateConfig wires the request gate's collaborators.
type GateConfig struct {
	Logger *slog.Logger
	Engine acl.Engine
	Codec  *session.Codec
	// Detailed adds the applied allow/deny rules to the per-request
	// diagnostics.
	Detailed bool
}

// Gate enforces the access-control decision on every request. The
// caller's identity is resolved from the session cookie, the engine is
// consulted, and a denial short-circuits the response with 405. A panic
// anywhere in this stage counts as a denial, never as a server error.
func Gate(cfg GateConfig) Pipe {
	logger := cfg.Logger.With("name", "middleware.Gate")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
			decision, authed, err := decide(cfg, req)
			if err != nil {
				// Fail closed. The fault is logged, not exposed.
				logger.Error(
					"Authorization stage failed",
					"method", req.Method,
					"path", req.URL.Path,
					"error", err,
				)
				deny(res)
				return
			}

			rec := debuglog.From(req.Context())
			rec.Add("role", authed.Role, "allowed", decision.Allowed)
			if !authed.Anonymous() {
				rec.Add("subject", authed.Subject)
			}
			if cfg.Detailed {
				if decision.AllowRule != nil {
					rec.Add("appliedAllowRule", decision.AllowRule)
				}
				if decision.DenyRule != nil {
					rec.Add("appliedDenyRule", decision.DenyRule)
				}
			}

			if !decision.Allowed {
				deny(res)
				return
			}
			next.ServeHTTP(res, req.WithContext(
				session.WithIdentity(req.Context(), authed),
			))
		})
	}
}

// decide resolves the identity and evaluates the rules, converting any
// panic in either step into an error for the caller to fail closed on.
func decide(cfg GateConfig, req *http.Request) (d acl.Decision, id session.Identity, err error) {
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("panic: %v", v)
		}
	}()
	id, _ = cfg.Codec.Read(req)
	d = cfg.Engine.Decide(req.Method, req.URL.Path, id.Role)
	return
}

// deny writes the fixed denial response.
func deny(res http.ResponseWriter) {
	res.Header().Set("Content-Type", "application/json")
	res.WriteHeader(http.StatusMethodNotAllowed)
	_ = json.NewEncoder(res).Encode(deniedBody)
}
