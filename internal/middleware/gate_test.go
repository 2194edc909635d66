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

package middleware_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/corkboard/corkboard/internal/acl"
	"github.com/corkboard/corkboard/internal/debuglog"
	"github.com/corkboard/corkboard/internal/middleware"
	"github.com/corkboard/corkboard/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// engineFunc adapts a function to the acl.Engine interface.
type engineFunc func(method, path, role string) acl.Decision

func (f engineFunc) Decide(method, path, role string) acl.Decision {
	return f(method, path, role)
}

func allowAll(string, string, string) acl.Decision {
	return acl.Decision{Allowed: true}
}

func denyAll(string, string, string) acl.Decision {
	return acl.Decision{}
}

func gate(engine acl.Engine) middleware.Pipe {
	return middleware.Gate(middleware.GateConfig{
		Logger: slog.New(slog.DiscardHandler),
		Engine: engine,
		Codec:  session.NewCodec("secret"),
	})
}

func TestGateDenies(t *testing.T) {
	h := gate(engineFunc(denyAll))(http.HandlerFunc(
		func(http.ResponseWriter, *http.Request) {
			t.Fatal("handler must not run on denial")
		},
	))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/admin", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error": "Not allowed."}`, rr.Body.String())
}

func TestGateAllows(t *testing.T) {
	var seen session.Identity
	h := gate(engineFunc(allowAll))(http.HandlerFunc(
		func(res http.ResponseWriter, req *http.Request) {
			seen = session.FromContext(req.Context())
			res.WriteHeader(http.StatusNoContent)
		},
	))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/posts", nil))

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.True(t, seen.Anonymous())
	assert.Equal(t, session.Visitor, seen.Role)
}

func TestGateResolvesIdentity(t *testing.T) {
	codec := session.NewCodec("secret")
	var role, path string
	h := middleware.Gate(middleware.GateConfig{
		Logger: slog.New(slog.DiscardHandler),
		Engine: engineFunc(func(_, p, r string) acl.Decision {
			path, role = p, r
			return acl.Decision{Allowed: true}
		}),
		Codec: codec,
	})(http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
		id := session.FromContext(req.Context())
		assert.Equal(t, "alice", id.Subject)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
	req.AddCookie(&http.Cookie{
		Name:  session.DefaultCookie,
		Value: codec.Issue(session.Identity{Subject: "alice", Role: "admin"}),
	})
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "admin", role)
	assert.Equal(t, "/api/posts", path)
}

func TestGatePanicDeniesNot500(t *testing.T) {
	h := gate(engineFunc(func(string, string, string) acl.Decision {
		panic("rule table corrupted")
	}))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run after a gate panic")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/posts", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.JSONEq(t, `{"error": "Not allowed."}`, rr.Body.String())
}

func TestGateHandlerPanicIsNotSwallowed(t *testing.T) {
	// Panics past the gate belong to Catch, not to the gate.
	h := gate(engineFunc(allowAll))(http.HandlerFunc(
		func(http.ResponseWriter, *http.Request) {
			panic("downstream")
		},
	))

	assert.Panics(t, func() {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

func TestGateRecordsDiagnostics(t *testing.T) {
	rules := acl.New(nil,
		acl.WithRules([]acl.RawRule{
			{Route: "/api/admin", Method: "*", UserRoles: "admin", Allow: "allow"},
		}),
	)
	codec := session.NewCodec("secret")
	h := middleware.Gate(middleware.GateConfig{
		Logger:   slog.New(slog.DiscardHandler),
		Engine:   rules,
		Codec:    codec,
		Detailed: true,
	})(http.HandlerFunc(func(res http.ResponseWriter, _ *http.Request) {
		res.WriteHeader(http.StatusOK)
	}))

	ctx, rec := debuglog.Attach(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/admin/users", nil).WithContext(ctx)
	req.AddCookie(&http.Cookie{
		Name:  session.DefaultCookie,
		Value: codec.Issue(session.Identity{Subject: "root", Role: "admin"}),
	})
	h.ServeHTTP(httptest.NewRecorder(), req)

	keys := make(map[string]bool)
	for _, attr := range rec.Attrs() {
		keys[attr.Key] = true
	}
	require.True(t, keys["role"])
	require.True(t, keys["allowed"])
	require.True(t, keys["subject"])
	require.True(t, keys["appliedAllowRule"])
}
