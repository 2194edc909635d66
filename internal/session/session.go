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

// Package session issues and resolves signed session tokens. A token is
// the plain string "subject|role|signature" where the signature is an
// HMAC over "subject|role" with the server secret. Resolution fails
// closed: anything malformed or forged is the anonymous visitor, never
// an error.
package session

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"time"
)

// Visitor is the role of unauthenticated callers.
const Visitor = "visitor"

// DefaultCookie is the session cookie name.
const DefaultCookie = "corkboard_session"

// DefaultLifetime bounds how long an issued cookie stays valid.
const DefaultLifetime = 2 * time.Hour

// delimiter separates token fields. Subjects must not contain it; the
// registration handler enforces an alphanumeric username charset.
const delimiter = "|"

// Identity is the request-scoped caller identity.
type Identity struct {
	Subject string
	Role    string
}

// Anonymous reports whether the identity belongs to no signed-in user.
func (id Identity) Anonymous() bool {
	return id.Subject == ""
}

// anonymous is the identity every failed resolution collapses to.
var anonymous = Identity{Role: Visitor}

// Codec signs and resolves session tokens and moves them through the
// session cookie.
type Codec struct {
	signer   Signer
	cookie   string
	lifetime time.Duration
}

// Option configures a Codec.
type Option func(*Codec)

// WithCookie overrides the session cookie name.
func WithCookie(name string) Option {
	return func(c *Codec) {
		if name != "" {
			c.cookie = name
		}
	}
}

// WithLifetime overrides the cookie lifetime.
func WithLifetime(d time.Duration) Option {
	return func(c *Codec) {
		if d > 0 {
			c.lifetime = d
		}
	}
}

// WithSigner replaces the token signer, mainly for tests.
func WithSigner(s Signer) Option {
	return func(c *Codec) {
		if s != nil {
			c.signer = s
		}
	}
}

// NewCodec creates a Codec keyed with the server secret.
func NewCodec(secret string, opts ...Option) *Codec {
	c := &Codec{
		signer:   NewSigner(secret),
		cookie:   DefaultCookie,
		lifetime: DefaultLifetime,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Issue produces a signed token for the given identity.
func (c *Codec) Issue(id Identity) string {
	payload := id.Subject + delimiter + id.Role
	return payload + delimiter + c.signer.Sign(payload)
}

// Resolve verifies a token and returns the identity it carries. A
// malformed or forged token resolves to the anonymous visitor with
// ok = false.
func (c *Codec) Resolve(token string) (Identity, bool) {
	parts := strings.Split(token, delimiter)
	if len(parts) != 3 {
		return anonymous, false
	}
	subject, role, sig := parts[0], parts[1], parts[2]
	if subject == "" || role == "" {
		return anonymous, false
	}
	want := c.signer.Sign(subject + delimiter + role)
	if subtle.ConstantTimeCompare([]byte(want), []byte(sig)) != 1 {
		return anonymous, false
	}
	return Identity{Subject: subject, Role: role}, true
}

// Read resolves the identity carried by the request's session cookie.
// Requests without a cookie resolve to the anonymous visitor.
func (c *Codec) Read(req *http.Request) (Identity, bool) {
	cookie, err := req.Cookie(c.cookie)
	if err != nil {
		return anonymous, false
	}
	return c.Resolve(cookie.Value)
}

// Write sets the session cookie for the given identity.
func (c *Codec) Write(res http.ResponseWriter, id Identity) {
	http.SetCookie(res, &http.Cookie{
		Name:     c.cookie,
		Value:    c.Issue(id),
		Path:     "/",
		MaxAge:   int(c.lifetime.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Clear expires the session cookie.
func (c *Codec) Clear(res http.ResponseWriter) {
	http.SetCookie(res, &http.Cookie{
		Name:     c.cookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ctxKey scopes the identity stored on the request context.
type ctxKey struct{}

// WithIdentity stashes the resolved identity on the context.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the identity resolved for the request, or the
// anonymous visitor if none was stored.
func FromContext(ctx context.Context) Identity {
	if id, ok := ctx.Value(ctxKey{}).(Identity); ok {
		return id
	}
	return anonymous
}
