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

// Package api exposes the board's REST surface. Every route sits behind
// the request gate; CORS and preflight are answered before the gate so
// browsers can negotiate without a session.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/corkboard/corkboard/internal/acl"
	"github.com/corkboard/corkboard/internal/middleware"
	"github.com/corkboard/corkboard/internal/session"
	"github.com/corkboard/corkboard/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
)

// Config wires the API's collaborators.
type Config struct {
	Logger *slog.Logger
	Store  *store.Store
	Codec  *session.Codec
	Engine acl.Engine
	// Detailed adds applied rules to per-request diagnostics.
	Detailed bool
	// Origins are the allowed CORS origins for the browser frontend.
	Origins []string
	// Credentials allows cookies on cross-origin requests.
	Credentials bool
}

// API holds the handler state.
type API struct {
	cfg      Config
	logger   *slog.Logger
	store    *store.Store
	codec    *session.Codec
	validate *validator.Validate
}

// New creates the API.
func New(cfg Config) *API {
	return &API{
		cfg:      cfg,
		logger:   cfg.Logger.With("name", "api"),
		store:    cfg.Store,
		codec:    cfg.Codec,
		validate: validator.New(),
	}
}

// Router assembles the middleware chain and the route tree. Order
// matters: diagnostics outermost, then panic recovery, then CORS (which
// short-circuits preflight), then the gate, then the handlers.
func (a *API) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Debug(a.cfg.Logger))
	r.Use(middleware.Catch(a.cfg.Logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   a.cfg.Origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: a.cfg.Credentials,
		MaxAge:           300,
	}))
	r.Use(middleware.Gate(middleware.GateConfig{
		Logger:   a.cfg.Logger,
		Engine:   a.cfg.Engine,
		Codec:    a.cfg.Codec,
		Detailed: a.cfg.Detailed,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", a.health)
		r.Get("/session", a.session)

		r.Route("/auth", func(r chi.Router) {
			// Slow down credential stuffing; registration and logout
			// are unthrottled.
			r.With(httprate.LimitByIP(5, time.Minute)).
				Post("/login", a.login)
			r.Post("/register", a.register)
			r.Post("/logout", a.logout)
		})

		r.Route("/posts", func(r chi.Router) {
			r.Get("/", a.listPosts)
			r.Post("/", a.createPost)
			r.Get("/{id}", a.getPost)
			r.Put("/{id}", a.updatePost)
			r.Delete("/{id}", a.deletePost)
			r.Get("/{id}/comments", a.listComments)
			r.Post("/{id}/comments", a.createComment)
		})

		r.Delete("/comments/{id}", a.deleteComment)
		r.Get("/users", a.listUsers)
	})

	return r
}

// health answers liveness checks from the frontend.
func (a *API) health(res http.ResponseWriter, _ *http.Request) {
	writeJSON(res, http.StatusOK, map[string]any{
		"ok":   true,
		"time": time.Now().UTC().Format(time.RFC3339),
	})
}
