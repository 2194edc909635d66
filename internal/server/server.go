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

package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"
)

// Pinger verifies that a dependency is reachable. The database store
// satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server wraps an http.Server, exposing health and readiness endpoints
// next to the application handler.
type Server struct {
	srv    *http.Server
	mux    *http.ServeMux
	logger *slog.Logger
}

// New constructs a Server serving the given handler. The probes sit
// outside the application's middleware chain so orchestrators can reach
// them without a session or CORS negotiation.
func New(h http.Handler, db Pinger, logger *slog.Logger) *Server {
	s := &Server{
		mux:    http.NewServeMux(),
		logger: logger.With("name", "server"),
	}
	s.routes(h, newProbe(db))
	return s
}

// routes registers public health endpoints and the application handler.
func (s *Server) routes(h http.Handler, p *probe) {
	// Unprotected readiness and liveness probes.
	s.mux.HandleFunc("GET /ready", p.ready)
	s.mux.HandleFunc("HEAD /ready", p.ready)
	s.mux.HandleFunc("GET /healthy", p.healthy)
	s.mux.HandleFunc("HEAD /healthy", p.healthy)

	// Everything else belongs to the application.
	s.mux.Handle("/", h)
}

// Handler exposes the root mux, including the probe routes. Useful for
// tests that drive the server without binding a port.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start runs the HTTP server on addr and blocks until the server stops.
// It returns nil on graceful shutdown, or the terminal error otherwise.
func (s *Server) Start(addr string) error {
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
		MaxHeaderBytes:    1 << 16, // 64 KB
	}

	s.logger.Info("Listening", "addr", addr)
	err := s.srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown attempts a graceful server shutdown within ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}
