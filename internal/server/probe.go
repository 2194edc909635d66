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
	"net/http"
	"time"
)

// probeTimeout bounds the database check on readiness requests.
const probeTimeout = 2 * time.Second

// probe encapsulates dependency health checking for /ready.
type probe struct {
	db Pinger
}

func newProbe(db Pinger) *probe {
	return &probe{db: db}
}

// ready is a readiness probe that checks database availability.
func (p *probe) ready(res http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), probeTimeout)
	defer cancel()
	if err := p.db.Ping(ctx); err != nil {
		http.Error(res, "not ready", http.StatusServiceUnavailable)
		return
	}
	res.WriteHeader(http.StatusOK)
	_, _ = res.Write([]byte("ready"))
}

// healthy is a simple liveness probe handler.
func (p *probe) healthy(res http.ResponseWriter, _ *http.Request) {
	res.WriteHeader(http.StatusOK)
	_, _ = res.Write([]byte("healthy"))
}
