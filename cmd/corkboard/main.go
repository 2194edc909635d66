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

package main

import (
	"context"
	"os"
	"time"

	"github.com/corkboard/corkboard/internal/acl"
	"github.com/corkboard/corkboard/internal/api"
	"github.com/corkboard/corkboard/internal/config"
	"github.com/corkboard/corkboard/internal/server"
	"github.com/corkboard/corkboard/internal/session"
	"github.com/corkboard/corkboard/internal/store"
	"github.com/deep-rent/nexus/app"
	"github.com/deep-rent/nexus/log"
)

// shutdownTimeout bounds the graceful drain on SIGINT/SIGTERM.
const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger := log.New(log.WithLevel("error"))
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := log.New(
		log.WithLevel(cfg.Log.Level),
	)

	runnable := func(ctx context.Context) error {
		st, err := store.Open(store.Config{
			Path:   cfg.Database.Path,
			Pool:   cfg.Database.Pool,
			Logger: logger,
		})
		if err != nil {
			return err
		}
		defer func() {
			if err := st.Close(); err != nil {
				logger.Error("Database close failed", "error", err)
			}
		}()

		rules := acl.New(st,
			acl.WithLogger(logger.With("name", "acl")),
			acl.WithEnabled(cfg.ACL.On),
			acl.WithInterval(cfg.ACL.Interval),
			acl.WithRules(cfg.ACL.Rules),
		)
		go rules.Run(ctx)

		codec := session.NewCodec(cfg.Session.Secret,
			session.WithCookie(cfg.Session.Cookie),
			session.WithLifetime(cfg.Session.Lifetime),
		)

		board := api.New(api.Config{
			Logger:      logger,
			Store:       st,
			Codec:       codec,
			Engine:      rules,
			Detailed:    cfg.ACL.Detailed,
			Origins:     cfg.CORS.Origins,
			Credentials: cfg.CORS.Credentials,
		})

		s := server.New(board.Router(), st, logger)
		errs := make(chan error, 1)
		go func() {
			errs <- s.Start(cfg.Server.Addr())
		}()

		select {
		case err := <-errs:
			return err
		case <-ctx.Done():
		}

		stop, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.Shutdown(stop)
	}

	if err := app.Run(runnable, app.WithLogger(logger)); err != nil {
		logger.Error("Application failed", "error", err)
		os.Exit(1)
	}
}
