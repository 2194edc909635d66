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

// Package config loads the process configuration. Sources are layered:
// struct defaults, then an optional YAML file, then CORKBOARD_* environment
// variables. Later layers win.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/corkboard/corkboard/internal/acl"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// envPrefix namespaces the environment variables read by Load.
const envPrefix = "CORKBOARD_"

// Config is the root of the configuration tree.
type Config struct {
	Log      Log      `koanf:"log"`
	Server   Server   `koanf:"server"`
	Database Database `koanf:"database"`
	Session  Session  `koanf:"session"`
	ACL      ACL      `koanf:"acl"`
	CORS     CORS     `koanf:"cors"`
}

// Log holds logging settings.
type Log struct {
	// Level is one of debug, info, warn, error, or silent.
	Level string `koanf:"level"`
}

// Server holds HTTP listener settings.
type Server struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`
}

// Addr returns the listen address in host:port form.
func (s Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Database holds SQLite settings.
type Database struct {
	// Path is the database file, or ":memory:" for tests.
	Path string `koanf:"path"`
	// Pool is the connection pool size.
	Pool int `koanf:"pool"`
}

// Session holds cookie and token-signing settings.
type Session struct {
	// Secret keys the HMAC over session tokens. Required.
	Secret string `koanf:"secret"`
	// Cookie is the session cookie name.
	Cookie string `koanf:"cookie"`
	// Lifetime bounds cookie validity.
	Lifetime time.Duration `koanf:"lifetime"`
}

// ACL holds access-control settings. A non-empty Rules list pins the
// rule set and disables the periodic database refresh.
type ACL struct {
	// On toggles enforcement; off means every request is allowed.
	On bool `koanf:"on"`
	// Detailed adds applied rules to per-request diagnostics.
	Detailed bool `koanf:"detailed"`
	// Interval is the refresh delay for database-backed rules.
	Interval time.Duration `koanf:"interval"`
	// Rules optionally pins the rule set from configuration.
	Rules []acl.RawRule `koanf:"rules"`
}

// CORS holds cross-origin settings for the browser frontend.
type CORS struct {
	Origins     []string `koanf:"origins"`
	Credentials bool     `koanf:"credentials"`
}

// Default returns the configuration used before any file or environment
// overrides.
func Default() *Config {
	return &Config{
		Log: Log{
			Level: "info",
		},
		Server: Server{
			Host: "0.0.0.0",
			Port: 3000,
		},
		Database: Database{
			Path: "corkboard.db",
			Pool: 4,
		},
		Session: Session{
			Cookie:   "corkboard_session",
			Lifetime: 2 * time.Hour,
		},
		ACL: ACL{
			On:       true,
			Interval: acl.DefaultInterval,
		},
		CORS: CORS{
			Origins:     []string{"http://localhost:5173"},
			Credentials: true,
		},
	}
}

// Load builds the configuration from defaults, the YAML file named by
// CORKBOARD_CONFIG (if set), and CORKBOARD_* environment variables.
func Load() (*Config, error) {
	return load(os.Getenv(envPrefix + "CONFIG"))
}

// load is the testable core of Load.
func load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envKey maps CORKBOARD_SERVER_PORT to server.port. Only the first
// underscore becomes a separator, so leaf names stay intact.
func envKey(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
	if key == "config" {
		// Consumed by Load itself, not part of the tree.
		return ""
	}
	return strings.Replace(key, "_", ".", 1)
}

// validate rejects configurations the process cannot run with.
func (c *Config) validate() error {
	if c.Session.Secret == "" {
		return fmt.Errorf("config: session.secret is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d out of range", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("config: database.path is required")
	}
	return nil
}
