package server_test

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/corkboard/corkboard/internal/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pingFunc adapts a function to the server.Pinger interface.
type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

func newServer(t *testing.T, db server.Pinger) *httptest.Server {
	t.Helper()
	app := http.HandlerFunc(func(res http.ResponseWriter, _ *http.Request) {
		_, _ = res.Write([]byte("app"))
	})
	// Exercise the mux without binding a port.
	s := server.New(app, db, slog.New(slog.DiscardHandler))
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func TestProbes(t *testing.T) {
	healthyDB := pingFunc(func(context.Context) error { return nil })
	brokenDB := pingFunc(func(context.Context) error { return errors.New("down") })

	t.Run("healthy", func(t *testing.T) {
		ts := newServer(t, healthyDB)
		res, err := http.Get(ts.URL + "/healthy")
		require.NoError(t, err)
		defer res.Body.Close()
		assert.Equal(t, http.StatusOK, res.StatusCode)
	})

	t.Run("ready", func(t *testing.T) {
		ts := newServer(t, healthyDB)
		res, err := http.Get(ts.URL + "/ready")
		require.NoError(t, err)
		defer res.Body.Close()
		assert.Equal(t, http.StatusOK, res.StatusCode)
	})

	t.Run("not ready when database is down", func(t *testing.T) {
		ts := newServer(t, brokenDB)
		res, err := http.Get(ts.URL + "/ready")
		require.NoError(t, err)
		defer res.Body.Close()
		assert.Equal(t, http.StatusServiceUnavailable, res.StatusCode)
	})

	t.Run("application routes pass through", func(t *testing.T) {
		ts := newServer(t, healthyDB)
		res, err := http.Get(ts.URL + "/api/anything")
		require.NoError(t, err)
		defer res.Body.Close()
		assert.Equal(t, http.StatusOK, res.StatusCode)
	})
}

func TestShutdownWithoutStart(t *testing.T) {
	s := server.New(http.NotFoundHandler(),
		pingFunc(func(context.Context) error { return nil }),
		slog.New(slog.DiscardHandler))
	assert.NoError(t, s.Shutdown(context.Background()))
}
