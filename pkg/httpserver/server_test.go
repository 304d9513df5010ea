package httpserver_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirelens/billingkit/pkg/config"
	"github.com/hirelens/billingkit/pkg/httpserver"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestServerRun(t *testing.T) {
	t.Parallel()

	t.Run("stops cleanly on context cancel", func(t *testing.T) {
		t.Parallel()

		srv := httpserver.New(config.HTTPConfig{
			Addr:            "127.0.0.1:0",
			ShutdownTimeout: time.Second,
		}, discardLogger())

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- srv.Run(ctx, http.NotFoundHandler()) }()

		time.Sleep(50 * time.Millisecond)
		cancel()

		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("server did not stop after context cancel")
		}
	})

	t.Run("invalid address fails to start", func(t *testing.T) {
		t.Parallel()

		srv := httpserver.New(config.HTTPConfig{Addr: "256.256.256.256:0"}, discardLogger())
		err := srv.Run(context.Background(), http.NotFoundHandler())
		require.ErrorIs(t, err, httpserver.ErrStart)
	})

	t.Run("nil handler rejected", func(t *testing.T) {
		t.Parallel()

		srv := httpserver.New(config.HTTPConfig{Addr: "127.0.0.1:0"}, discardLogger())
		err := srv.Run(context.Background(), nil)
		require.ErrorIs(t, err, httpserver.ErrStart)
	})

	t.Run("nil logger panics", func(t *testing.T) {
		t.Parallel()

		assert.Panics(t, func() { httpserver.New(config.HTTPConfig{}, nil) })
	})
}

func TestShutdownIdempotent(t *testing.T) {
	t.Parallel()

	srv := httpserver.New(config.HTTPConfig{Addr: "127.0.0.1:0"}, discardLogger())
	require.NoError(t, srv.Shutdown(context.Background()))
	require.NoError(t, srv.Shutdown(context.Background()))
}

func TestProbes(t *testing.T) {
	t.Parallel()

	t.Run("liveness", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		httpserver.Liveness()(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ALIVE", rec.Body.String())
	})

	t.Run("readiness passes when all checks pass", func(t *testing.T) {
		t.Parallel()

		ok := func(context.Context) error { return nil }
		rec := httptest.NewRecorder()
		httpserver.Readiness(discardLogger(), ok, ok)(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "READY", rec.Body.String())
	})

	t.Run("readiness fails on first failing check", func(t *testing.T) {
		t.Parallel()

		failing := func(context.Context) error { return errors.New("connection refused") }
		rec := httptest.NewRecorder()
		httpserver.Readiness(discardLogger(), failing)(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "NOT_READY", rec.Body.String())
	})
}
