package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quote-harvester/internal/adapters/http/dto"
	"github.com/jsamuelsen/quote-harvester/internal/adapters/http/handlers"
	"github.com/jsamuelsen/quote-harvester/internal/adapters/http/middleware"
	"github.com/jsamuelsen/quote-harvester/internal/adapters/storage"
	"github.com/jsamuelsen/quote-harvester/internal/domain"
	"github.com/jsamuelsen/quote-harvester/internal/platform/config"
	"github.com/jsamuelsen/quote-harvester/internal/ports"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testServerConfig(port int) *config.ServerConfig {
	return &config.ServerConfig{
		Host:            "127.0.0.1",
		Port:            port,
		ReadTimeout:     5 * time.Second,
		WriteTimeout:    10 * time.Second,
		IdleTimeout:     30 * time.Second,
		ShutdownTimeout: 5 * time.Second,
		RequestTimeout:  2 * time.Second,
		MaxRequestSize:  1 << 20,
	}
}

func TestServerNew(t *testing.T) {
	cfg := testServerConfig(8080)
	logger := discardLogger()

	srv := New(cfg, logger)

	require.NotNil(t, srv)
	assert.IsType(t, &gin.Engine{}, srv.Engine())
	assert.Equal(t, cfg, srv.Config())
	assert.Equal(t, "127.0.0.1:8080", srv.Addr())
}

func TestServerAddr(t *testing.T) {
	tests := []struct {
		host string
		port int
		want string
	}{
		{"localhost", 8080, "localhost:8080"},
		{"0.0.0.0", 3000, "0.0.0.0:3000"},
		{"::1", 9090, "[::1]:9090"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			cfg := testServerConfig(tt.port)
			cfg.Host = tt.host

			assert.Equal(t, tt.want, New(cfg, discardLogger()).Addr())
		})
	}
}

func TestServerStartShutdown(t *testing.T) {
	srv := New(testServerConfig(0), discardLogger())
	srv.Engine().GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	errCh, err := srv.Start()
	require.NoError(t, err)
	assert.NotEqual(t, "127.0.0.1:0", srv.Addr(), "bound port is reported")

	resp, err := http.Get("http://" + srv.Addr() + "/ping")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, srv.Shutdown(ctx))

	_, ok := <-errCh
	assert.False(t, ok, "error channel should be closed")
}

func TestServerStart_AddressInUse(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	port := ln.Addr().(*net.TCPAddr).Port

	_, err = New(testServerConfig(port), discardLogger()).Start()
	require.Error(t, err)
}

func TestServerRun_StopsOnCancel(t *testing.T) {
	srv := New(testServerConfig(0), discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() { done <- srv.Run(ctx) }()

	require.Eventually(t, func() bool {
		return srv.Addr() != "127.0.0.1:0"
	}, time.Second, 10*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestMaxBodySizeMiddleware(t *testing.T) {
	cfg := testServerConfig(0)
	cfg.MaxRequestSize = 100

	srv := New(cfg, discardLogger())
	srv.Engine().POST("/test", func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}

		c.JSON(http.StatusOK, gin.H{"received": len(body)})
	})

	tests := []struct {
		name string
		size int
		want int
	}{
		{"under limit", 50, http.StatusOK},
		{"over limit", 500, http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(strings.Repeat("x", tt.size)))
			srv.Engine().ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code)
		})
	}
}

// newAPI wires the full router over a file store seeded with one snapshot.
func newAPI(t *testing.T) *gin.Engine {
	t.Helper()

	store, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)

	s := domain.NewSnapshot(2)
	s.Set("daily", domain.CategoryResult{
		{Text: "Every day is a fresh start.", Author: "Unknown", Category: "daily", Tags: []string{"daily"}},
	})
	s.Set("love", domain.CategoryResult{})
	require.NoError(t, store.Write(context.Background(), "2026-10-19", s))

	registry := ports.NewHealthRegistry()
	require.NoError(t, registry.Register(store))

	engine := gin.New()
	SetupRouter(engine, RouterConfig{
		ServiceName:     "quote-harvester-test",
		HealthHandler:   handlers.NewHealthHandler(registry, handlers.BuildInfo{Version: "test"}, nil),
		SnapshotHandler: handlers.NewSnapshotHandler(store),
		Server:          testServerConfig(0),
	})

	return engine
}

func TestSetupRouter_Routes(t *testing.T) {
	engine := newAPI(t)

	routes := make(map[string]bool)
	for _, r := range engine.Routes() {
		routes[r.Method+" "+r.Path] = true
	}

	for _, want := range []string{
		"GET /-/live",
		"GET /-/ready",
		"GET /-/build",
		"GET /api/v1/snapshots",
		"GET /api/v1/snapshots/:date",
		"GET /api/v1/snapshots/:date/categories/:category",
	} {
		assert.True(t, routes[want], "missing route: %s", want)
	}
}

func TestSetupRouter_ServesSnapshots(t *testing.T) {
	engine := newAPI(t)

	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantBody   string
	}{
		{"list", "/api/v1/snapshots", http.StatusOK, `"date":"2026-10-19"`},
		{"snapshot", "/api/v1/snapshots/2026-10-19", http.StatusOK, `"Every day is a fresh start."`},
		{"category", "/api/v1/snapshots/2026-10-19/categories/love", http.StatusOK, `"count":0`},
		{"unknown date", "/api/v1/snapshots/2026-10-18", http.StatusNotFound, dto.ErrorCodeNotFound},
		{"bad date", "/api/v1/snapshots/latest", http.StatusBadRequest, dto.ErrorCodeValidation},
		{"ready", "/-/ready", http.StatusOK, `"snapshot-files"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.target, nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
			assert.NotEmpty(t, w.Header().Get(middleware.HeaderRequestID))
		})
	}
}

func TestSetupRouter_PropagatesCorrelationID(t *testing.T) {
	engine := newAPI(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/snapshots", nil)
	req.Header.Set(middleware.HeaderCorrelationID, "caller-7")
	engine.ServeHTTP(w, req)

	assert.Equal(t, "caller-7", w.Header().Get(middleware.HeaderCorrelationID))

	var page dto.PaginatedResponse[dto.SnapshotSummary]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Len(t, page.Items, 1)
}

func TestSetupRouter_OptionalHandlers(t *testing.T) {
	engine := gin.New()

	require.NotPanics(t, func() {
		SetupRouter(engine, RouterConfig{ServiceName: "bare"})
	})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/snapshots", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
