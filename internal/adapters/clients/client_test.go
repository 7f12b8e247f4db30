package clients

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quote-harvester/internal/adapters/http/middleware"
	"github.com/jsamuelsen/quote-harvester/internal/platform/config"
)

func defaultConfig() *Config {
	return &Config{
		ServiceName: "quote-site",
		Timeout:     5 * time.Second,
		UserAgent:   "quote-harvester-test/1.0",
		Retry: config.RetryConfig{
			MaxAttempts:     3,
			InitialInterval: 10 * time.Millisecond,
			MaxInterval:     100 * time.Millisecond,
			Multiplier:      2.0,
		},
		Circuit: config.CircuitBreakerConfig{
			MaxFailures:   5,
			Timeout:       time.Second,
			HalfOpenLimit: 2,
		},
	}
}

// newTestClient points a client built from defaultConfig at server, after applying mutate.
func newTestClient(t *testing.T, server *httptest.Server, mutate func(*Config)) *Client {
	t.Helper()

	cfg := defaultConfig()
	cfg.BaseURL = server.URL

	if mutate != nil {
		mutate(cfg)
	}

	client, err := New(cfg)
	require.NoError(t, err)

	return client
}

// closeBody is a test helper that closes the response body and fails the test on error.
func closeBody(t *testing.T, resp *http.Response) {
	t.Helper()

	if err := resp.Body.Close(); err != nil {
		t.Errorf("failed to close response body: %v", err)
	}
}

func statusServer(calls *int32, status func(n int32) int) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		n := atomic.AddInt32(calls, 1)
		w.WriteHeader(status(n))
	}))
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config is required")

	cfg := defaultConfig()
	cfg.ServiceName = ""
	_, err = New(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "service name is required")
}

func TestNew_Defaults(t *testing.T) {
	cfg := &Config{ServiceName: "quote-site", BaseURL: "https://thequoteshub.com/"}

	client, err := New(cfg)
	require.NoError(t, err)

	assert.Equal(t, "https://thequoteshub.com", client.baseURL)
	assert.Equal(t, defaultTimeout, client.http.Timeout)
	assert.Equal(t, 1, cfg.Retry.MaxAttempts)
	assert.Equal(t, defaultAccept, cfg.Accept)
	assert.Nil(t, client.limiter, "zero rate disables limiting")
	assert.Equal(t, "quote-site", client.ServiceName())
}

func TestNewTransport(t *testing.T) {
	tr := newTransport(config.TransportConfig{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     45 * time.Second,
	})

	assert.Equal(t, 10, tr.MaxIdleConns)
	assert.Equal(t, 2, tr.MaxIdleConnsPerHost)
	assert.Equal(t, 45*time.Second, tr.IdleConnTimeout)

	fallback := newTransport(config.TransportConfig{})
	assert.Equal(t, http.DefaultTransport.(*http.Transport).MaxIdleConns, fallback.MaxIdleConns)
}

func TestClient_DefaultHeaders(t *testing.T) {
	var got http.Header

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := newTestClient(t, server, nil)

	ctx := middleware.ContextWithRequestID(context.Background(), "req-123")
	ctx = middleware.ContextWithCorrelationID(ctx, "run-456")

	resp, err := client.Get(ctx, "/api/tags/love?page=1")
	require.NoError(t, err)
	defer closeBody(t, resp)

	assert.Equal(t, "quote-harvester-test/1.0", got.Get("User-Agent"))
	assert.Equal(t, defaultAccept, got.Get("Accept"))
	assert.Equal(t, "req-123", got.Get(middleware.HeaderRequestID))
	assert.Equal(t, "run-456", got.Get(middleware.HeaderCorrelationID))
}

func TestClient_ExplicitHeadersWin(t *testing.T) {
	var ua string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua = r.Header.Get("User-Agent")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := newTestClient(t, server, nil)

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, client.URL("/x"), http.NoBody)
	require.NoError(t, err)
	req.Header.Set("User-Agent", "custom")

	resp, err := client.Do(context.Background(), req)
	require.NoError(t, err)
	defer closeBody(t, resp)

	assert.Equal(t, "custom", ua)
}

func TestClient_Retry(t *testing.T) {
	tests := []struct {
		name          string
		status        func(n int32) int
		maxAttempts   int
		wantErr       error
		wantStatus    int
		wantCalls     int32
		wantErrStatus int
	}{
		{
			name: "recovers from server errors",
			status: func(n int32) int {
				if n < 3 {
					return http.StatusInternalServerError
				}
				return http.StatusOK
			},
			maxAttempts: 3,
			wantStatus:  http.StatusOK,
			wantCalls:   3,
		},
		{
			name: "retries too many requests",
			status: func(n int32) int {
				if n == 1 {
					return http.StatusTooManyRequests
				}
				return http.StatusOK
			},
			maxAttempts: 2,
			wantStatus:  http.StatusOK,
			wantCalls:   2,
		},
		{
			name:        "does not retry not found",
			status:      func(int32) int { return http.StatusNotFound },
			maxAttempts: 3,
			wantStatus:  http.StatusNotFound,
			wantCalls:   1,
		},
		{
			name:          "gives up with the last status",
			status:        func(int32) int { return http.StatusServiceUnavailable },
			maxAttempts:   3,
			wantErr:       ErrMaxRetriesExceeded,
			wantCalls:     3,
			wantErrStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32

			server := statusServer(&calls, tt.status)
			defer server.Close()

			client := newTestClient(t, server, func(c *Config) { c.Retry.MaxAttempts = tt.maxAttempts })

			resp, err := client.Get(context.Background(), "/api/tags/daily")
			assert.Equal(t, tt.wantCalls, atomic.LoadInt32(&calls))

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, tt.wantErrStatus, StatusCode(err))
				return
			}

			require.NoError(t, err)
			defer closeBody(t, resp)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}

func TestClient_CircuitBreakerShortCircuits(t *testing.T) {
	var calls int32

	server := statusServer(&calls, func(int32) int { return http.StatusServiceUnavailable })
	defer server.Close()

	client := newTestClient(t, server, func(c *Config) {
		c.Retry.MaxAttempts = 1
		c.Circuit.MaxFailures = 2
	})

	_, err := client.Get(context.Background(), "/a")
	require.Error(t, err)
	assert.Equal(t, StateClosed, client.CircuitState())

	_, err = client.Get(context.Background(), "/a")
	require.Error(t, err)
	assert.Equal(t, StateOpen, client.CircuitState())

	before := atomic.LoadInt32(&calls)

	_, err = client.Get(context.Background(), "/a")
	require.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, before, atomic.LoadInt32(&calls), "open circuit must not reach the server")
	assert.Equal(t, StateOpen, client.CircuitStats().State)
}

func TestClient_RateLimitPacesRequests(t *testing.T) {
	var calls int32

	server := statusServer(&calls, func(int32) int { return http.StatusOK })
	defer server.Close()

	client := newTestClient(t, server, func(c *Config) {
		c.RateLimit = 20
		c.RateBurst = 1
	})

	start := time.Now()

	for range 3 {
		resp, err := client.Get(context.Background(), "/x")
		require.NoError(t, err)
		closeBody(t, resp)
	}

	// Burst of one admits the first call at once, then 50ms per call.
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestClient_RateLimitRespectsDeadline(t *testing.T) {
	var calls int32

	server := statusServer(&calls, func(int32) int { return http.StatusOK })
	defer server.Close()

	client := newTestClient(t, server, func(c *Config) {
		c.RateLimit = 0.1
		c.RateBurst = 1
	})

	resp, err := client.Get(context.Background(), "/x")
	require.NoError(t, err)
	closeBody(t, resp)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = client.Get(ctx, "/x")
	require.ErrorIs(t, err, ErrRateLimited)
	assert.NotErrorIs(t, err, ErrMaxRetriesExceeded)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestClient_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(500 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := newTestClient(t, server, func(c *Config) {
		c.Timeout = 50 * time.Millisecond
		c.Retry.MaxAttempts = 1
	})

	_, err := client.Get(context.Background(), "/slow")
	require.Error(t, err)
}

func TestClient_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(500 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := newTestClient(t, server, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Get(ctx, "/slow")
	require.Error(t, err)
}

func TestClient_BuildURL(t *testing.T) {
	tests := []struct {
		base, path, want string
	}{
		{"https://thequoteshub.com", "/api/tags/love", "https://thequoteshub.com/api/tags/love"},
		{"https://thequoteshub.com", "api/tags/love", "https://thequoteshub.com/api/tags/love"},
		{"https://thequoteshub.com/", "/api/tags/love?page=2", "https://thequoteshub.com/api/tags/love?page=2"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			cfg := defaultConfig()
			cfg.BaseURL = tt.base

			client, err := New(cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, client.URL(tt.path))
		})
	}
}

func TestCalculateBackoff(t *testing.T) {
	cfg := defaultConfig()
	cfg.Retry.InitialInterval = 100 * time.Millisecond
	cfg.Retry.Multiplier = 2.0
	cfg.Retry.MaxInterval = time.Second
	cfg.Retry.JitterFactor = 0.25

	client, err := New(cfg)
	require.NoError(t, err)

	assert.InDelta(t, 100*time.Millisecond, client.calculateBackoff(0), float64(25*time.Millisecond))
	assert.InDelta(t, 200*time.Millisecond, client.calculateBackoff(1), float64(50*time.Millisecond))
	assert.InDelta(t, 400*time.Millisecond, client.calculateBackoff(2), float64(100*time.Millisecond))
	assert.LessOrEqual(t, client.calculateBackoff(10), cfg.Retry.MaxInterval+cfg.Retry.MaxInterval/4)
}

// testNetError is a stub net.Error.
type testNetError struct {
	timeout bool
}

func (e testNetError) Error() string   { return "test net error" }
func (e testNetError) Timeout() bool   { return e.timeout }
func (e testNetError) Temporary() bool { return true }

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"nil error", nil, false},
		{"context canceled", context.Canceled, false},
		{"context deadline exceeded", context.DeadlineExceeded, false},
		{"net error with timeout", testNetError{timeout: true}, true},
		{"net error without timeout", testNetError{timeout: false}, false},
		{"connection refused", &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.retryable, isRetryableError(tt.err))
		})
	}
}

func TestStatusCode(t *testing.T) {
	assert.Equal(t, 502, StatusCode(&StatusError{StatusCode: 502}))
	assert.Equal(t, 0, StatusCode(ErrCircuitOpen))
	assert.Equal(t, "server returned HTTP 502", (&StatusError{StatusCode: 502}).Error())
}
