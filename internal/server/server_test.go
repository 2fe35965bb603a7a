package server

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Guliveer/twitch-eventsub-go/internal/metrics"
)

func serve(t *testing.T, s *Server, method, path, remote string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader("{}"))
	if remote != "" {
		req.RemoteAddr = remote
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	expires := time.Date(2024, 3, 1, 13, 0, 0, 0, time.UTC)
	state := "active"
	s := New(Config{Health: func() Health {
		h := Health{Status: StatusOK, SessionState: state, SessionID: "s1", TokenExpiresAt: &expires}
		if state != "active" {
			h.Status = StatusDegraded
		}
		return h
	}})

	rec := serve(t, s, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))

	var got Health
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "active", got.SessionState)
	assert.Equal(t, "s1", got.SessionID)
	require.NotNil(t, got.TokenExpiresAt)
	assert.True(t, expires.Equal(*got.TokenExpiresAt))
	assert.False(t, got.Timestamp.IsZero())

	state = "reconnecting"
	rec = serve(t, s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"degraded"`)
}

func TestHealthWithoutReporter(t *testing.T) {
	rec := serve(t, New(Config{}), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}

func TestMetricsRoute(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	m.FrameReceived("session_keepalive")

	rec := serve(t, New(Config{Gatherer: reg}), http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "eventsub_websocket_frames_total")

	rec = serve(t, New(Config{}), http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWebhookRouteIsRateLimited(t *testing.T) {
	var hits int
	hook := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits++
		w.WriteHeader(http.StatusNoContent)
	})
	s := New(Config{WebhookPath: "/eventsub", Webhook: hook, WebhookRateLimit: 2})

	for range 2 {
		assert.Equal(t, http.StatusNoContent, serve(t, s, http.MethodPost, "/eventsub", "10.0.0.1:4000").Code)
	}
	rec := serve(t, s, http.MethodPost, "/eventsub", "10.0.0.1:4000")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	// Another address has its own budget.
	assert.Equal(t, http.StatusNoContent, serve(t, s, http.MethodPost, "/eventsub", "10.0.0.2:4000").Code)
	assert.Equal(t, 3, hits)

	assert.Equal(t, http.StatusMethodNotAllowed, serve(t, s, http.MethodGet, "/eventsub", "10.0.0.3:4000").Code)
	// Health is never limited.
	assert.Equal(t, http.StatusOK, serve(t, s, http.MethodGet, "/health", "10.0.0.1:4000").Code)
}

func TestWebhookRouteAbsentWithoutHandler(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, serve(t, New(Config{}), http.MethodPost, "/webhook", "").Code)
}

func TestRequestID(t *testing.T) {
	var seen string
	s := New(Config{Webhook: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFrom(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})})

	rec := serve(t, s, http.MethodPost, "/webhook", "")
	_, err := uuid.Parse(rec.Header().Get(HeaderRequestID))
	require.NoError(t, err)
	assert.Equal(t, rec.Header().Get(HeaderRequestID), seen)

	req := httptest.NewRequest(http.MethodPost, "/webhook", nil)
	req.Header.Set(HeaderRequestID, "upstream-1")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "upstream-1", rec.Header().Get(HeaderRequestID))
	assert.Equal(t, "upstream-1", seen)
}

func TestPanicIsRecovered(t *testing.T) {
	s := New(Config{Webhook: http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})})
	assert.Equal(t, http.StatusInternalServerError, serve(t, s, http.MethodPost, "/webhook", "").Code)
}

func TestServeShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := New(Config{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(body), `"ok"`)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestRunListenError(t *testing.T) {
	err := New(Config{Addr: "256.0.0.1:bad"}).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listen")
}
