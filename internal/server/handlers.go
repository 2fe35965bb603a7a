package server

import (
	"encoding/json"
	"net/http"
	"time"
)

// Health is the body of GET /health.
type Health struct {
	// Status is "ok" or "degraded". Degraded answers 503.
	Status         string     `json:"status"`
	Timestamp      time.Time  `json:"timestamp"`
	SessionState   string     `json:"session_state,omitempty"`
	SessionID      string     `json:"session_id,omitempty"`
	Webhook        bool       `json:"webhook"`
	TokenExpiresAt *time.Time `json:"token_expires_at,omitempty"`
}

// HealthFunc reports the current health.
type HealthFunc func() Health

const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	h := Health{Status: StatusOK}
	if s.cfg.Health != nil {
		h = s.cfg.Health()
	}
	if h.Timestamp.IsZero() {
		h.Timestamp = time.Now().UTC()
	}

	code := http.StatusOK
	if h.Status != StatusOK {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, h)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(v) //nolint:errcheck
}
