package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Guliveer/twitch-eventsub-go/internal/eventsub"
	"github.com/Guliveer/twitch-eventsub-go/internal/httpclient"
	"github.com/Guliveer/twitch-eventsub-go/internal/webhook"
)

// Headers set on every HTTPSink request.
const (
	HeaderMessageID = "X-Eventsub-Message-Id"
	HeaderTimestamp = "X-Eventsub-Message-Timestamp"
	HeaderSignature = "X-Eventsub-Signature"
)

// HTTPSinkConfig configures an HTTPSink.
type HTTPSinkConfig struct {
	Name    string
	URL     string
	Headers map[string]string
	// Secret, when set, signs each body the way Twitch signs webhooks.
	Secret string
	Events []string
}

// HTTPSink POSTs each delivery as JSON.
type HTTPSink struct {
	filter
	cfg  HTTPSinkConfig
	doer httpclient.Doer
}

// NewHTTPSink returns an HTTPSink.
func NewHTTPSink(doer httpclient.Doer, cfg HTTPSinkConfig) *HTTPSink {
	name := cfg.Name
	if name == "" {
		name = "http"
	}
	return &HTTPSink{filter: filter{name: name, events: cfg.Events}, cfg: cfg, doer: doer}
}

// Payload is the JSON body an HTTPSink sends.
type Payload struct {
	MessageID    string                `json:"message_id"`
	Timestamp    time.Time             `json:"timestamp"`
	Transport    string                `json:"transport"`
	SessionID    string                `json:"session_id,omitempty"`
	Subscription eventsub.Subscription `json:"subscription"`
	Event        eventsub.Event        `json:"event,omitempty"`
	Error        string                `json:"error,omitempty"`
}

// Send implements Sink.
func (s *HTTPSink) Send(ctx context.Context, d eventsub.Delivery) error {
	p := Payload{
		MessageID:    d.MessageID,
		Timestamp:    d.Timestamp,
		Transport:    d.Transport,
		SessionID:    d.SessionID,
		Subscription: d.Subscription,
		Event:        d.Event,
	}
	if d.Err != nil {
		p.Error = d.Err.Error()
	}
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("%s: marshal payload: %w", s.name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: create request: %w", s.name, err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range s.cfg.Headers {
		req.Header.Set(k, v)
	}
	stamp := d.Timestamp.UTC().Format(time.RFC3339Nano)
	req.Header.Set(HeaderMessageID, d.MessageID)
	req.Header.Set(HeaderTimestamp, stamp)
	if s.cfg.Secret != "" {
		req.Header.Set(HeaderSignature, webhook.Sign(s.cfg.Secret, d.MessageID, stamp, body))
	}

	resp, err := s.doer.Do(req)
	if err != nil {
		return fmt.Errorf("%s: send request: %w", s.name, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode >= 400 {
		return fmt.Errorf("%s: unexpected status %d", s.name, resp.StatusCode)
	}
	return nil
}
