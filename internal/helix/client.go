// Package helix is a small client for the EventSub subscription endpoints
// of the Twitch Helix API. Calls are not retried; the caller owns the retry
// policy.
package helix

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Guliveer/twitch-eventsub-go/internal/constants"
	"github.com/Guliveer/twitch-eventsub-go/internal/httpclient"
	"github.com/Guliveer/twitch-eventsub-go/internal/logger"
	"github.com/Guliveer/twitch-eventsub-go/internal/metrics"
)

// ErrUnauthorized is returned for 401 responses.
var ErrUnauthorized = errors.New("helix: unauthorized")

// APIError is a non-2xx Helix response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("helix: status %d: %s", e.Status, e.Message)
}

// Is makes a 401 APIError match ErrUnauthorized.
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.Status == http.StatusUnauthorized
}

// TokenSource supplies credentials for each request. *auth.Manager
// satisfies it.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
	ClientID() string
}

// invalidator is implemented by token sources that can drop a token Helix
// rejected, such as *auth.AppToken.
type invalidator interface {
	Invalidate()
}

// Client calls Helix on behalf of one token.
type Client struct {
	doer    httpclient.Doer
	tokens  TokenSource
	baseURL string
	log     *logger.Logger
	metrics *metrics.Metrics
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client somewhere other than constants.HelixURL.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithMetrics counts subscription creates.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// NewClient returns a Client.
func NewClient(doer httpclient.Doer, tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		doer:    doer,
		tokens:  tokens,
		baseURL: constants.HelixURL,
		log:     logger.Discard(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type errorResponse struct {
	Error   string `json:"error"`
	Status  int    `json:"status"`
	Message string `json:"message"`
}

// do sends one request and decodes a 2xx JSON body into out, if out is
// not nil.
func (c *Client) do(ctx context.Context, method, path string, in, out any) (int, error) {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return 0, fmt.Errorf("marshaling %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(data)
	}

	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return 0, fmt.Errorf("getting access token: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, fmt.Errorf("creating %s %s: %w", method, path, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Client-Id", c.tokens.ClientID())
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.doer.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, fmt.Errorf("reading %s %s response: %w", method, path, err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		if inv, ok := c.tokens.(invalidator); ok {
			inv.Invalidate()
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(data))}
		var er errorResponse
		if json.Unmarshal(data, &er) == nil && er.Message != "" {
			apiErr.Message = er.Message
		}
		c.log.Debug("Helix request failed", "method", method, "path", path, "status", resp.StatusCode, "message", apiErr.Message)
		return resp.StatusCode, apiErr
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("parsing %s %s response: %w", method, path, err)
		}
	}
	return resp.StatusCode, nil
}
