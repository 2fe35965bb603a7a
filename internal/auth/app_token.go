package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"

	"github.com/Guliveer/twitch-eventsub-go/internal/constants"
	"github.com/Guliveer/twitch-eventsub-go/internal/httpclient"
	"github.com/Guliveer/twitch-eventsub-go/internal/logger"
)

// AppTokenConfig configures an AppToken.
type AppTokenConfig struct {
	ClientID     string
	ClientSecret string
	// Endpoints defaults to DefaultEndpoints.
	Endpoints *Endpoints
	Clock     clockwork.Clock
	Log       *logger.Logger
}

// AppToken is an app access token obtained with the client credentials
// grant. Webhook subscriptions must be created with one. It is fetched on
// first use and fetched again shortly before it expires.
type AppToken struct {
	doer         httpclient.Doer
	clock        clockwork.Clock
	log          *logger.Logger
	endpoints    Endpoints
	clientID     string
	clientSecret string

	mu  sync.RWMutex
	tok Token

	group singleflight.Group
}

// NewAppToken returns an AppToken. Nothing is fetched until AccessToken.
func NewAppToken(doer httpclient.Doer, cfg AppTokenConfig) *AppToken {
	a := &AppToken{
		doer:         doer,
		clock:        cfg.Clock,
		log:          cfg.Log,
		endpoints:    DefaultEndpoints(),
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
	}
	if cfg.Endpoints != nil {
		a.endpoints = *cfg.Endpoints
	}
	if a.clock == nil {
		a.clock = clockwork.NewRealClock()
	}
	if a.log == nil {
		a.log = logger.Discard()
	}
	return a
}

// ClientID returns the application's client id.
func (a *AppToken) ClientID() string {
	return a.clientID
}

// Snapshot returns a copy of the current token, zero before the first fetch.
func (a *AppToken) Snapshot() Token {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.tok.clone()
}

// AccessToken returns a token valid for at least the default skew.
// Concurrent callers share one fetch.
func (a *AppToken) AccessToken(ctx context.Context) (string, error) {
	tok := a.Snapshot()
	if tok.AccessToken != "" && !tok.ExpiresWithin(a.clock.Now(), constants.DefaultRefreshSkew) {
		return tok.AccessToken, nil
	}

	ch := a.group.DoChan("app-token", func() (any, error) {
		flightCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), constants.RefreshTimeout)
		defer cancel()
		return a.fetch(flightCtx)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Invalidate drops the cached token so the next call fetches a new one.
func (a *AppToken) Invalidate() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.tok = Token{}
}

func (a *AppToken) fetch(ctx context.Context) (string, error) {
	if a.clientSecret == "" {
		return "", fmt.Errorf("%w: app token needs a client secret", ErrNotAuthorized)
	}

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {a.clientID},
		"client_secret": {a.clientSecret},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoints.Token,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("creating app token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.doer.Do(req)
	if err != nil {
		return "", &TransportError{Op: "app token", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &TransportError{Op: "app token", Err: err}
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
		var errResp tokenErrorResponse
		_ = json.Unmarshal(body, &errResp)
		return "", fmt.Errorf("%w: client credentials rejected: %s", ErrNotAuthorized, errResp.Message)
	default:
		return "", &TransportError{Op: "app token", Status: resp.StatusCode, Err: errors.New(strings.TrimSpace(string(body)))}
	}

	var tokenResp tokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return "", fmt.Errorf("%w: app token: %v", ErrParse, err)
	}
	if tokenResp.AccessToken == "" {
		return "", fmt.Errorf("%w: app token: missing access_token", ErrParse)
	}

	tok := Token{AccessToken: tokenResp.AccessToken, ClientID: a.clientID}
	if tokenResp.ExpiresIn > 0 {
		tok.ExpiresAt = a.clock.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second)
	}

	v, err := validate(ctx, a.doer, a.endpoints.Validate, tok.AccessToken)
	switch {
	case err == nil:
		if v.ExpiresIn > 0 {
			tok.ExpiresAt = a.clock.Now().Add(v.ExpiresIn)
		}
	case errors.Is(err, ErrNotAuthorized):
		return "", fmt.Errorf("validating app token: %w", err)
	default:
		a.log.Warn("App token could not be validated, keeping it", "error", err)
	}

	a.mu.Lock()
	a.tok = tok
	a.mu.Unlock()

	a.log.Info("Obtained app access token", "expires_at", tok.ExpiresAt)
	return tok.AccessToken, nil
}
