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

// Endpoints are the OAuth URLs the manager talks to.
type Endpoints struct {
	Validate string
	Token    string
	Revoke   string
	Device   string
}

// DefaultEndpoints returns the production Twitch OAuth URLs.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		Validate: constants.ValidateURL,
		Token:    constants.TokenURL,
		Revoke:   constants.RevokeURL,
		Device:   constants.DeviceCodeURL,
	}
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock replaces the wall clock.
func WithClock(c clockwork.Clock) Option {
	return func(m *Manager) { m.clock = c }
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(m *Manager) { m.log = l }
}

// WithStore persists every refreshed token pair to s. A token found in s at
// construction takes precedence over the configured one.
func WithStore(s Store) Option {
	return func(m *Manager) { m.store = s }
}

// WithEndpoints overrides the OAuth URLs.
func WithEndpoints(e Endpoints) Option {
	return func(m *Manager) { m.endpoints = e }
}

// WithRefreshHook calls fn after every refresh attempt with "ok" or the
// error class.
func WithRefreshHook(fn func(result string)) Option {
	return func(m *Manager) { m.onRefresh = fn }
}

// Manager owns one user access token. It is safe for concurrent use.
type Manager struct {
	doer         httpclient.Doer
	clock        clockwork.Clock
	log          *logger.Logger
	store        Store
	endpoints    Endpoints
	clientSecret string
	onRefresh    func(string)

	mu      sync.RWMutex
	tok     Token
	gen     uint64
	revoked bool

	group singleflight.Group
}

// New builds a manager from existing credentials. The access token is
// validated to learn its client id, owner, scopes and expiry; if it has
// already expired and a refresh token is available, it is refreshed once.
func New(ctx context.Context, doer httpclient.Doer, creds Credentials, opts ...Option) (*Manager, error) {
	m := &Manager{
		doer:         doer,
		clock:        clockwork.NewRealClock(),
		log:          logger.Discard(),
		endpoints:    DefaultEndpoints(),
		clientSecret: creds.ClientSecret,
		tok: Token{
			AccessToken:  creds.AccessToken,
			RefreshToken: creds.RefreshToken,
			ClientID:     creds.ClientID,
		},
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.store != nil {
		stored, err := m.store.Load()
		switch {
		case err == nil:
			m.log.Info("Loaded stored token")
			m.tok.AccessToken = stored.AccessToken
			if stored.RefreshToken != "" {
				m.tok.RefreshToken = stored.RefreshToken
			}
		case errors.Is(err, ErrNoStoredToken):
		default:
			m.log.Warn("Failed to load stored token, using configured credentials", "error", err)
		}
	}

	if m.tok.AccessToken == "" {
		if m.tok.RefreshToken == "" {
			return nil, fmt.Errorf("no access token: %w", ErrNotAuthorized)
		}
		if err := m.Refresh(ctx); err != nil {
			return nil, err
		}
		return m, nil
	}

	v, err := m.Validate(ctx, m.tok.AccessToken)
	switch {
	case err == nil:
		m.apply(v)
	case errors.Is(err, ErrNotAuthorized) && m.tok.RefreshToken != "":
		m.log.Warn("Configured token is no longer valid, refreshing")
		if err := m.Refresh(ctx); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	snap := m.Snapshot()
	m.log.Info("Token ready",
		"login", snap.Login,
		"user_id", snap.UserID,
		"scopes", len(snap.Scopes),
		"expires_at", snap.ExpiresAt)
	return m, nil
}

// Snapshot returns a copy of the current token.
func (m *Manager) Snapshot() Token {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tok.clone()
}

// Scopes returns the scopes granted to the current token.
func (m *Manager) Scopes() Scopes {
	return m.Snapshot().Scopes
}

// Validate asks Twitch whether accessToken is valid.
func (m *Manager) Validate(ctx context.Context, accessToken string) (*ValidatedToken, error) {
	return validate(ctx, m.doer, m.endpoints.Validate, accessToken)
}

func validate(ctx context.Context, doer httpclient.Doer, endpoint, accessToken string) (*ValidatedToken, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating validate request: %w", err)
	}
	req.Header.Set("Authorization", "OAuth "+accessToken)

	resp, err := doer.Do(req)
	if err != nil {
		return nil, &TransportError{Op: "validate", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: "validate", Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, ErrNotAuthorized
	case resp.StatusCode != http.StatusOK:
		return nil, &TransportError{Op: "validate", Status: resp.StatusCode, Err: errors.New(strings.TrimSpace(string(body)))}
	}

	var result struct {
		ClientID  string   `json:"client_id"`
		Login     string   `json:"login"`
		UserID    string   `json:"user_id"`
		Scopes    []string `json:"scopes"`
		ExpiresIn *int     `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("%w: validate: %v", ErrParse, err)
	}
	if result.ClientID == "" || result.ExpiresIn == nil {
		return nil, fmt.Errorf("%w: validate: missing client_id or expires_in", ErrParse)
	}

	return &ValidatedToken{
		ClientID:  result.ClientID,
		Login:     result.Login,
		UserID:    result.UserID,
		Scopes:    NewScopes(result.Scopes...),
		ExpiresIn: time.Duration(*result.ExpiresIn) * time.Second,
	}, nil
}

func (m *Manager) apply(v *ValidatedToken) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tok.ClientID = v.ClientID
	m.tok.Login = v.Login
	m.tok.UserID = v.UserID
	m.tok.Scopes = v.Scopes
	if v.ExpiresIn > 0 {
		m.tok.ExpiresAt = m.clock.Now().Add(v.ExpiresIn)
	} else {
		m.tok.ExpiresAt = time.Time{}
	}
}

// Refresh exchanges the refresh token for a new token pair. Concurrent
// callers share a single request and all observe its result.
func (m *Manager) Refresh(ctx context.Context) error {
	m.mu.RLock()
	gen := m.gen
	m.mu.RUnlock()
	return m.refreshFrom(ctx, gen)
}

// refreshFrom refreshes unless the token has moved past generation gen,
// which means another caller already replaced the token gen was read from.
// The shared request is detached from ctx so one caller giving up does not
// fail the others; ctx only bounds how long this caller waits.
func (m *Manager) refreshFrom(ctx context.Context, gen uint64) error {
	ch := m.group.DoChan("refresh", func() (any, error) {
		m.mu.RLock()
		current := m.gen
		m.mu.RUnlock()
		if current != gen {
			return nil, nil
		}
		flightCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), constants.RefreshTimeout)
		defer cancel()
		err := m.refresh(flightCtx)
		if m.onRefresh != nil {
			m.onRefresh(refreshResult(err))
		}
		return nil, err
	})
	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func refreshResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case Permanent(err):
		return "revoked"
	case errors.Is(err, ErrParse):
		return "parse"
	default:
		return "transport"
	}
}

func (m *Manager) refresh(ctx context.Context) error {
	m.mu.RLock()
	revoked := m.revoked
	refreshToken := m.tok.RefreshToken
	clientID := m.tok.ClientID
	m.mu.RUnlock()

	if revoked {
		return ErrRefreshRevoked
	}
	if refreshToken == "" {
		return ErrNoRefreshToken
	}

	m.log.Info("Refreshing access token")

	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
		"client_id":     {clientID},
	}
	if m.clientSecret != "" {
		form.Set("client_secret", m.clientSecret)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoints.Token,
		strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("creating refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.doer.Do(req)
	if err != nil {
		return &TransportError{Op: "refresh", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Op: "refresh", Err: err}
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusBadRequest, http.StatusUnauthorized:
		var errResp tokenErrorResponse
		_ = json.Unmarshal(body, &errResp)
		m.mu.Lock()
		m.revoked = true
		m.mu.Unlock()
		m.log.Error("Refresh token rejected, refreshing stops", "status", resp.StatusCode, "message", errResp.Message)
		return fmt.Errorf("%w: %s", ErrRefreshRevoked, errResp.Message)
	default:
		return &TransportError{Op: "refresh", Status: resp.StatusCode, Err: errors.New(strings.TrimSpace(string(body)))}
	}

	var tokenResp tokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return fmt.Errorf("%w: refresh: %v", ErrParse, err)
	}
	if tokenResp.AccessToken == "" {
		return fmt.Errorf("%w: refresh: missing access_token", ErrParse)
	}

	// The old refresh token may already be invalidated by rotation, so the
	// new pair is kept and persisted before anything else can fail.
	m.mu.Lock()
	m.tok.AccessToken = tokenResp.AccessToken
	if tokenResp.RefreshToken != "" {
		m.tok.RefreshToken = tokenResp.RefreshToken
	}
	if tokenResp.ExpiresIn > 0 {
		m.tok.ExpiresAt = m.clock.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second)
	} else {
		m.tok.ExpiresAt = time.Time{}
	}
	if len(tokenResp.Scope) > 0 {
		m.tok.Scopes = NewScopes(tokenResp.Scope...)
	}
	m.gen++
	m.mu.Unlock()
	m.persist()

	v, err := m.Validate(ctx, tokenResp.AccessToken)
	if err != nil {
		m.log.Warn("Refreshed token could not be validated, keeping it", "error", err)
	} else {
		m.apply(v)
		m.persist()
	}

	snap := m.Snapshot()
	m.log.Info("Successfully refreshed access token",
		"login", snap.Login,
		"expires_at", snap.ExpiresAt)
	return nil
}

func (m *Manager) persist() {
	if m.store == nil {
		return
	}
	if err := m.store.Save(m.Snapshot()); err != nil {
		m.log.Warn("Failed to persist refreshed token", "error", err)
	}
}

// EnsureFresh returns a token that stays valid for at least skew,
// refreshing first when needed.
func (m *Manager) EnsureFresh(ctx context.Context, skew time.Duration) (Token, error) {
	m.mu.RLock()
	tok := m.tok.clone()
	gen := m.gen
	m.mu.RUnlock()

	if !tok.ExpiresWithin(m.clock.Now(), skew) {
		return tok, nil
	}
	if err := m.refreshFrom(ctx, gen); err != nil {
		return Token{}, err
	}
	return m.Snapshot(), nil
}

// AccessToken returns a fresh access token using the default skew.
func (m *Manager) AccessToken(ctx context.Context) (string, error) {
	tok, err := m.EnsureFresh(ctx, constants.DefaultRefreshSkew)
	if err != nil {
		return "", err
	}
	return tok.AccessToken, nil
}

// ClientID returns the client id the token was issued to.
func (m *Manager) ClientID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tok.ClientID
}

// Revoke invalidates the current access token server-side.
func (m *Manager) Revoke(ctx context.Context) error {
	tok := m.Snapshot()
	form := url.Values{
		"client_id": {tok.ClientID},
		"token":     {tok.AccessToken},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoints.Revoke,
		strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("creating revoke request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.doer.Do(req)
	if err != nil {
		return &TransportError{Op: "revoke", Err: err}
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return &TransportError{Op: "revoke", Status: resp.StatusCode, Err: errors.New(strings.TrimSpace(string(body)))}
	}

	m.log.Info("Access token revoked", "login", tok.Login)
	return nil
}
