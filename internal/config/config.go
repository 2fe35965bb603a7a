// Package config loads and validates the YAML configuration of the EventSub
// client, with environment variable overrides for secrets.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/Guliveer/twitch-eventsub-go/internal/constants"
	"github.com/Guliveer/twitch-eventsub-go/internal/webhook"
)

// DefaultConfigPath is used when no -config flag is given.
const DefaultConfigPath = "eventsub.yaml"

// Defaults not owned by another package.
const (
	DefaultServerAddr  = ":8080"
	DefaultWebhookPath = "/webhook"
	DefaultDedupTTL    = constants.DefaultWebhookTolerance
	DefaultDedupSize   = 4096
	DefaultRedisPrefix = "eventsub:"
)

// Environment variables that override the file.
const (
	EnvClientID        = "TWITCH_CLIENT_ID"
	EnvClientSecret    = "TWITCH_CLIENT_SECRET"
	EnvAccessToken     = "TWITCH_ACCESS_TOKEN"
	EnvRefreshToken    = "TWITCH_REFRESH_TOKEN"
	EnvWebhookSecret   = "EVENTSUB_WEBHOOK_SECRET"
	EnvWebhookCallback = "EVENTSUB_WEBHOOK_CALLBACK"
	EnvServerAddr      = "EVENTSUB_SERVER_ADDR"
	EnvRedisURL        = "REDIS_URL"
)

// Load reads the optional .env file, then the YAML file at path, then
// applies defaults and environment overrides. An empty path skips the
// file. The result is not validated.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := decode(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	ApplyDefaults(&cfg)
	applyEnvOverrides(&cfg)
	return &cfg, nil
}

// decode rejects unknown keys so typos surface at startup.
func decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// ApplyDefaults fills every unset field with its default.
func ApplyDefaults(cfg *Config) {
	if cfg.Auth.ValidateInterval == 0 {
		cfg.Auth.ValidateInterval = constants.DefaultValidateInterval
	}
	if cfg.Auth.RefreshSkew == 0 {
		cfg.Auth.RefreshSkew = constants.DefaultRefreshSkew
	}

	ws := &cfg.WebSocket
	if ws.URL == "" {
		ws.URL = constants.EventSubWebSocketURL
	}
	if ws.WelcomeTimeout == 0 {
		ws.WelcomeTimeout = constants.DefaultWelcomeTimeout
	}
	if ws.KeepaliveGrace == 0 {
		ws.KeepaliveGrace = constants.DefaultKeepaliveGrace
	}
	if ws.MaxReconnectAttempts == 0 {
		ws.MaxReconnectAttempts = constants.DefaultMaxReconnectAttempts
	}
	if ws.InitialBackoff == 0 {
		ws.InitialBackoff = constants.DefaultInitialBackoff
	}
	if ws.MaxBackoff == 0 {
		ws.MaxBackoff = constants.DefaultMaxBackoff
	}
	if ws.EventBuffer == 0 {
		ws.EventBuffer = constants.DefaultEventBuffer
	}

	if cfg.Webhook.Path == "" {
		cfg.Webhook.Path = DefaultWebhookPath
	}
	if cfg.Webhook.Tolerance == 0 {
		cfg.Webhook.Tolerance = constants.DefaultWebhookTolerance
	}

	for i := range cfg.Subscriptions {
		if cfg.Subscriptions[i].Version == "" {
			cfg.Subscriptions[i].Version = "1"
		}
	}

	if cfg.Server.Addr == "" {
		cfg.Server.Addr = DefaultServerAddr
	}

	if cfg.Dedup.Backend == "" {
		cfg.Dedup.Backend = "memory"
	}
	if cfg.Dedup.TTL == 0 {
		cfg.Dedup.TTL = DefaultDedupTTL
	}
	if cfg.Dedup.Size == 0 {
		cfg.Dedup.Size = DefaultDedupSize
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Sinks.Log.Level == "" {
		cfg.Sinks.Log.Level = "info"
	}
}

func applyEnvOverrides(cfg *Config) {
	override := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	override(&cfg.Auth.ClientID, EnvClientID)
	override(&cfg.Auth.ClientSecret, EnvClientSecret)
	override(&cfg.Auth.AccessToken, EnvAccessToken)
	override(&cfg.Auth.RefreshToken, EnvRefreshToken)
	override(&cfg.Webhook.Secret, EnvWebhookSecret)
	override(&cfg.Webhook.Callback, EnvWebhookCallback)
	override(&cfg.Server.Addr, EnvServerAddr)
	if v := os.Getenv(EnvRedisURL); v != "" {
		cfg.Dedup.RedisURL = v
		cfg.Dedup.Backend = "redis"
	}
}

// Validate checks the configuration and reports every problem found.
func Validate(cfg *Config) error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if cfg.Auth.ClientID == "" {
		fail("auth.client_id is required (or set %s)", EnvClientID)
	}
	if cfg.Auth.AccessToken == "" && cfg.Auth.RefreshToken == "" && cfg.Auth.TokenFile == "" {
		fail("no user token: set %s, %s or auth.token_file", EnvAccessToken, EnvRefreshToken)
	}
	if cfg.Auth.RefreshToken != "" && cfg.Auth.ClientSecret == "" {
		fail("auth.client_secret is required to refresh tokens (or set %s)", EnvClientSecret)
	}

	if !cfg.WebSocket.Enabled && !cfg.Webhook.Enabled {
		fail("enable at least one of websocket or webhook")
	}
	if cfg.WebSocket.Enabled {
		if u, err := url.Parse(cfg.WebSocket.URL); err != nil || (u.Scheme != "wss" && u.Scheme != "ws") {
			fail("websocket.url %q must be a ws:// or wss:// URL", cfg.WebSocket.URL)
		}
		if cfg.WebSocket.MaxReconnectAttempts < 0 {
			fail("websocket.max_reconnect_attempts must not be negative")
		}
		if cfg.WebSocket.EventBuffer < 0 {
			fail("websocket.event_buffer must not be negative")
		}
	}
	if cfg.Webhook.Enabled {
		if u, err := url.Parse(cfg.Webhook.Callback); err != nil || u.Scheme != "https" || u.Host == "" {
			fail("webhook.callback %q must be an https URL (or set %s)", cfg.Webhook.Callback, EnvWebhookCallback)
		}
		if err := webhook.ValidateSecret(cfg.Webhook.Secret); err != nil {
			fail("webhook.secret: %w (or set %s)", err, EnvWebhookSecret)
		}
		if cfg.Auth.ClientSecret == "" {
			fail("auth.client_secret is required for the webhook app token (or set %s)", EnvClientSecret)
		}
		if !strings.HasPrefix(cfg.Webhook.Path, "/") {
			fail("webhook.path %q must start with /", cfg.Webhook.Path)
		}
	}

	for i, s := range cfg.Subscriptions {
		if s.Type == "" {
			fail("subscriptions[%d]: type is required", i)
		}
		switch t := cfg.TransportOf(s); t {
		case "websocket":
			if !cfg.WebSocket.Enabled {
				fail("subscriptions[%d] %s: websocket transport is not enabled", i, s.Type)
			}
		case "webhook":
			if !cfg.Webhook.Enabled {
				fail("subscriptions[%d] %s: webhook transport is not enabled", i, s.Type)
			}
		default:
			fail("subscriptions[%d] %s: unknown transport %q", i, s.Type, t)
		}
	}

	for i, h := range cfg.Sinks.HTTP {
		if u, err := url.Parse(h.URL); err != nil || u.Host == "" {
			fail("sinks.http[%d]: invalid url %q", i, h.URL)
		}
	}

	switch cfg.Dedup.Backend {
	case "memory":
	case "redis":
		if cfg.Dedup.RedisURL == "" {
			fail("dedup.redis_url is required for the redis backend (or set %s)", EnvRedisURL)
		}
	default:
		fail("dedup.backend %q must be memory or redis", cfg.Dedup.Backend)
	}

	return errors.Join(errs...)
}
