package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Guliveer/twitch-eventsub-go/internal/constants"
)

const sample = `
auth:
  client_id: abc
  token_file: token.json
  scopes: [moderator:read:followers]
websocket:
  enabled: true
  keepalive_grace: 5s
webhook:
  enabled: true
  callback: https://example.com/eventsub
  path: /eventsub
parser:
  strict: true
subscriptions:
  - type: channel.follow
    version: "2"
    condition:
      broadcaster_user_id: "1337"
      moderator_user_id: "1337"
  - type: stream.online
    condition:
      broadcaster_user_id: "1337"
    transport: webhook
sinks:
  log:
    events: ["channel.*"]
  http:
    - name: relay
      url: http://localhost:9000/events
server:
  metrics: true
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "eventsub.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	t.Setenv(EnvWebhookSecret, "s3cr3t-value-123")
	t.Setenv(EnvClientSecret, "app-secret")
	t.Setenv(EnvClientID, "")
	t.Setenv(EnvRedisURL, "")

	cfg, err := Load(writeConfig(t, sample))
	require.NoError(t, err)

	assert.Equal(t, "abc", cfg.Auth.ClientID)
	assert.Equal(t, []string{"moderator:read:followers"}, cfg.Auth.Scopes)
	assert.Equal(t, constants.DefaultValidateInterval, cfg.Auth.ValidateInterval)
	assert.Equal(t, 5*time.Second, cfg.WebSocket.KeepaliveGrace)
	assert.Equal(t, constants.EventSubWebSocketURL, cfg.WebSocket.URL)
	assert.Equal(t, constants.DefaultMaxReconnectAttempts, cfg.WebSocket.MaxReconnectAttempts)
	assert.Equal(t, "s3cr3t-value-123", cfg.Webhook.Secret)
	assert.Equal(t, "app-secret", cfg.Auth.ClientSecret)
	assert.Equal(t, "/eventsub", cfg.Webhook.Path)
	assert.True(t, cfg.Parser.Strict)

	require.Len(t, cfg.Subscriptions, 2)
	assert.Equal(t, "2", cfg.Subscriptions[0].Version)
	assert.Equal(t, "1", cfg.Subscriptions[1].Version)
	assert.Equal(t, "websocket", cfg.TransportOf(cfg.Subscriptions[0]))
	assert.Equal(t, "webhook", cfg.TransportOf(cfg.Subscriptions[1]))

	assert.True(t, cfg.LogSinkEnabled())
	assert.Equal(t, []string{"channel.*"}, cfg.Sinks.Log.Events)
	assert.Equal(t, "relay", cfg.Sinks.HTTP[0].Name)
	assert.True(t, cfg.ServerEnabled())
	assert.Equal(t, DefaultServerAddr, cfg.Server.Addr)
	assert.Equal(t, "memory", cfg.Dedup.Backend)

	require.NoError(t, Validate(cfg))
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv(EnvClientID, "from-env")
	t.Setenv(EnvAccessToken, "access")
	t.Setenv(EnvRedisURL, "redis://localhost:6379/0")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Auth.ClientID)
	assert.Equal(t, "access", cfg.Auth.AccessToken)
	assert.Equal(t, "redis", cfg.Dedup.Backend)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Dedup.RedisURL)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	_, err := Load(writeConfig(t, "websocket:\n  enabeld: true\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "enabeld")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{
			Auth:      AuthConfig{ClientID: "abc", AccessToken: "tok"},
			WebSocket: WebSocketConfig{Enabled: true},
		}
		ApplyDefaults(cfg)
		return cfg
	}
	require.NoError(t, Validate(valid()))

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"client id", func(c *Config) { c.Auth.ClientID = "" }, "auth.client_id"},
		{"no token", func(c *Config) { c.Auth.AccessToken = "" }, "no user token"},
		{"refresh without secret", func(c *Config) { c.Auth.RefreshToken = "r" }, "client_secret"},
		{"no transport", func(c *Config) { c.WebSocket.Enabled = false }, "at least one"},
		{"ws url", func(c *Config) { c.WebSocket.URL = "https://x" }, "websocket.url"},
		{"webhook callback", func(c *Config) {
			c.Webhook.Enabled = true
			c.Webhook.Secret = "s3cr3t-value-123"
			c.Webhook.Callback = "http://insecure"
		}, "webhook.callback"},
		{"webhook secret", func(c *Config) {
			c.Webhook.Enabled = true
			c.Webhook.Callback = "https://example.com/cb"
			c.Webhook.Secret = "short"
		}, "webhook.secret"},
		{"webhook without client secret", func(c *Config) {
			c.Webhook.Enabled = true
			c.Webhook.Callback = "https://example.com/cb"
			c.Webhook.Secret = "s3cr3t-value-123"
		}, "webhook app token"},
		{"transport disabled", func(c *Config) {
			c.Subscriptions = []SubscriptionConfig{{Type: "stream.online", Transport: "webhook"}}
		}, "webhook transport is not enabled"},
		{"unknown transport", func(c *Config) {
			c.Subscriptions = []SubscriptionConfig{{Type: "stream.online", Transport: "carrier-pigeon"}}
		}, "unknown transport"},
		{"missing type", func(c *Config) { c.Subscriptions = []SubscriptionConfig{{}} }, "type is required"},
		{"sink url", func(c *Config) { c.Sinks.HTTP = []HTTPSinkConfig{{URL: "::"}} }, "sinks.http[0]"},
		{"redis url", func(c *Config) { c.Dedup.Backend = "redis" }, "dedup.redis_url"},
		{"backend", func(c *Config) { c.Dedup.Backend = "etcd" }, "dedup.backend"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := Validate(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auth.client_id")
	assert.Contains(t, err.Error(), "no user token")
	assert.Contains(t, err.Error(), "at least one")
}
