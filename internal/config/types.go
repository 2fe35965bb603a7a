package config

import "time"

// Config is the full configuration of one EventSub client process.
type Config struct {
	Auth          AuthConfig           `yaml:"auth"`
	WebSocket     WebSocketConfig      `yaml:"websocket"`
	Webhook       WebhookConfig        `yaml:"webhook"`
	Parser        ParserConfig         `yaml:"parser"`
	Subscriptions []SubscriptionConfig `yaml:"subscriptions"`
	Sinks         SinksConfig          `yaml:"sinks"`
	Server        ServerConfig         `yaml:"server"`
	Dedup         DedupConfig          `yaml:"dedup"`
	Log           LogConfig            `yaml:"log"`
}

// AuthConfig holds the application and user credentials. Secrets are
// normally supplied through the environment.
type AuthConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	AccessToken  string `yaml:"access_token"`
	RefreshToken string `yaml:"refresh_token"`
	// TokenFile persists refreshed tokens across restarts.
	TokenFile string `yaml:"token_file"`
	// Scopes are requested by the device code login.
	Scopes           []string      `yaml:"scopes"`
	ValidateInterval time.Duration `yaml:"validate_interval"`
	RefreshSkew      time.Duration `yaml:"refresh_skew"`
}

// WebSocketConfig configures the WebSocket transport.
type WebSocketConfig struct {
	Enabled              bool          `yaml:"enabled"`
	URL                  string        `yaml:"url"`
	WelcomeTimeout       time.Duration `yaml:"welcome_timeout"`
	KeepaliveGrace       time.Duration `yaml:"keepalive_grace"`
	MaxReconnectAttempts int           `yaml:"max_reconnect_attempts"`
	InitialBackoff       time.Duration `yaml:"initial_backoff"`
	MaxBackoff           time.Duration `yaml:"max_backoff"`
	EventBuffer          int           `yaml:"event_buffer"`
}

// WebhookConfig configures the webhook transport.
type WebhookConfig struct {
	Enabled bool `yaml:"enabled"`
	// Path is where the callback is served locally.
	Path string `yaml:"path"`
	// Callback is the public HTTPS URL Twitch delivers to.
	Callback  string        `yaml:"callback"`
	Secret    string        `yaml:"secret"`
	Tolerance time.Duration `yaml:"tolerance"`
	RateLimit int           `yaml:"rate_limit"`
}

// ParserConfig controls payload decoding.
type ParserConfig struct {
	Strict bool `yaml:"strict"`
}

// SubscriptionConfig is one subscription to create.
type SubscriptionConfig struct {
	Type      string            `yaml:"type"`
	Version   string            `yaml:"version"`
	Condition map[string]string `yaml:"condition"`
	// Transport is "websocket" or "webhook". Empty picks the WebSocket when
	// it is enabled.
	Transport string `yaml:"transport"`
}

// SinksConfig lists where deliveries go.
type SinksConfig struct {
	Log  LogSinkConfig    `yaml:"log"`
	HTTP []HTTPSinkConfig `yaml:"http"`
}

// LogSinkConfig configures the log sink.
type LogSinkConfig struct {
	// Enabled defaults to true.
	Enabled *bool    `yaml:"enabled,omitempty"`
	Level   string   `yaml:"level"`
	Events  []string `yaml:"events"`
}

// HTTPSinkConfig configures one HTTP forwarding sink.
type HTTPSinkConfig struct {
	Name    string            `yaml:"name"`
	URL     string            `yaml:"url"`
	Headers map[string]string `yaml:"headers"`
	Secret  string            `yaml:"secret"`
	Events  []string          `yaml:"events"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr    string `yaml:"addr"`
	Metrics bool   `yaml:"metrics"`
}

// DedupConfig selects the message id store.
type DedupConfig struct {
	// Backend is "memory" or "redis".
	Backend  string        `yaml:"backend"`
	RedisURL string        `yaml:"redis_url"`
	TTL      time.Duration `yaml:"ttl"`
	// Size bounds the in-process window used for WebSocket deliveries.
	Size int `yaml:"size"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level     string `yaml:"level"`
	FileLevel string `yaml:"file_level"`
	Dir       string `yaml:"dir"`
}

// LogSinkEnabled reports whether the log sink is on.
func (c *Config) LogSinkEnabled() bool {
	return c.Sinks.Log.Enabled == nil || *c.Sinks.Log.Enabled
}

// ServerEnabled reports whether the HTTP server has anything to serve.
func (c *Config) ServerEnabled() bool {
	return c.Webhook.Enabled || c.Server.Metrics
}

// TransportOf returns the transport a subscription is created on.
func (c *Config) TransportOf(s SubscriptionConfig) string {
	if s.Transport != "" {
		return s.Transport
	}
	if c.WebSocket.Enabled {
		return "websocket"
	}
	return "webhook"
}
