// Package constants defines the Twitch endpoints, EventSub header names, and
// default timeout/interval values used throughout the client.
package constants

import "time"

const (
	// ValidateURL is the Twitch OAuth2 token validation endpoint.
	ValidateURL = "https://id.twitch.tv/oauth2/validate"
	// TokenURL is the Twitch OAuth2 token endpoint.
	TokenURL = "https://id.twitch.tv/oauth2/token"
	// RevokeURL is the Twitch OAuth2 token revocation endpoint.
	RevokeURL = "https://id.twitch.tv/oauth2/revoke"
	// DeviceCodeURL is the Twitch OAuth2 device code endpoint.
	DeviceCodeURL = "https://id.twitch.tv/oauth2/device"
	// HelixURL is the base URL of the Helix REST API.
	HelixURL = "https://api.twitch.tv/helix"
	// EventSubWebSocketURL is the default EventSub WebSocket endpoint.
	EventSubWebSocketURL = "wss://eventsub.wss.twitch.tv/ws"
)

// Webhook delivery headers.
const (
	HeaderMessageID           = "Twitch-Eventsub-Message-Id"
	HeaderMessageTimestamp    = "Twitch-Eventsub-Message-Timestamp"
	HeaderMessageSignature    = "Twitch-Eventsub-Message-Signature"
	HeaderMessageType         = "Twitch-Eventsub-Message-Type"
	HeaderMessageRetry        = "Twitch-Eventsub-Message-Retry"
	HeaderSubscriptionType    = "Twitch-Eventsub-Subscription-Type"
	HeaderSubscriptionVersion = "Twitch-Eventsub-Subscription-Version"
)

const (
	// DefaultHTTPTimeout is the default timeout for REST requests.
	DefaultHTTPTimeout = 15 * time.Second
	// DefaultRefreshSkew is how long a token must remain valid before it is
	// handed to a caller without refreshing.
	DefaultRefreshSkew = 60 * time.Second
	// RefreshTimeout bounds one shared token refresh, including the
	// validation of the new token.
	RefreshTimeout = 30 * time.Second
	// DefaultValidateInterval is how often a held token is re-validated.
	// Twitch requires applications to validate at least once per hour.
	DefaultValidateInterval = time.Hour
	// DefaultWebhookTolerance bounds how old a webhook delivery may be.
	DefaultWebhookTolerance = 10 * time.Minute
	// MaxWebhookBody caps the size of an accepted webhook body.
	MaxWebhookBody = 1 << 20
	// DefaultWelcomeTimeout bounds the wait for session_welcome after dialing.
	DefaultWelcomeTimeout = 10 * time.Second
	// DefaultKeepaliveGrace is added to the server-provided keepalive timeout.
	DefaultKeepaliveGrace = 2 * time.Second
	// DefaultMaxReconnectAttempts is the reconnect retry budget.
	DefaultMaxReconnectAttempts = 8
	// DefaultInitialBackoff is the first reconnect delay.
	DefaultInitialBackoff = time.Second
	// DefaultMaxBackoff caps the reconnect delay.
	DefaultMaxBackoff = 60 * time.Second
	// DefaultEventBuffer is the capacity of the consumer channel.
	DefaultEventBuffer = 64
	// WebSocketReadLimit is the largest frame the session accepts.
	WebSocketReadLimit = 512 << 10
	// DefaultGracefulShutdownTimeout is the timeout for graceful HTTP server shutdown.
	DefaultGracefulShutdownTimeout = 5 * time.Second
	// SubscriptionWorkers bounds concurrent subscription create calls.
	SubscriptionWorkers = 5
)
