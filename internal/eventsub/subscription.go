package eventsub

import (
	"encoding/json"
	"time"
)

// Status is the state of a subscription as reported by Twitch.
type Status string

// Subscription statuses.
const (
	StatusEnabled                            Status = "enabled"
	StatusWebhookCallbackVerificationPending Status = "webhook_callback_verification_pending"
	StatusWebhookCallbackVerificationFailed  Status = "webhook_callback_verification_failed"
	StatusNotificationFailuresExceeded       Status = "notification_failures_exceeded"
	StatusAuthorizationRevoked               Status = "authorization_revoked"
	StatusModeratorRemoved                   Status = "moderator_removed"
	StatusUserRemoved                        Status = "user_removed"
	StatusChatUserBanned                     Status = "chat_user_banned"
	StatusVersionRemoved                     Status = "version_removed"
	StatusBetaMaintenance                    Status = "beta_maintenance"
	StatusWebSocketDisconnected              Status = "websocket_disconnected"
)

// Terminal reports whether a subscription in this status will never deliver
// again. Revocation messages always carry a terminal status.
func (s Status) Terminal() bool {
	switch s {
	case StatusWebhookCallbackVerificationFailed,
		StatusNotificationFailuresExceeded,
		StatusAuthorizationRevoked,
		StatusModeratorRemoved,
		StatusUserRemoved,
		StatusChatUserBanned,
		StatusVersionRemoved,
		StatusBetaMaintenance:
		return true
	}
	return false
}

// Transport methods.
const (
	TransportWebhook   = "webhook"
	TransportWebSocket = "websocket"
	TransportConduit   = "conduit"
)

// Transport describes where a subscription delivers.
type Transport struct {
	Method         string     `json:"method"`
	Callback       string     `json:"callback,omitempty"`
	Secret         string     `json:"secret,omitempty"`
	SessionID      string     `json:"session_id,omitempty"`
	ConduitID      string     `json:"conduit_id,omitempty"`
	ConnectedAt    *time.Time `json:"connected_at,omitempty"`
	DisconnectedAt *time.Time `json:"disconnected_at,omitempty"`
}

// Subscription is the subscription object carried by every envelope.
type Subscription struct {
	ID        string          `json:"id"`
	Status    Status          `json:"status"`
	Type      string          `json:"type"`
	Version   string          `json:"version"`
	Cost      int             `json:"cost"`
	Condition json.RawMessage `json:"condition"`
	Transport Transport       `json:"transport"`
	CreatedAt time.Time       `json:"created_at"`
}

// ConditionMap decodes the condition into string pairs.
func (s Subscription) ConditionMap() (map[string]string, error) {
	if len(s.Condition) == 0 {
		return map[string]string{}, nil
	}
	var m map[string]string
	if err := json.Unmarshal(s.Condition, &m); err != nil {
		return nil, err
	}
	return m, nil
}
