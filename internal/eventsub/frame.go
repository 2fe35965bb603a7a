package eventsub

import (
	"encoding/json"
	"fmt"
	"time"
)

// MessageType is metadata.message_type of a WebSocket frame.
type MessageType string

// WebSocket message types.
const (
	MessageWelcome      MessageType = "session_welcome"
	MessageKeepalive    MessageType = "session_keepalive"
	MessageNotification MessageType = "notification"
	MessageReconnect    MessageType = "session_reconnect"
	MessageRevocation   MessageType = "revocation"
)

// Metadata is the metadata object every WebSocket frame carries.
type Metadata struct {
	MessageID           string      `json:"message_id"`
	MessageType         MessageType `json:"message_type"`
	MessageTimestamp    time.Time   `json:"message_timestamp"`
	SubscriptionType    string      `json:"subscription_type,omitempty"`
	SubscriptionVersion string      `json:"subscription_version,omitempty"`
}

// Meta returns m. Embedding Metadata makes a struct a Frame.
func (m Metadata) Meta() Metadata {
	return m
}

// SessionInfo is the session object of welcome and reconnect frames.
type SessionInfo struct {
	ID                      string    `json:"id"`
	Status                  string    `json:"status"`
	ConnectedAt             time.Time `json:"connected_at"`
	KeepaliveTimeoutSeconds *int      `json:"keepalive_timeout_seconds"`
	ReconnectURL            *string   `json:"reconnect_url"`
	RecoveryURL             *string   `json:"recovery_url"`
}

// KeepaliveTimeout returns the advertised keepalive window, or zero when the
// server did not send one.
func (s SessionInfo) KeepaliveTimeout() time.Duration {
	if s.KeepaliveTimeoutSeconds == nil {
		return 0
	}
	return time.Duration(*s.KeepaliveTimeoutSeconds) * time.Second
}

// Frame is a decoded WebSocket message: one of *WelcomeFrame,
// *KeepaliveFrame, *NotificationFrame, *ReconnectFrame or *RevocationFrame.
type Frame interface {
	Meta() Metadata
}

// WelcomeFrame opens a session.
type WelcomeFrame struct {
	Metadata
	Session SessionInfo
}

// KeepaliveFrame proves the connection is alive when no events flow.
type KeepaliveFrame struct {
	Metadata
}

// NotificationFrame carries one event.
type NotificationFrame struct {
	Metadata
	Notification *Notification
}

// ReconnectFrame asks the client to move to Session.ReconnectURL.
type ReconnectFrame struct {
	Metadata
	Session SessionInfo
}

// RevocationFrame reports a revoked subscription.
type RevocationFrame struct {
	Metadata
	Revocation *Revocation
}

type rawFrame struct {
	Metadata Metadata        `json:"metadata"`
	Payload  json.RawMessage `json:"payload"`
}

// ParseFrame decodes one WebSocket text message. Errors match the envelope
// errors: ErrInvalidUTF8, ErrJSONSyntax and ErrUnrecognizedShape.
func ParseFrame(data []byte) (Frame, error) {
	obj, err := decodeObject(data)
	if err != nil {
		return nil, err
	}
	if _, ok := obj["metadata"]; !ok {
		return nil, fmt.Errorf("%w: frame without metadata", ErrUnrecognizedShape)
	}

	var raw rawFrame
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnrecognizedShape, err)
	}
	meta := raw.Metadata

	switch meta.MessageType {
	case MessageWelcome, MessageReconnect:
		var p struct {
			Session *SessionInfo `json:"session"`
		}
		if err := json.Unmarshal(raw.Payload, &p); err != nil || p.Session == nil || p.Session.ID == "" {
			return nil, fmt.Errorf("%w: %s without session", ErrUnrecognizedShape, meta.MessageType)
		}
		if meta.MessageType == MessageWelcome {
			if p.Session.KeepaliveTimeoutSeconds == nil {
				return nil, fmt.Errorf("%w: welcome without keepalive_timeout_seconds", ErrUnrecognizedShape)
			}
			return &WelcomeFrame{Metadata: meta, Session: *p.Session}, nil
		}
		if p.Session.ReconnectURL == nil || *p.Session.ReconnectURL == "" {
			return nil, fmt.Errorf("%w: reconnect without reconnect_url", ErrUnrecognizedShape)
		}
		return &ReconnectFrame{Metadata: meta, Session: *p.Session}, nil

	case MessageKeepalive:
		return &KeepaliveFrame{Metadata: meta}, nil

	case MessageNotification:
		env, err := Parse(raw.Payload)
		if err != nil {
			return nil, err
		}
		n, ok := env.(*Notification)
		if !ok {
			return nil, fmt.Errorf("%w: notification frame carries %T", ErrUnrecognizedShape, env)
		}
		return &NotificationFrame{Metadata: meta, Notification: n}, nil

	case MessageRevocation:
		env, err := Parse(raw.Payload)
		if err != nil {
			return nil, err
		}
		rv, ok := env.(*Revocation)
		if !ok {
			return nil, fmt.Errorf("%w: revocation frame carries %T", ErrUnrecognizedShape, env)
		}
		return &RevocationFrame{Metadata: meta, Revocation: rv}, nil
	}

	return nil, fmt.Errorf("%w: message_type %q", ErrUnrecognizedShape, meta.MessageType)
}
