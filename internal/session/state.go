// Package session maintains one EventSub WebSocket session: it dials,
// waits for the welcome, watches the keepalive deadline and hands the
// session over to a new connection when the server asks for it, without a
// delivery gap.
package session

import (
	"time"

	"github.com/Guliveer/twitch-eventsub-go/internal/eventsub"
)

// State is the lifecycle state of a Manager.
type State int

// Manager states.
const (
	StateConnecting State = iota
	StateWelcomed
	StateActive
	StateReconnecting
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateWelcomed:
		return "welcomed"
	case StateActive:
		return "active"
	case StateReconnecting:
		return "reconnecting"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Session is the identity of the welcomed connection. Subscriptions with
// the websocket transport are bound to ID.
type Session struct {
	ID               string
	KeepaliveTimeout time.Duration
	Status           State
	// ReconnectURL is set while a server-requested handover is in flight.
	ReconnectURL  string
	ConnectedAt   time.Time
	LastMessageAt time.Time
}

// Delivery is what the Manager sends on its events channel.
type Delivery = eventsub.Delivery

func sessionFrom(info eventsub.SessionInfo) Session {
	return Session{
		ID:               info.ID,
		KeepaliveTimeout: info.KeepaliveTimeout(),
		ConnectedAt:      info.ConnectedAt,
	}
}
