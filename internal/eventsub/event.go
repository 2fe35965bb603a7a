// Package eventsub implements the EventSub wire model: the registry of known
// subscription types, the envelope parser for webhook bodies and WebSocket
// frames, and the resolver that turns a raw notification into a typed Event.
package eventsub

import (
	"encoding/json"
)

// Event is a resolved notification payload. The set of implementations is
// closed: one struct per registered (type, version), plus *Unknown for
// types this build does not know and *Revocation for revoked subscriptions.
type Event interface {
	isEvent()
}

// event is embedded by every payload struct to seal Event.
type event struct{}

func (event) isEvent() {}

// Unknown carries a notification whose (type, version) is not in the
// registry. Raw is the event object exactly as received.
type Unknown struct {
	EventType string
	Version   string
	Raw       json.RawMessage
}

func (*Unknown) isEvent() {}

// MarshalJSON reproduces the raw event.
func (u *Unknown) MarshalJSON() ([]byte, error) {
	if len(u.Raw) == 0 {
		return []byte("null"), nil
	}
	return u.Raw, nil
}

// TypeOf returns the (type, version) an event was resolved from, consulting
// r for registered payloads. ok is false for events r does not know.
func TypeOf(r *Registry, ev Event) (eventType, version string, ok bool) {
	switch e := ev.(type) {
	case *Unknown:
		return e.EventType, e.Version, true
	case *Revocation:
		return e.Subscription.Type, e.Subscription.Version, true
	}
	d, ok := r.DescriptorOf(ev)
	if !ok {
		return "", "", false
	}
	return d.Type, d.Version, true
}
