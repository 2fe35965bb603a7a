package eventsub

import "time"

// Delivery is one event handed to consumers, whichever transport carried
// it. Err is set, and Event nil, when the payload failed its schema.
type Delivery struct {
	MessageID string
	Timestamp time.Time
	// Transport is TransportWebhook or TransportWebSocket.
	Transport    string
	SessionID    string
	Subscription Subscription
	Event        Event
	Err          error
}

// EventType returns the subscription type the delivery belongs to.
func (d Delivery) EventType() string {
	return d.Subscription.Type
}
