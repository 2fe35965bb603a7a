package eventsub

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/Guliveer/twitch-eventsub-go/internal/jsonutil"
)

// Envelope parse errors.
var (
	ErrInvalidUTF8       = errors.New("eventsub: body is not valid UTF-8")
	ErrJSONSyntax        = errors.New("eventsub: malformed JSON")
	ErrUnrecognizedShape = errors.New("eventsub: unrecognized message shape")
)

// SyntaxError reports malformed JSON with the byte offset of the problem.
type SyntaxError struct {
	Offset int64
	Err    error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("eventsub: malformed JSON at offset %d: %v", e.Offset, e.Err)
}

func (e *SyntaxError) Unwrap() []error {
	return []error{ErrJSONSyntax, e.Err}
}

// Envelope is the outer shape of a delivery: one of *VerificationChallenge,
// *Notification or *Revocation.
type Envelope interface {
	isEnvelope()
}

// VerificationChallenge asks a webhook endpoint to prove it is the intended
// callback by echoing Challenge.
type VerificationChallenge struct {
	Challenge    string
	Subscription Subscription
}

func (*VerificationChallenge) isEnvelope() {}

// Notification is an event occurrence whose payload has not been resolved.
type Notification struct {
	SubscriptionID string
	EventType      string
	Version        string
	Condition      json.RawMessage
	CreatedAt      time.Time
	RawEvent       json.RawMessage
	Subscription   Subscription
}

func (*Notification) isEnvelope() {}

// Revocation tells the client a subscription will no longer deliver.
// It is both an Envelope and an Event so it can be handed to consumers.
type Revocation struct {
	SubscriptionID string
	Reason         Status
	Subscription   Subscription
}

func (*Revocation) isEnvelope() {}
func (*Revocation) isEvent()    {}

// MarshalJSON renders the revocation as the wire body it came from.
func (r *Revocation) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Subscription Subscription `json:"subscription"`
	}{r.Subscription})
}

// Parse classifies a webhook body (or a WebSocket notification/revocation
// payload) into an Envelope. Shapes are tried in a fixed order: verification
// challenge, then notification, then revocation.
func Parse(data []byte) (Envelope, error) {
	obj, err := decodeObject(data)
	if err != nil {
		return nil, err
	}

	rawSub, hasSub := obj["subscription"]
	hasSub = hasSub && !jsonutil.IsNull(rawSub)
	rawEvent, hasEvent := obj["event"]
	hasEvent = hasEvent && !jsonutil.IsNull(rawEvent)
	rawChallenge, hasChallenge := obj["challenge"]
	hasChallenge = hasChallenge && !jsonutil.IsNull(rawChallenge)

	var sub Subscription
	if hasSub {
		if err := json.Unmarshal(rawSub, &sub); err != nil {
			return nil, fmt.Errorf("%w: subscription: %v", ErrUnrecognizedShape, err)
		}
	}

	switch {
	case hasChallenge && !hasEvent && !sub.Status.Terminal():
		var challenge string
		if err := json.Unmarshal(rawChallenge, &challenge); err != nil {
			return nil, fmt.Errorf("%w: challenge is not a string", ErrUnrecognizedShape)
		}
		return &VerificationChallenge{Challenge: challenge, Subscription: sub}, nil

	case hasSub && hasEvent:
		if sub.Type == "" || sub.Version == "" {
			return nil, fmt.Errorf("%w: notification without subscription type/version", ErrUnrecognizedShape)
		}
		return &Notification{
			SubscriptionID: sub.ID,
			EventType:      sub.Type,
			Version:        sub.Version,
			Condition:      sub.Condition,
			CreatedAt:      sub.CreatedAt,
			RawEvent:       rawEvent,
			Subscription:   sub,
		}, nil

	case hasSub && sub.Status.Terminal():
		return &Revocation{SubscriptionID: sub.ID, Reason: sub.Status, Subscription: sub}, nil
	}

	return nil, ErrUnrecognizedShape
}

func decodeObject(data []byte) (map[string]json.RawMessage, error) {
	if !utf8.Valid(data) {
		return nil, ErrInvalidUTF8
	}
	if !json.Valid(data) {
		var v any
		err := json.Unmarshal(data, &v)
		var se *json.SyntaxError
		if errors.As(err, &se) {
			return nil, &SyntaxError{Offset: se.Offset, Err: se}
		}
		return nil, &SyntaxError{Offset: int64(len(data)), Err: err}
	}
	obj, err := jsonutil.Object(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnrecognizedShape, err)
	}
	return obj, nil
}
