// Package webhook receives EventSub deliveries over HTTP: it authenticates
// each request, answers verification challenges, drops redeliveries and
// hands resolved events to a callback.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/Guliveer/twitch-eventsub-go/internal/constants"
)

// Authentication errors.
var (
	ErrMalformedHeaders  = errors.New("webhook: missing or malformed headers")
	ErrStaleTimestamp    = errors.New("webhook: timestamp outside tolerance")
	ErrSignatureMismatch = errors.New("webhook: signature mismatch")
	ErrInvalidSecret     = errors.New("webhook: secret must be 10 to 100 ASCII characters")
)

const signaturePrefix = "sha256="

// Message types carried in the Twitch-Eventsub-Message-Type header.
const (
	MessageTypeNotification = "notification"
	MessageTypeVerification = "webhook_callback_verification"
	MessageTypeRevocation   = "revocation"
)

// Headers are the EventSub headers of one delivery.
type Headers struct {
	MessageID           string
	Timestamp           string
	Signature           string
	MessageType         string
	Retry               string
	SubscriptionType    string
	SubscriptionVersion string
}

// HeadersFrom extracts the EventSub headers from h.
func HeadersFrom(h http.Header) Headers {
	return Headers{
		MessageID:           h.Get(constants.HeaderMessageID),
		Timestamp:           h.Get(constants.HeaderMessageTimestamp),
		Signature:           h.Get(constants.HeaderMessageSignature),
		MessageType:         h.Get(constants.HeaderMessageType),
		Retry:               h.Get(constants.HeaderMessageRetry),
		SubscriptionType:    h.Get(constants.HeaderSubscriptionType),
		SubscriptionVersion: h.Get(constants.HeaderSubscriptionVersion),
	}
}

// RetryCount returns the platform's redelivery counter, 0 when absent.
func (h Headers) RetryCount() int {
	n, _ := strconv.Atoi(h.Retry)
	return n
}

// Option configures an Authenticator.
type Option func(*Authenticator)

// WithTolerance sets how far a delivery timestamp may be from now.
func WithTolerance(d time.Duration) Option {
	return func(a *Authenticator) { a.tolerance = d }
}

// WithClock replaces the wall clock.
func WithClock(c clockwork.Clock) Option {
	return func(a *Authenticator) { a.clock = c }
}

// Authenticator checks that deliveries were signed with the shared secret
// and are recent. It holds no mutable state.
type Authenticator struct {
	secret    []byte
	tolerance time.Duration
	clock     clockwork.Clock
}

// NewAuthenticator returns an Authenticator for secret.
func NewAuthenticator(secret string, opts ...Option) (*Authenticator, error) {
	if err := ValidateSecret(secret); err != nil {
		return nil, err
	}
	a := &Authenticator{
		secret:    []byte(secret),
		tolerance: constants.DefaultWebhookTolerance,
		clock:     clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// ValidateSecret checks the length and alphabet Twitch accepts for a
// transport secret.
func ValidateSecret(secret string) error {
	if len(secret) < 10 || len(secret) > 100 {
		return ErrInvalidSecret
	}
	for i := 0; i < len(secret); i++ {
		if secret[i] < 0x20 || secret[i] > 0x7e {
			return ErrInvalidSecret
		}
	}
	return nil
}

// Verify authenticates one delivery. Freshness is checked before the
// signature.
func (a *Authenticator) Verify(h Headers, body []byte) error {
	if h.MessageID == "" || h.Timestamp == "" || h.Signature == "" {
		return ErrMalformedHeaders
	}

	ts, err := time.Parse(time.RFC3339Nano, h.Timestamp)
	if err != nil {
		return fmt.Errorf("%w: timestamp %q", ErrMalformedHeaders, h.Timestamp)
	}
	if age := a.clock.Since(ts); age > a.tolerance || age < -a.tolerance {
		return fmt.Errorf("%w: %s old", ErrStaleTimestamp, age.Round(time.Second))
	}

	if !strings.HasPrefix(h.Signature, signaturePrefix) {
		return ErrSignatureMismatch
	}
	got, err := hex.DecodeString(strings.TrimPrefix(h.Signature, signaturePrefix))
	if err != nil {
		return ErrSignatureMismatch
	}
	if !hmac.Equal(got, mac(a.secret, h.MessageID, h.Timestamp, body)) {
		return ErrSignatureMismatch
	}
	return nil
}

// Sign returns the Twitch-Eventsub-Message-Signature value for a delivery.
func Sign(secret, messageID, timestamp string, body []byte) string {
	return signaturePrefix + hex.EncodeToString(mac([]byte(secret), messageID, timestamp, body))
}

func mac(secret []byte, messageID, timestamp string, body []byte) []byte {
	h := hmac.New(sha256.New, secret)
	h.Write([]byte(messageID))
	h.Write([]byte(timestamp))
	h.Write(body)
	return h.Sum(nil)
}

// rejectReason labels a Verify error for metrics.
func rejectReason(err error) string {
	switch {
	case errors.Is(err, ErrStaleTimestamp):
		return "stale"
	case errors.Is(err, ErrSignatureMismatch):
		return "signature"
	default:
		return "headers"
	}
}
