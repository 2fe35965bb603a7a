package webhook

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/Guliveer/twitch-eventsub-go/internal/constants"
	"github.com/Guliveer/twitch-eventsub-go/internal/eventsub"
	"github.com/Guliveer/twitch-eventsub-go/internal/logger"
	"github.com/Guliveer/twitch-eventsub-go/internal/metrics"
)

// ErrChallengeFailed is reported on Handler.Fatal when a verification
// challenge could not be echoed back. The subscription will not be enabled.
var ErrChallengeFailed = errors.New("webhook: challenge response failed")

// DeliverFunc receives every notification and revocation that passed
// authentication. The response is written only after it returns; an error
// answers 500 so the platform retries the message.
type DeliverFunc func(ctx context.Context, d eventsub.Delivery) error

// HandlerConfig wires a Handler.
type HandlerConfig struct {
	Authenticator *Authenticator
	Resolver      *eventsub.Resolver
	// Dedup may be nil to process every delivery.
	Dedup   Deduplicator
	Deliver DeliverFunc
	Log     *logger.Logger
	Metrics *metrics.Metrics
}

// Handler is the http.Handler for the webhook callback URL.
type Handler struct {
	cfg HandlerConfig
	log *logger.Logger

	fatal     chan error
	fatalOnce sync.Once
}

// NewHandler returns a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	log := cfg.Log
	if log == nil {
		log = logger.Discard()
	}
	return &Handler{
		cfg:   cfg,
		log:   log,
		fatal: make(chan error, 1),
	}
}

// Fatal yields at most one error that makes the webhook transport unusable.
func (h *Handler) Fatal() <-chan error {
	return h.fatal
}

func (h *Handler) fail(err error) {
	h.fatalOnce.Do(func() {
		h.fatal <- err
	})
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, constants.MaxWebhookBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "body too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "reading body", http.StatusBadRequest)
		return
	}

	hdr := HeadersFrom(r.Header)
	if err := h.cfg.Authenticator.Verify(hdr, body); err != nil {
		h.cfg.Metrics.VerificationFailed(rejectReason(err))
		h.log.Warn("Rejected webhook delivery", "message_id", hdr.MessageID, "error", err)
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	ctx := r.Context()

	// Challenges are never deduplicated: a retried verification still
	// needs its echo.
	if h.cfg.Dedup != nil && hdr.MessageType != MessageTypeVerification {
		dup, err := h.cfg.Dedup.Seen(ctx, hdr.MessageID)
		switch {
		case err != nil:
			h.log.Warn("Deduplication unavailable, processing delivery", "message_id", hdr.MessageID, "error", err)
		case dup:
			h.cfg.Metrics.Duplicate(eventsub.TransportWebhook)
			h.log.Debug("Dropped duplicate delivery", "message_id", hdr.MessageID, "retry", hdr.RetryCount())
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}

	env, err := eventsub.Parse(body)
	if err != nil {
		h.forget(ctx, hdr)
		h.log.Warn("Unparsable webhook body", "message_id", hdr.MessageID, "error", err)
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if want := messageTypeOf(env); hdr.MessageType != "" && hdr.MessageType != want {
		h.forget(ctx, hdr)
		h.log.Warn("Message type header disagrees with body",
			"message_id", hdr.MessageID, "header", hdr.MessageType, "body", want)
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	ts, _ := time.Parse(time.RFC3339Nano, hdr.Timestamp)

	switch env := env.(type) {
	case *eventsub.VerificationChallenge:
		h.answerChallenge(w, env)

	case *eventsub.Notification:
		ev, err := h.cfg.Resolver.Resolve(env)
		if err != nil {
			h.cfg.Metrics.SchemaError()
			h.forget(ctx, hdr)
			h.log.Error("Notification does not match schema",
				"event_type", env.EventType, "subscription_id", env.SubscriptionID, "error", err)
			http.Error(w, "schema mismatch", http.StatusInternalServerError)
			return
		}
		if _, ok := ev.(*eventsub.Unknown); ok {
			h.cfg.Metrics.UnknownEvent()
		}
		h.deliver(ctx, w, hdr, eventsub.Delivery{
			MessageID:    hdr.MessageID,
			Timestamp:    ts,
			Transport:    eventsub.TransportWebhook,
			Subscription: env.Subscription,
			Event:        ev,
		})

	case *eventsub.Revocation:
		h.log.Warn("Subscription revoked",
			"subscription_id", env.SubscriptionID, "event_type", env.Subscription.Type, "reason", env.Reason)
		h.deliver(ctx, w, hdr, eventsub.Delivery{
			MessageID:    hdr.MessageID,
			Timestamp:    ts,
			Transport:    eventsub.TransportWebhook,
			Subscription: env.Subscription,
			Event:        env,
		})
	}
}

func (h *Handler) answerChallenge(w http.ResponseWriter, ch *eventsub.VerificationChallenge) {
	w.Header().Set("Content-Type", "text/plain")
	w.Header().Set("Content-Length", fmt.Sprint(len(ch.Challenge)))
	w.WriteHeader(http.StatusOK)
	if _, err := io.WriteString(w, ch.Challenge); err != nil {
		h.log.Error("Failed to answer verification challenge",
			"subscription_id", ch.Subscription.ID, "error", err)
		h.fail(fmt.Errorf("%w: %s: %v", ErrChallengeFailed, ch.Subscription.Type, err))
		return
	}
	h.log.Info("Answered verification challenge",
		"subscription_id", ch.Subscription.ID, "event_type", ch.Subscription.Type)
}

func (h *Handler) deliver(ctx context.Context, w http.ResponseWriter, hdr Headers, d eventsub.Delivery) {
	if h.cfg.Deliver != nil {
		if err := h.cfg.Deliver(ctx, d); err != nil {
			h.forget(ctx, hdr)
			h.log.Error("Delivery failed, asking for a retry",
				"message_id", d.MessageID, "event_type", d.EventType(), "error", err)
			http.Error(w, "delivery failed", http.StatusInternalServerError)
			return
		}
	}
	h.cfg.Metrics.EventDelivered(d.EventType(), d.Transport)
	w.WriteHeader(http.StatusNoContent)
}

// forget lets a delivery we answered with an error be processed when the
// platform retries it.
func (h *Handler) forget(ctx context.Context, hdr Headers) {
	if h.cfg.Dedup == nil || hdr.MessageType == MessageTypeVerification {
		return
	}
	if err := h.cfg.Dedup.Forget(ctx, hdr.MessageID); err != nil {
		h.log.Warn("Failed to forget message id", "message_id", hdr.MessageID, "error", err)
	}
}

func messageTypeOf(env eventsub.Envelope) string {
	switch env.(type) {
	case *eventsub.VerificationChallenge:
		return MessageTypeVerification
	case *eventsub.Revocation:
		return MessageTypeRevocation
	default:
		return MessageTypeNotification
	}
}
