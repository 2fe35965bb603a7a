package sink

import (
	"context"
	"log/slog"

	"github.com/Guliveer/twitch-eventsub-go/internal/eventsub"
	"github.com/Guliveer/twitch-eventsub-go/internal/logger"
)

// LogSink writes one line per delivery.
type LogSink struct {
	filter
	log   *logger.Logger
	level slog.Level
}

// NewLogSink returns a LogSink logging at level for the given event
// patterns.
func NewLogSink(log *logger.Logger, level slog.Level, events []string) *LogSink {
	return &LogSink{filter: filter{name: "log", events: events}, log: log, level: level}
}

// Send implements Sink.
func (s *LogSink) Send(ctx context.Context, d eventsub.Delivery) error {
	attrs := []any{
		"event_type", d.EventType(),
		"version", d.Subscription.Version,
		"subscription_id", d.Subscription.ID,
		"message_id", d.MessageID,
		"transport", d.Transport,
	}
	if d.SessionID != "" {
		attrs = append(attrs, "session_id", d.SessionID)
	}

	switch ev := d.Event.(type) {
	case nil:
		s.log.Log(ctx, slog.LevelError, "Undecodable event", append(attrs, "error", d.Err)...)
	case *eventsub.Revocation:
		s.log.Log(ctx, slog.LevelWarn, "Subscription revoked", append(attrs, "reason", ev.Reason)...)
	case *eventsub.Unknown:
		s.log.Log(ctx, s.level, "Unknown event", append(attrs, "bytes", len(ev.Raw))...)
	default:
		s.log.Log(ctx, s.level, "Event", attrs...)
	}
	return nil
}
