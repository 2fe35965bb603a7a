// Package sink forwards deliveries to their destinations: the log, HTTP
// endpoints, or anything else implementing Sink.
package sink

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Guliveer/twitch-eventsub-go/internal/eventsub"
	"github.com/Guliveer/twitch-eventsub-go/internal/logger"
)

// DefaultSendTimeout bounds one Send call made by the Dispatcher.
const DefaultSendTimeout = 5 * time.Second

// Sink receives deliveries.
type Sink interface {
	Send(ctx context.Context, d eventsub.Delivery) error
	Name() string
	// Accepts reports whether the sink wants deliveries of eventType.
	Accepts(eventType string) bool
}

// filter is embedded by the sinks in this package.
type filter struct {
	name   string
	events []string
}

func (f filter) Name() string { return f.name }

// Accepts matches exact types and "prefix.*" patterns. No patterns means
// every type.
func (f filter) Accepts(eventType string) bool {
	if len(f.events) == 0 {
		return true
	}
	for _, e := range f.events {
		if e == eventType || e == "*" {
			return true
		}
		if prefix, ok := strings.CutSuffix(e, "*"); ok && strings.HasPrefix(eventType, prefix) {
			return true
		}
	}
	return false
}

// Dispatcher fans deliveries out to every accepting sink.
type Dispatcher struct {
	sinks   []Sink
	log     *logger.Logger
	timeout time.Duration
}

// NewDispatcher returns a Dispatcher over sinks.
func NewDispatcher(log *logger.Logger, sinks ...Sink) *Dispatcher {
	if log == nil {
		log = logger.Discard()
	}
	return &Dispatcher{sinks: sinks, log: log, timeout: DefaultSendTimeout}
}

// Dispatch sends dl to every accepting sink and returns once all of them
// have answered, so a caller dispatching in a loop keeps its order at each
// sink and is slowed down by the slowest one. Sinks run in parallel with
// each other. Every failure is logged and returned joined.
func (d *Dispatcher) Dispatch(ctx context.Context, dl eventsub.Delivery) error {
	eventType := dl.EventType()

	var targets []Sink
	for _, s := range d.sinks {
		if s.Accepts(eventType) {
			targets = append(targets, s)
		}
	}
	if len(targets) == 0 {
		return nil
	}

	// A delivery already taken off the wire is sent even while shutting down.
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
	defer cancel()

	errs := make([]error, len(targets))
	var wg sync.WaitGroup
	for i, s := range targets {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.Send(sendCtx, dl); err != nil {
				d.log.Warn("Sink send failed",
					"sink", s.Name(), "event_type", eventType, "message_id", dl.MessageID, "error", err)
				errs[i] = fmt.Errorf("sink %s: %w", s.Name(), err)
			}
		}()
	}
	wg.Wait()
	return errors.Join(errs...)
}

// Len returns the number of sinks.
func (d *Dispatcher) Len() int {
	return len(d.sinks)
}
