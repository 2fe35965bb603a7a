// Package metrics defines the Prometheus collectors of the EventSub client.
// Every method is safe to call on a nil *Metrics, which records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "eventsub"

// SessionStates lists the values of the session state gauge.
var SessionStates = []string{"connecting", "welcomed", "active", "reconnecting", "closed"}

// Metrics holds the collectors.
type Metrics struct {
	FramesReceived       *prometheus.CounterVec
	EventsDelivered      *prometheus.CounterVec
	UnknownEvents        prometheus.Counter
	SchemaErrors         prometheus.Counter
	VerificationFailures *prometheus.CounterVec
	Duplicates           *prometheus.CounterVec
	SessionState         *prometheus.GaugeVec
	Reconnects           *prometheus.CounterVec
	TokenRefreshes       *prometheus.CounterVec
	SubscriptionsCreated *prometheus.CounterVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		FramesReceived: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "websocket_frames_total",
			Help:      "WebSocket frames received by message type",
		}, []string{"message_type"}),
		EventsDelivered: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_delivered_total",
			Help:      "Events handed to consumers by subscription type and transport",
		}, []string{"event_type", "transport"}),
		UnknownEvents: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unknown_events_total",
			Help:      "Notifications whose type and version are not registered",
		}),
		SchemaErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "schema_errors_total",
			Help:      "Notifications whose payload did not match its registered schema",
		}),
		VerificationFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_verification_failures_total",
			Help:      "Rejected webhook deliveries by reason",
		}, []string{"reason"}),
		Duplicates: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicate_deliveries_total",
			Help:      "Deliveries dropped because their message id was already seen",
		}, []string{"transport"}),
		SessionState: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "session_state",
			Help:      "1 for the current WebSocket session state, 0 otherwise",
		}, []string{"state"}),
		Reconnects: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_reconnects_total",
			Help:      "WebSocket reconnects by reason",
		}, []string{"reason"}),
		TokenRefreshes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_refreshes_total",
			Help:      "Token refresh attempts by result",
		}, []string{"result"}),
		SubscriptionsCreated: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subscriptions_created_total",
			Help:      "Subscription create calls by transport and result",
		}, []string{"transport", "result"}),
	}
}

// FrameReceived counts a WebSocket frame.
func (m *Metrics) FrameReceived(messageType string) {
	if m == nil {
		return
	}
	m.FramesReceived.WithLabelValues(messageType).Inc()
}

// EventDelivered counts an event handed to consumers.
func (m *Metrics) EventDelivered(eventType, transport string) {
	if m == nil {
		return
	}
	m.EventsDelivered.WithLabelValues(eventType, transport).Inc()
}

// UnknownEvent counts a notification resolved to an unknown event.
func (m *Metrics) UnknownEvent() {
	if m == nil {
		return
	}
	m.UnknownEvents.Inc()
}

// SchemaError counts a schema mismatch.
func (m *Metrics) SchemaError() {
	if m == nil {
		return
	}
	m.SchemaErrors.Inc()
}

// VerificationFailed counts a rejected webhook delivery.
func (m *Metrics) VerificationFailed(reason string) {
	if m == nil {
		return
	}
	m.VerificationFailures.WithLabelValues(reason).Inc()
}

// Duplicate counts a dropped duplicate delivery.
func (m *Metrics) Duplicate(transport string) {
	if m == nil {
		return
	}
	m.Duplicates.WithLabelValues(transport).Inc()
}

// SetSessionState marks state as the current session state.
func (m *Metrics) SetSessionState(state string) {
	if m == nil {
		return
	}
	for _, s := range SessionStates {
		v := 0.0
		if s == state {
			v = 1
		}
		m.SessionState.WithLabelValues(s).Set(v)
	}
}

// Reconnect counts a session reconnect.
func (m *Metrics) Reconnect(reason string) {
	if m == nil {
		return
	}
	m.Reconnects.WithLabelValues(reason).Inc()
}

// TokenRefresh counts a token refresh attempt.
func (m *Metrics) TokenRefresh(result string) {
	if m == nil {
		return
	}
	m.TokenRefreshes.WithLabelValues(result).Inc()
}

// SubscriptionCreated counts a subscription create call.
func (m *Metrics) SubscriptionCreated(transport string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.SubscriptionsCreated.WithLabelValues(transport, result).Inc()
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
