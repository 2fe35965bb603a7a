package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/Guliveer/twitch-eventsub-go/internal/eventsub"
	"github.com/Guliveer/twitch-eventsub-go/internal/metrics"
)

const (
	defaultURL   = "wss://eventsub.test/ws"
	reconnectURL = "wss://eventsub.test/ws?reconnect=abc"
	waitFor      = 2 * time.Second
)

var errConnClosed = errors.New("fake: connection closed")

type fakeConn struct {
	url    string
	in     chan []byte
	closed chan struct{}
	once   sync.Once
	normal atomic.Bool
}

func (c *fakeConn) Read(ctx context.Context) ([]byte, error) {
	select {
	case b := <-c.in:
		return b, nil
	case <-c.closed:
		return nil, errConnClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *fakeConn) Close(string) error {
	c.normal.Store(true)
	c.shut()
	return nil
}

func (c *fakeConn) CloseNow() error {
	c.shut()
	return nil
}

func (c *fakeConn) shut() {
	c.once.Do(func() { close(c.closed) })
}

func (c *fakeConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

// send blocks until the session's reader has taken msg.
func (c *fakeConn) send(t *testing.T, msg string) {
	t.Helper()
	select {
	case c.in <- []byte(msg):
	case <-time.After(waitFor):
		t.Fatalf("connection to %s is not being read", c.url)
	}
}

func (c *fakeConn) waitClosed(t *testing.T) {
	t.Helper()
	select {
	case <-c.closed:
	case <-time.After(waitFor):
		t.Fatalf("connection to %s was not closed", c.url)
	}
}

type fakeDialer struct {
	mu      sync.Mutex
	calls   int
	failAll bool
	conns   chan *fakeConn
}

func (d *fakeDialer) Dial(_ context.Context, url string) (Conn, error) {
	d.mu.Lock()
	d.calls++
	fail := d.failAll
	d.mu.Unlock()

	if fail {
		return nil, errors.New("fake: connection refused")
	}
	c := &fakeConn{url: url, in: make(chan []byte), closed: make(chan struct{})}
	d.conns <- c
	return c, nil
}

func (d *fakeDialer) callCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

func (d *fakeDialer) next(t *testing.T) *fakeConn {
	t.Helper()
	select {
	case c := <-d.conns:
		return c
	case <-time.After(waitFor):
		t.Fatal("expected a dial")
		return nil
	}
}

func (d *fakeDialer) assertNoDial(t *testing.T) {
	t.Helper()
	select {
	case c := <-d.conns:
		t.Fatalf("unexpected dial to %s", c.url)
	case <-time.After(100 * time.Millisecond):
	}
}

type welcomeCall struct {
	session Session
	resumed bool
}

type harness struct {
	m        *Manager
	cfg      Config
	dialer   *fakeDialer
	clock    *clockwork.FakeClock
	metrics  *metrics.Metrics
	states   chan State
	welcomes chan welcomeCall

	cancel context.CancelFunc
	done   chan error
	once   sync.Once
	err    error
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ignore := goleak.IgnoreCurrent()
	t.Cleanup(func() { goleak.VerifyNone(t, ignore) })

	h := &harness{
		dialer:   &fakeDialer{conns: make(chan *fakeConn, 16)},
		clock:    clockwork.NewFakeClock(),
		metrics:  metrics.New(prometheus.NewRegistry()),
		states:   make(chan State, 64),
		welcomes: make(chan welcomeCall, 8),
		done:     make(chan error, 1),
	}
	h.cfg = Config{
		URL:                  defaultURL,
		Dialer:               h.dialer,
		Clock:                h.clock,
		Metrics:              h.metrics,
		WelcomeTimeout:       time.Minute,
		KeepaliveGrace:       2 * time.Second,
		MaxReconnectAttempts: 3,
		InitialBackoff:       time.Second,
		MaxBackoff:           4 * time.Second,
		OnWelcome: func(_ context.Context, s Session, resumed bool) error {
			h.welcomes <- welcomeCall{session: s, resumed: resumed}
			return nil
		},
		OnStateChange: func(_, to State) { h.states <- to },
	}
	return h
}

func (h *harness) run(t *testing.T) {
	t.Helper()
	h.m = New(h.cfg)
	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go func() { h.done <- h.m.Run(ctx) }()
	t.Cleanup(func() { _ = h.stop(t) })
}

// stop cancels Run and returns its result.
func (h *harness) stop(t *testing.T) error {
	h.cancel()
	return h.wait(t)
}

func (h *harness) wait(t *testing.T) error {
	h.once.Do(func() {
		select {
		case h.err = <-h.done:
		case <-time.After(waitFor):
			t.Error("Run did not return")
		}
	})
	return h.err
}

func (h *harness) welcome(t *testing.T) welcomeCall {
	t.Helper()
	select {
	case w := <-h.welcomes:
		return w
	case <-time.After(waitFor):
		t.Fatal("expected a welcome")
		return welcomeCall{}
	}
}

func (h *harness) waitState(t *testing.T, want State) {
	t.Helper()
	deadline := time.After(waitFor)
	for {
		select {
		case s := <-h.states:
			if s == want {
				return
			}
		case <-deadline:
			t.Fatalf("never reached state %s", want)
		}
	}
}

func (h *harness) delivery(t *testing.T) Delivery {
	t.Helper()
	select {
	case d, ok := <-h.m.Events():
		require.True(t, ok, "events channel closed")
		return d
	case <-time.After(waitFor):
		t.Fatal("expected a delivery")
		return Delivery{}
	}
}

func (h *harness) assertNoDelivery(t *testing.T) {
	t.Helper()
	select {
	case d := <-h.m.Events():
		t.Fatalf("unexpected delivery %s", d.MessageID)
	default:
	}
}

// blockUntilTimers waits until the session has n timers armed.
func (h *harness) blockUntilTimers(t *testing.T, n int) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	require.NoError(t, h.clock.BlockUntilContext(ctx, n))
}

// activate dials, welcomes and waits for the keepalive timer.
func (h *harness) activate(t *testing.T, sessionID string) *fakeConn {
	t.Helper()
	c := h.dialer.next(t)
	c.send(t, welcomeMsg(sessionID, 10))
	h.welcome(t)
	h.waitState(t, StateActive)
	return c
}

func welcomeMsg(sessionID string, keepalive int) string {
	return fmt.Sprintf(`{"metadata":{"message_id":%q,"message_type":"session_welcome","message_timestamp":"2023-07-19T14:56:51.634234626Z"},`+
		`"payload":{"session":{"id":%q,"status":"connected","connected_at":"2023-07-19T14:56:51.616329898Z","keepalive_timeout_seconds":%d,"reconnect_url":null,"recovery_url":null}}}`,
		uuid.NewString(), sessionID, keepalive)
}

func keepaliveMsg() string {
	return fmt.Sprintf(`{"metadata":{"message_id":%q,"message_type":"session_keepalive","message_timestamp":"2023-07-19T14:56:55.634234626Z"},"payload":{}}`,
		uuid.NewString())
}

func reconnectMsg(sessionID, url string) string {
	return fmt.Sprintf(`{"metadata":{"message_id":%q,"message_type":"session_reconnect","message_timestamp":"2023-07-19T14:57:51.634234626Z"},`+
		`"payload":{"session":{"id":%q,"status":"reconnecting","keepalive_timeout_seconds":null,"reconnect_url":%q,"connected_at":"2023-07-19T14:56:51.616329898Z"}}}`,
		uuid.NewString(), sessionID, url)
}

func followMsg(messageID, userID string) string {
	return fmt.Sprintf(`{"metadata":{"message_id":%q,"message_type":"notification","message_timestamp":"2023-07-19T14:58:51.634234626Z","subscription_type":"channel.follow","subscription_version":"1"},`+
		`"payload":{"subscription":{"id":"sub-1","status":"enabled","type":"channel.follow","version":"1","cost":1,"condition":{"broadcaster_user_id":"1337"},"transport":{"method":"websocket","session_id":"s1"},"created_at":"2023-07-19T14:56:52.634234626Z"},`+
		`"event":{"user_id":%q,"user_login":"cool_user","user_name":"Cool_User","broadcaster_user_id":"1337","broadcaster_user_login":"cooler_user","broadcaster_user_name":"Cooler_User","followed_at":"2023-07-19T14:58:51.17106713Z"}}}`,
		messageID, userID)
}

func brokenFollowMsg(messageID string) string {
	return fmt.Sprintf(`{"metadata":{"message_id":%q,"message_type":"notification","message_timestamp":"2023-07-19T14:58:51.634234626Z"},`+
		`"payload":{"subscription":{"id":"sub-1","status":"enabled","type":"channel.follow","version":"1","cost":1,"condition":{},"transport":{"method":"websocket","session_id":"s1"},"created_at":"2023-07-19T14:56:52.634234626Z"},`+
		`"event":{"user_id":"1234"}}}`,
		messageID)
}

func revocationMsg() string {
	return fmt.Sprintf(`{"metadata":{"message_id":%q,"message_type":"revocation","message_timestamp":"2023-07-19T14:59:51.634234626Z","subscription_type":"channel.follow","subscription_version":"1"},`+
		`"payload":{"subscription":{"id":"sub-1","status":"authorization_revoked","type":"channel.follow","version":"1","cost":1,"condition":{"broadcaster_user_id":"1337"},"transport":{"method":"websocket","session_id":"s1"},"created_at":"2023-07-19T14:56:52.634234626Z"}}}`,
		uuid.NewString())
}

func TestReconnectHandoverHasNoGap(t *testing.T) {
	h := newHarness(t)
	h.run(t)

	c1 := h.dialer.next(t)
	assert.Equal(t, defaultURL, c1.url)
	c1.send(t, welcomeMsg("s1", 10))
	w := h.welcome(t)
	assert.Equal(t, "s1", w.session.ID)
	assert.False(t, w.resumed)
	h.waitState(t, StateActive)

	c1.send(t, followMsg("m1", "1"))
	d := h.delivery(t)
	assert.Equal(t, "m1", d.MessageID)
	assert.Equal(t, "s1", d.SessionID)
	assert.Equal(t, eventsub.TransportWebSocket, d.Transport)

	c1.send(t, reconnectMsg("s1", reconnectURL))
	c2 := h.dialer.next(t)
	assert.Equal(t, reconnectURL, c2.url)
	h.waitState(t, StateReconnecting)
	assert.Equal(t, reconnectURL, h.m.Session().ReconnectURL)

	// The old connection keeps delivering until the new one is welcomed.
	c1.send(t, followMsg("m2", "2"))
	assert.Equal(t, "m2", h.delivery(t).MessageID)
	assert.False(t, c1.isClosed())

	c2.send(t, welcomeMsg("s1", 10))
	w = h.welcome(t)
	assert.True(t, w.resumed)
	c1.waitClosed(t)
	assert.True(t, c1.normal.Load(), "old connection should get a normal closure")
	h.waitState(t, StateActive)

	c2.send(t, followMsg("m3", "3"))
	d = h.delivery(t)
	assert.Equal(t, "m3", d.MessageID)
	follow, ok := d.Event.(*eventsub.ChannelFollowV1)
	require.True(t, ok, "got %T", d.Event)
	assert.Equal(t, "3", follow.UserID)
	h.assertNoDelivery(t)

	assert.Equal(t, "", h.m.Session().ReconnectURL)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.Reconnects.WithLabelValues("server")))
	assert.Equal(t, 3.0, testutil.ToFloat64(h.metrics.EventsDelivered.WithLabelValues("channel.follow", "websocket")))
	assert.False(t, c2.isClosed())
}

func TestKeepaliveTimeoutReconnectsOnce(t *testing.T) {
	h := newHarness(t)
	h.run(t)
	c1 := h.activate(t, "s1")

	// A keepalive message pushes the deadline back.
	h.blockUntilTimers(t, 1)
	h.clock.Advance(8 * time.Second)
	c1.send(t, keepaliveMsg())
	require.Eventually(t, func() bool {
		return testutil.ToFloat64(h.metrics.FramesReceived.WithLabelValues("session_keepalive")) == 1
	}, waitFor, 5*time.Millisecond)
	h.clock.Advance(8 * time.Second)
	h.dialer.assertNoDial(t)

	h.clock.Advance(5 * time.Second)
	c2 := h.dialer.next(t)
	assert.Equal(t, defaultURL, c2.url, "a dead session redials the default endpoint")
	c1.waitClosed(t)
	assert.False(t, c1.normal.Load())
	h.waitState(t, StateReconnecting)

	// Another missed window while the replacement is pending changes nothing.
	h.clock.Advance(12 * time.Second)
	h.dialer.assertNoDial(t)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.Reconnects.WithLabelValues("keepalive")))

	c2.send(t, welcomeMsg("s2", 10))
	w := h.welcome(t)
	assert.Equal(t, "s2", w.session.ID)
	assert.False(t, w.resumed)
	h.waitState(t, StateActive)
	assert.Equal(t, "s2", h.m.Session().ID)
}

func TestRetryBudgetExhausted(t *testing.T) {
	h := newHarness(t)
	h.dialer.failAll = true
	h.run(t)

	for i := 0; i < 2; i++ {
		h.blockUntilTimers(t, 1)
		h.clock.Advance(time.Minute)
	}

	err := h.wait(t)
	assert.ErrorIs(t, err, ErrRetryBudgetExhausted)
	assert.Equal(t, 3, h.dialer.callCount())
	assert.Equal(t, StateClosed, h.m.State())

	_, ok := <-h.m.Events()
	assert.False(t, ok, "events channel should be closed")
}

func TestUnexpectedFirstFrameRedials(t *testing.T) {
	h := newHarness(t)
	h.run(t)

	c1 := h.dialer.next(t)
	c1.send(t, keepaliveMsg())
	c1.waitClosed(t)

	h.blockUntilTimers(t, 1)
	h.clock.Advance(time.Minute)

	c2 := h.dialer.next(t)
	c2.send(t, welcomeMsg("s2", 10))
	assert.Equal(t, "s2", h.welcome(t).session.ID)
}

func TestWelcomeTimeoutRedials(t *testing.T) {
	h := newHarness(t)
	h.run(t)

	c1 := h.dialer.next(t)
	h.blockUntilTimers(t, 1)
	h.clock.Advance(time.Minute)
	c1.waitClosed(t)

	h.blockUntilTimers(t, 1)
	h.clock.Advance(time.Minute)
	c2 := h.dialer.next(t)
	c2.send(t, welcomeMsg("s2", 10))
	assert.Equal(t, "s2", h.welcome(t).session.ID)
}

func TestRevocationIsDelivered(t *testing.T) {
	h := newHarness(t)
	h.run(t)
	c1 := h.activate(t, "s1")

	c1.send(t, revocationMsg())
	d := h.delivery(t)
	rv, ok := d.Event.(*eventsub.Revocation)
	require.True(t, ok, "got %T", d.Event)
	assert.Equal(t, eventsub.StatusAuthorizationRevoked, rv.Reason)
	assert.Equal(t, "sub-1", rv.SubscriptionID)
	assert.Equal(t, StateActive, h.m.State())
}

func TestSchemaErrorIsDeliveredNotFatal(t *testing.T) {
	h := newHarness(t)
	h.run(t)
	c1 := h.activate(t, "s1")

	c1.send(t, brokenFollowMsg("m1"))
	d := h.delivery(t)
	assert.Nil(t, d.Event)
	assert.ErrorIs(t, d.Err, eventsub.ErrSchemaMismatch)

	c1.send(t, followMsg("m2", "2"))
	assert.Equal(t, "m2", h.delivery(t).MessageID)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.SchemaErrors))
}

func TestConnectionLossRedials(t *testing.T) {
	h := newHarness(t)
	h.run(t)
	c1 := h.activate(t, "s1")

	c1.shut()
	c2 := h.dialer.next(t)
	assert.Equal(t, defaultURL, c2.url)
	c2.send(t, welcomeMsg("s2", 10))
	assert.False(t, h.welcome(t).resumed)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.Reconnects.WithLabelValues("lost")))
}

func TestMalformedFrameIsProtocolError(t *testing.T) {
	h := newHarness(t)
	h.run(t)
	c1 := h.activate(t, "s1")

	c1.send(t, `{"metadata":{"message_type":"mystery"},"payload":{}}`)
	c1.waitClosed(t)
	h.dialer.next(t)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.Reconnects.WithLabelValues("protocol")))
}

func TestSlowConsumerGetsBackpressure(t *testing.T) {
	h := newHarness(t)
	h.cfg.EventBuffer = 1
	h.run(t)
	c1 := h.activate(t, "s1")

	for i := 1; i <= 3; i++ {
		c1.send(t, followMsg(fmt.Sprintf("m%d", i), "1"))
	}
	assert.Eventually(t, func() bool { return len(h.m.Events()) == 1 }, waitFor, 5*time.Millisecond)
	assert.Equal(t, 1, cap(h.m.Events()))

	for i := 1; i <= 3; i++ {
		assert.Equal(t, fmt.Sprintf("m%d", i), h.delivery(t).MessageID)
	}
}

func TestCancelClosesEverything(t *testing.T) {
	h := newHarness(t)
	h.run(t)
	c1 := h.activate(t, "s1")

	require.NoError(t, h.stop(t))
	c1.waitClosed(t)
	assert.Equal(t, StateClosed, h.m.State())
	_, ok := <-h.m.Events()
	assert.False(t, ok)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.SessionState.WithLabelValues("closed")))
}

func TestWelcomeHookErrorEndsRun(t *testing.T) {
	h := newHarness(t)
	hookErr := errors.New("creating subscriptions: 403")
	h.cfg.OnWelcome = func(context.Context, Session, bool) error { return hookErr }
	h.run(t)

	c1 := h.dialer.next(t)
	c1.send(t, welcomeMsg("s1", 10))
	assert.ErrorIs(t, h.wait(t), hookErr)
	c1.waitClosed(t)
}

func TestRunTwice(t *testing.T) {
	h := newHarness(t)
	h.run(t)
	h.dialer.next(t)
	assert.Error(t, h.m.Run(context.Background()))
}
