package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/jonboulle/clockwork"

	"github.com/Guliveer/twitch-eventsub-go/internal/constants"
	"github.com/Guliveer/twitch-eventsub-go/internal/eventsub"
	"github.com/Guliveer/twitch-eventsub-go/internal/logger"
	"github.com/Guliveer/twitch-eventsub-go/internal/metrics"
)

var (
	// ErrRetryBudgetExhausted is returned by Run after MaxReconnectAttempts
	// consecutive connection attempts failed.
	ErrRetryBudgetExhausted = errors.New("session: reconnect retry budget exhausted")
	// ErrUnexpectedFrame marks a message that is not valid in the current state.
	ErrUnexpectedFrame = errors.New("session: unexpected frame")
	// ErrWelcomeTimeout marks a connection that never sent session_welcome.
	ErrWelcomeTimeout = errors.New("session: no welcome received")

	errReaderStopped = errors.New("session: connection reader stopped")
)

// Config configures a Manager. Zero values take the defaults from the
// constants package.
type Config struct {
	// URL is the default endpoint, used for the first connection and after
	// any connection loss.
	URL      string
	Dialer   Dialer
	Resolver *eventsub.Resolver
	Clock    clockwork.Clock
	Log      *logger.Logger
	Metrics  *metrics.Metrics

	WelcomeTimeout       time.Duration
	KeepaliveGrace       time.Duration
	MaxReconnectAttempts int
	InitialBackoff       time.Duration
	MaxBackoff           time.Duration
	EventBuffer          int

	// OnWelcome runs on the session goroutine every time a connection is
	// welcomed. resumed is true after a server-requested handover, where
	// existing subscriptions carry over to the new connection. A non-nil
	// error ends Run.
	OnWelcome func(ctx context.Context, s Session, resumed bool) error
	// OnStateChange runs on the session goroutine after every transition.
	OnStateChange func(from, to State)
}

func (c *Config) setDefaults() {
	if c.URL == "" {
		c.URL = constants.EventSubWebSocketURL
	}
	if c.Dialer == nil {
		c.Dialer = WSDialer{}
	}
	if c.Resolver == nil {
		c.Resolver = eventsub.NewResolver(nil, eventsub.ParserConfig{}, nil)
	}
	if c.Clock == nil {
		c.Clock = clockwork.NewRealClock()
	}
	if c.Log == nil {
		c.Log = logger.Discard()
	}
	if c.WelcomeTimeout <= 0 {
		c.WelcomeTimeout = constants.DefaultWelcomeTimeout
	}
	if c.KeepaliveGrace <= 0 {
		c.KeepaliveGrace = constants.DefaultKeepaliveGrace
	}
	if c.MaxReconnectAttempts <= 0 {
		c.MaxReconnectAttempts = constants.DefaultMaxReconnectAttempts
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = constants.DefaultInitialBackoff
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = constants.DefaultMaxBackoff
	}
	if c.EventBuffer <= 0 {
		c.EventBuffer = constants.DefaultEventBuffer
	}
}

// Manager owns one logical EventSub WebSocket session. All transitions run
// on the goroutine that calls Run.
type Manager struct {
	cfg     Config
	log     *logger.Logger
	events  chan Delivery
	started atomic.Bool

	mu      sync.Mutex
	state   State
	session Session
}

// New returns a Manager in StateConnecting. Nothing is dialed until Run.
func New(cfg Config) *Manager {
	cfg.setDefaults()
	return &Manager{
		cfg:    cfg,
		log:    cfg.Log,
		events: make(chan Delivery, cfg.EventBuffer),
		state:  StateConnecting,
	}
}

// Events returns the bounded delivery channel. It is closed when Run
// returns. A consumer that stops reading stalls the session, not memory.
func (m *Manager) Events() <-chan Delivery {
	return m.events
}

// State returns the current state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Session returns a snapshot of the current session.
func (m *Manager) Session() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.session
	s.Status = m.state
	return s
}

func (m *Manager) setState(to State) {
	m.mu.Lock()
	from := m.state
	m.state = to
	m.mu.Unlock()

	if from == to {
		return
	}
	m.cfg.Metrics.SetSessionState(to.String())
	m.log.Debug("Session state changed", "from", from.String(), "state", to.String())
	if m.cfg.OnStateChange != nil {
		m.cfg.OnStateChange(from, to)
	}
}

// Run connects and keeps the session alive until ctx is cancelled, the
// retry budget is exhausted, or OnWelcome fails. Cancellation returns nil.
func (m *Manager) Run(ctx context.Context) error {
	if !m.started.CompareAndSwap(false, true) {
		return errors.New("session: Run called more than once")
	}
	defer close(m.events)

	runCtx, cancel := context.WithCancel(ctx)
	o := &owner{
		Manager: m,
		ctx:     runCtx,
		dialed:  make(chan dialResult, 1),
		bo:      m.newBackOff(),
	}

	err := o.loop()
	cancel()
	o.shutdown()
	m.setState(StateClosed)

	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		m.log.Info("EventSub session closed")
		return nil
	}
	m.log.Error("EventSub session failed", "error", err)
	return err
}

func (m *Manager) newBackOff() *backoff.ExponentialBackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = m.cfg.InitialBackoff
	bo.MaxInterval = m.cfg.MaxBackoff
	bo.Reset()
	return bo
}

type frameResult struct {
	frame eventsub.Frame
	err   error
}

// link is one dialed connection plus the goroutine reading it.
type link struct {
	conn    Conn
	url     string
	frames  chan frameResult
	cancel  context.CancelFunc
	session Session
}

func newLink(ctx context.Context, conn Conn, url string) *link {
	ctx, cancel := context.WithCancel(ctx)
	l := &link{
		conn:   conn,
		url:    url,
		frames: make(chan frameResult, 16),
		cancel: cancel,
	}
	go l.read(ctx)
	return l
}

// read parses messages in wire order. The first error is sent and ends
// the reader.
func (l *link) read(ctx context.Context) {
	defer close(l.frames)
	for {
		var res frameResult
		data, err := l.conn.Read(ctx)
		if err != nil {
			res.err = err
		} else {
			res.frame, res.err = eventsub.ParseFrame(data)
		}

		select {
		case l.frames <- res:
		case <-ctx.Done():
			return
		}
		if res.err != nil {
			return
		}
	}
}

// drop closes the connection without a handshake and discards whatever the
// reader still holds.
func (l *link) drop() {
	l.cancel()
	_ = l.conn.CloseNow()
	for range l.frames {
	}
}

type dialResult struct {
	conn Conn
	url  string
	err  error
}

// owner is the state of one Run call. Only the Run goroutine touches it.
type owner struct {
	*Manager
	ctx context.Context

	cur     *link
	pending *link

	dialing bool
	dialed  chan dialResult
	target  string
	resume  bool

	attempts int
	bo       *backoff.ExponentialBackOff

	welcomeTimer   clockwork.Timer
	keepaliveTimer clockwork.Timer
	retryTimer     clockwork.Timer
}

func timerChan(t clockwork.Timer) <-chan time.Time {
	if t == nil {
		return nil
	}
	return t.Chan()
}

func framesOf(l *link) <-chan frameResult {
	if l == nil {
		return nil
	}
	return l.frames
}

func (o *owner) loop() error {
	o.dial(o.cfg.URL, false)

	for {
		select {
		case <-o.ctx.Done():
			return o.ctx.Err()

		case res := <-o.dialed:
			o.dialing = false
			if res.err != nil {
				if err := o.retry(res.err); err != nil {
					return err
				}
				continue
			}
			o.pending = newLink(o.ctx, res.conn, res.url)
			o.welcomeTimer = o.cfg.Clock.NewTimer(o.cfg.WelcomeTimeout)

		case <-timerChan(o.retryTimer):
			o.retryTimer = nil
			o.dial(o.target, o.resume)

		case <-timerChan(o.welcomeTimer):
			o.welcomeTimer = nil
			err := fmt.Errorf("%w within %s", ErrWelcomeTimeout, o.cfg.WelcomeTimeout)
			if err := o.retry(err); err != nil {
				return err
			}

		case res, ok := <-framesOf(o.pending):
			if !ok {
				res.err = errReaderStopped
			}
			if err := o.welcome(res); err != nil {
				return err
			}

		case res, ok := <-framesOf(o.cur):
			if !ok {
				res.err = errReaderStopped
			}
			if err := o.active(res); err != nil {
				return err
			}

		case <-timerChan(o.keepaliveTimer):
			o.keepaliveTimer = nil
			o.lost("keepalive", fmt.Errorf("no message within %s", o.keepaliveWindow()))
		}
	}
}

func (o *owner) dial(url string, resume bool) {
	o.target, o.resume = url, resume
	o.dialing = true
	o.log.Debug("Dialing EventSub", "url", url, "resume", resume)

	ctx := o.ctx
	go func() {
		conn, err := o.cfg.Dialer.Dial(ctx, url)
		o.dialed <- dialResult{conn: conn, url: url, err: err}
	}()
}

// busy reports whether a replacement connection is already on its way.
func (o *owner) busy() bool {
	return o.dialing || o.pending != nil || o.retryTimer != nil
}

// retry abandons the pending attempt and schedules the next one, or gives
// up when the budget is spent.
func (o *owner) retry(cause error) error {
	o.stopWelcome()
	if o.pending != nil {
		o.pending.drop()
		o.pending = nil
	}

	o.attempts++
	if o.attempts >= o.cfg.MaxReconnectAttempts {
		return fmt.Errorf("%w after %d attempts: %w", ErrRetryBudgetExhausted, o.attempts, cause)
	}

	// A reconnect URL is single use; later attempts start a fresh session.
	o.target, o.resume = o.cfg.URL, false
	delay := o.bo.NextBackOff()
	o.log.Warn("EventSub connection attempt failed, retrying",
		"attempt", o.attempts, "backoff", delay.Round(time.Millisecond), "error", cause)
	o.retryTimer = o.cfg.Clock.NewTimer(delay)
	return nil
}

// welcome handles the first message of the pending connection.
func (o *owner) welcome(res frameResult) error {
	o.stopWelcome()
	if res.err != nil {
		return o.retry(res.err)
	}
	w, ok := res.frame.(*eventsub.WelcomeFrame)
	if !ok {
		return o.retry(fmt.Errorf("%w: first message is %s", ErrUnexpectedFrame, res.frame.Meta().MessageType))
	}
	o.cfg.Metrics.FrameReceived(string(w.MessageType))

	l := o.pending
	o.pending = nil
	l.session = sessionFrom(w.Session)
	l.session.LastMessageAt = o.cfg.Clock.Now()
	o.attempts = 0
	o.bo.Reset()

	old := o.cur
	o.cur = l
	o.mu.Lock()
	o.session = l.session
	o.mu.Unlock()
	o.setState(StateWelcomed)

	if old != nil {
		o.stopKeepalive()
		if err := o.retire(old); err != nil {
			return err
		}
	}

	resumed := o.resume
	o.resume = false
	o.log.Info("EventSub session welcomed",
		"session_id", l.session.ID, "keepalive", l.session.KeepaliveTimeout, "resumed", resumed)

	if o.cfg.OnWelcome != nil {
		if err := o.cfg.OnWelcome(o.ctx, o.Session(), resumed); err != nil {
			return fmt.Errorf("session %s welcome hook: %w", l.session.ID, err)
		}
	}

	o.armKeepalive()
	o.setState(StateActive)
	return nil
}

// retire closes the connection a handover replaced and delivers whatever
// it received before the close completed.
func (o *owner) retire(old *link) error {
	closed := make(chan error, 1)
	go func() {
		closed <- old.conn.Close("session moved to a new connection")
	}()

	var err error
	for res := range old.frames {
		if res.err != nil || err != nil {
			continue
		}
		switch f := res.frame.(type) {
		case *eventsub.NotificationFrame:
			err = o.notify(old, f)
		case *eventsub.RevocationFrame:
			err = o.revoke(old, f)
		}
	}
	old.cancel()

	if cerr := <-closed; cerr != nil {
		o.log.Debug("Previous connection did not close cleanly", "session_id", old.session.ID, "error", cerr)
	}
	return err
}

// active handles a message on the welcomed connection.
func (o *owner) active(res frameResult) error {
	if res.err != nil {
		if o.ctx.Err() != nil {
			return o.ctx.Err()
		}
		o.lost(lossReason(res.err), res.err)
		return nil
	}

	l := o.cur
	now := o.cfg.Clock.Now()
	l.session.LastMessageAt = now
	o.mu.Lock()
	o.session.LastMessageAt = now
	o.mu.Unlock()
	o.armKeepalive()
	o.cfg.Metrics.FrameReceived(string(res.frame.Meta().MessageType))

	switch f := res.frame.(type) {
	case *eventsub.KeepaliveFrame:
	case *eventsub.NotificationFrame:
		return o.notify(l, f)
	case *eventsub.RevocationFrame:
		return o.revoke(l, f)
	case *eventsub.ReconnectFrame:
		o.reconnect(*f.Session.ReconnectURL)
	case *eventsub.WelcomeFrame:
		o.lost("protocol", fmt.Errorf("%w: welcome on an active session", ErrUnexpectedFrame))
	}
	return nil
}

func lossReason(err error) string {
	switch {
	case errors.Is(err, ErrUnexpectedFrame),
		errors.Is(err, eventsub.ErrUnrecognizedShape),
		errors.Is(err, eventsub.ErrJSONSyntax),
		errors.Is(err, eventsub.ErrInvalidUTF8):
		return "protocol"
	}
	return "lost"
}

// reconnect starts a server-requested handover. The current connection
// keeps delivering until the new one is welcomed.
func (o *owner) reconnect(url string) {
	if o.busy() {
		o.log.Debug("Ignoring reconnect request, handover already in progress")
		return
	}
	o.cfg.Metrics.Reconnect("server")
	o.log.Info("Server requested reconnect", "session_id", o.cur.session.ID)

	o.mu.Lock()
	o.session.ReconnectURL = url
	o.mu.Unlock()
	o.setState(StateReconnecting)
	o.dial(url, true)
}

// lost drops the current connection and redials the default endpoint.
func (o *owner) lost(reason string, cause error) {
	o.cfg.Metrics.Reconnect(reason)
	o.log.Warn("EventSub connection lost", "session_id", o.cur.session.ID, "reason", reason, "error", cause)

	o.stopKeepalive()
	o.cur.drop()
	o.cur = nil
	o.setState(StateReconnecting)

	if !o.busy() {
		o.dial(o.cfg.URL, false)
	}
}

func (o *owner) notify(l *link, f *eventsub.NotificationFrame) error {
	n := f.Notification
	d := Delivery{
		MessageID:    f.MessageID,
		Timestamp:    f.MessageTimestamp,
		Transport:    eventsub.TransportWebSocket,
		SessionID:    l.session.ID,
		Subscription: n.Subscription,
	}

	ev, err := o.cfg.Resolver.Resolve(n)
	if err != nil {
		o.cfg.Metrics.SchemaError()
		o.log.Error("Notification does not match schema",
			"event_type", n.EventType, "subscription_id", n.SubscriptionID, "error", err)
		d.Err = err
	} else {
		if _, ok := ev.(*eventsub.Unknown); ok {
			o.cfg.Metrics.UnknownEvent()
		}
		d.Event = ev
	}
	return o.send(d)
}

func (o *owner) revoke(l *link, f *eventsub.RevocationFrame) error {
	rv := f.Revocation
	o.log.Warn("Subscription revoked",
		"subscription_id", rv.SubscriptionID, "event_type", rv.Subscription.Type, "reason", rv.Reason)
	return o.send(Delivery{
		MessageID:    f.MessageID,
		Timestamp:    f.MessageTimestamp,
		Transport:    eventsub.TransportWebSocket,
		SessionID:    l.session.ID,
		Subscription: rv.Subscription,
		Event:        rv,
	})
}

// send blocks until the consumer takes d.
func (o *owner) send(d Delivery) error {
	select {
	case o.events <- d:
		if d.Err == nil {
			o.cfg.Metrics.EventDelivered(d.EventType(), d.Transport)
		}
		return nil
	case <-o.ctx.Done():
		return o.ctx.Err()
	}
}

func (o *owner) keepaliveWindow() time.Duration {
	if o.cur == nil {
		return 0
	}
	return o.cur.session.KeepaliveTimeout + o.cfg.KeepaliveGrace
}

func (o *owner) armKeepalive() {
	d := o.keepaliveWindow()
	if o.keepaliveTimer == nil {
		o.keepaliveTimer = o.cfg.Clock.NewTimer(d)
		return
	}
	if !o.keepaliveTimer.Stop() {
		select {
		case <-o.keepaliveTimer.Chan():
		default:
		}
	}
	o.keepaliveTimer.Reset(d)
}

func (o *owner) stopKeepalive() {
	if o.keepaliveTimer != nil {
		o.keepaliveTimer.Stop()
		o.keepaliveTimer = nil
	}
}

func (o *owner) stopWelcome() {
	if o.welcomeTimer != nil {
		o.welcomeTimer.Stop()
		o.welcomeTimer = nil
	}
}

// shutdown releases every connection. The run context is already cancelled.
func (o *owner) shutdown() {
	o.stopKeepalive()
	o.stopWelcome()
	if o.retryTimer != nil {
		o.retryTimer.Stop()
		o.retryTimer = nil
	}
	if o.pending != nil {
		o.pending.drop()
		o.pending = nil
	}
	if o.cur != nil {
		o.cur.drop()
		o.cur = nil
	}
	if o.dialing {
		if res := <-o.dialed; res.conn != nil {
			_ = res.conn.CloseNow()
		}
		o.dialing = false
	}
}
