// Package app builds the EventSub client from its configuration and runs
// every long-lived component under one supervisor.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/Guliveer/twitch-eventsub-go/internal/auth"
	"github.com/Guliveer/twitch-eventsub-go/internal/config"
	"github.com/Guliveer/twitch-eventsub-go/internal/constants"
	"github.com/Guliveer/twitch-eventsub-go/internal/eventsub"
	"github.com/Guliveer/twitch-eventsub-go/internal/helix"
	"github.com/Guliveer/twitch-eventsub-go/internal/httpclient"
	"github.com/Guliveer/twitch-eventsub-go/internal/logger"
	"github.com/Guliveer/twitch-eventsub-go/internal/metrics"
	"github.com/Guliveer/twitch-eventsub-go/internal/server"
	"github.com/Guliveer/twitch-eventsub-go/internal/session"
	"github.com/Guliveer/twitch-eventsub-go/internal/sink"
	"github.com/Guliveer/twitch-eventsub-go/internal/webhook"
)

// Option overrides a dependency New would otherwise build itself.
type Option func(*options)

type options struct {
	doer      httpclient.Doer
	dialer    session.Dialer
	endpoints *auth.Endpoints
	helixURL  string
	clock     clockwork.Clock
	registry  *eventsub.Registry
}

// WithDoer replaces the HTTP client used for OAuth, Helix and sinks.
func WithDoer(d httpclient.Doer) Option {
	return func(o *options) { o.doer = d }
}

// WithDialer replaces the WebSocket dialer.
func WithDialer(d session.Dialer) Option {
	return func(o *options) { o.dialer = d }
}

// WithEndpoints overrides the OAuth URLs.
func WithEndpoints(e auth.Endpoints) Option {
	return func(o *options) { o.endpoints = &e }
}

// WithHelixURL overrides the Helix base URL.
func WithHelixURL(u string) Option {
	return func(o *options) { o.helixURL = u }
}

// WithClock replaces the wall clock.
func WithClock(c clockwork.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithRegistry replaces the built-in subscription registry.
func WithRegistry(r *eventsub.Registry) Option {
	return func(o *options) { o.registry = r }
}

// App holds every component of a running client. It is built once by New
// and passed around instead of package-level state.
type App struct {
	Config     *config.Config
	Log        *logger.Logger
	Tokens     *auth.Manager
	Registry   *eventsub.Registry
	Resolver   *eventsub.Resolver
	Helix      *helix.Client
	// AppTokens and AppHelix create webhook subscriptions, which need an
	// app access token. Both are nil when the webhook transport is disabled.
	AppTokens *auth.AppToken
	AppHelix  *helix.Client
	Metrics    *metrics.Metrics
	Gatherer   prometheus.Gatherer
	Dispatcher *sink.Dispatcher
	// Dedup filters WebSocket redeliveries.
	Dedup *session.Deduper

	// Session is nil when the WebSocket transport is disabled.
	Session *session.Manager
	// Webhook is nil when the webhook transport is disabled.
	Webhook *webhook.Handler
	// Server is nil when there is nothing to serve.
	Server *server.Server

	rdb redis.UniversalClient
}

// New validates the token, checks every configured subscription against
// the registry and wires the components. cfg must already be validated.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger, opts ...Option) (*App, error) {
	o := options{clock: clockwork.NewRealClock()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.doer == nil {
		o.doer = httpclient.New(constants.DefaultHTTPTimeout)
	}
	if o.registry == nil {
		o.registry = eventsub.Default()
	}
	if log == nil {
		log = logger.Discard()
	}

	a := &App{Config: cfg, Log: log, Registry: o.registry}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.Metrics = metrics.New(reg)
	a.Gatherer = reg

	authOpts := []auth.Option{
		auth.WithLogger(log.WithComponent("auth")),
		auth.WithClock(o.clock),
		auth.WithRefreshHook(a.Metrics.TokenRefresh),
	}
	if o.endpoints != nil {
		authOpts = append(authOpts, auth.WithEndpoints(*o.endpoints))
	}
	if cfg.Auth.TokenFile != "" {
		authOpts = append(authOpts, auth.WithStore(auth.NewFileStore(cfg.Auth.TokenFile)))
	}
	tokens, err := auth.New(ctx, o.doer, auth.Credentials{
		ClientID:     cfg.Auth.ClientID,
		ClientSecret: cfg.Auth.ClientSecret,
		AccessToken:  cfg.Auth.AccessToken,
		RefreshToken: cfg.Auth.RefreshToken,
	}, authOpts...)
	if err != nil {
		return nil, fmt.Errorf("preparing token: %w", err)
	}
	a.Tokens = tokens

	if err := checkSubscriptions(cfg, a.Registry, tokens.Scopes()); err != nil {
		return nil, err
	}

	a.Resolver = eventsub.NewResolver(a.Registry, eventsub.ParserConfig{Strict: cfg.Parser.Strict},
		log.WithComponent("parser").Logger)

	helixOpts := []helix.Option{helix.WithLogger(log.WithComponent("helix")), helix.WithMetrics(a.Metrics)}
	if o.helixURL != "" {
		helixOpts = append(helixOpts, helix.WithBaseURL(o.helixURL))
	}
	a.Helix = helix.NewClient(o.doer, tokens, helixOpts...)

	if cfg.Webhook.Enabled {
		a.AppTokens = auth.NewAppToken(o.doer, auth.AppTokenConfig{
			ClientID:     tokens.ClientID(),
			ClientSecret: cfg.Auth.ClientSecret,
			Endpoints:    o.endpoints,
			Clock:        o.clock,
			Log:          log.WithComponent("auth"),
		})
		if _, err := a.AppTokens.AccessToken(ctx); err != nil {
			return nil, fmt.Errorf("preparing app token: %w", err)
		}
		a.AppHelix = helix.NewClient(o.doer, a.AppTokens, helixOpts...)
	}

	a.Dispatcher = sink.NewDispatcher(log.WithComponent("sink"), buildSinks(cfg, o.doer, log)...)
	a.Dedup = session.NewDeduper(cfg.Dedup.Size)

	if cfg.Webhook.Enabled {
		if err := a.buildWebhook(o.clock); err != nil {
			a.Close()
			return nil, err
		}
	}

	if cfg.WebSocket.Enabled {
		ws := cfg.WebSocket
		a.Session = session.New(session.Config{
			URL:                  ws.URL,
			Dialer:               o.dialer,
			Resolver:             a.Resolver,
			Clock:                o.clock,
			Log:                  log.WithComponent("session"),
			Metrics:              a.Metrics,
			WelcomeTimeout:       ws.WelcomeTimeout,
			KeepaliveGrace:       ws.KeepaliveGrace,
			MaxReconnectAttempts: ws.MaxReconnectAttempts,
			InitialBackoff:       ws.InitialBackoff,
			MaxBackoff:           ws.MaxBackoff,
			EventBuffer:          ws.EventBuffer,
			OnWelcome:            a.onWelcome,
		})
	}

	if cfg.ServerEnabled() {
		scfg := server.Config{
			Addr:   cfg.Server.Addr,
			Health: a.health,
			Log:    log.WithComponent("http"),
		}
		if a.Webhook != nil {
			scfg.WebhookPath = cfg.Webhook.Path
			scfg.Webhook = a.Webhook
			scfg.WebhookRateLimit = cfg.Webhook.RateLimit
		}
		if cfg.Server.Metrics {
			scfg.Gatherer = a.Gatherer
		}
		a.Server = server.New(scfg)
	}

	return a, nil
}

func (a *App) buildWebhook(clock clockwork.Clock) error {
	cfg := a.Config
	authn, err := webhook.NewAuthenticator(cfg.Webhook.Secret,
		webhook.WithTolerance(cfg.Webhook.Tolerance), webhook.WithClock(clock))
	if err != nil {
		return fmt.Errorf("webhook: %w", err)
	}

	var dedup webhook.Deduplicator
	switch cfg.Dedup.Backend {
	case "redis":
		ropts, err := redis.ParseURL(cfg.Dedup.RedisURL)
		if err != nil {
			return fmt.Errorf("parsing redis url: %w", err)
		}
		a.rdb = redis.NewClient(ropts)
		dedup = webhook.NewRedisDeduplicator(a.rdb, cfg.Dedup.TTL, config.DefaultRedisPrefix)
	default:
		dedup = webhook.NewMemoryDeduplicator(cfg.Dedup.TTL, clock)
	}

	a.Webhook = webhook.NewHandler(webhook.HandlerConfig{
		Authenticator: authn,
		Resolver:      a.Resolver,
		Dedup:         dedup,
		Deliver:       a.Dispatcher.Dispatch,
		Log:           a.Log.WithComponent("webhook"),
		Metrics:       a.Metrics,
	})
	return nil
}

func buildSinks(cfg *config.Config, doer httpclient.Doer, log *logger.Logger) []sink.Sink {
	var sinks []sink.Sink
	if cfg.LogSinkEnabled() {
		sinks = append(sinks, sink.NewLogSink(log.WithComponent("events"), logger.ParseLevel(cfg.Sinks.Log.Level), cfg.Sinks.Log.Events))
	}
	for _, h := range cfg.Sinks.HTTP {
		sinks = append(sinks, sink.NewHTTPSink(doer, sink.HTTPSinkConfig{
			Name:    h.Name,
			URL:     h.URL,
			Headers: h.Headers,
			Secret:  h.Secret,
			Events:  h.Events,
		}))
	}
	return sinks
}

// checkSubscriptions rejects subscriptions the registry does not know, whose
// condition does not fit its schema, or that the token may not create.
func checkSubscriptions(cfg *config.Config, reg *eventsub.Registry, scopes auth.Scopes) error {
	var errs []error
	for i, s := range cfg.Subscriptions {
		d, ok := reg.Lookup(s.Type, s.Version)
		if !ok {
			errs = append(errs, fmt.Errorf("subscriptions[%d]: unknown subscription %s@%s", i, s.Type, s.Version))
			continue
		}
		if err := d.Condition.Check(s.Condition); err != nil {
			errs = append(errs, fmt.Errorf("subscriptions[%d] %s: %w", i, d.Key(), err))
		}
		if !d.Authorized(scopes.Has) {
			errs = append(errs, fmt.Errorf("subscriptions[%d] %s: token lacks one of scopes %v", i, d.Key(), d.Scopes))
		}
	}
	return errors.Join(errs...)
}

// requests returns the create requests for subscriptions on transport.
func (a *App) requests(tr eventsub.Transport) []helix.CreateRequest {
	var reqs []helix.CreateRequest
	for _, s := range a.Config.Subscriptions {
		if a.Config.TransportOf(s) != tr.Method {
			continue
		}
		reqs = append(reqs, helix.CreateRequest{
			Type:      s.Type,
			Version:   s.Version,
			Condition: s.Condition,
			Transport: tr,
		})
	}
	return reqs
}

func (a *App) subscribe(ctx context.Context, tr eventsub.Transport) error {
	reqs := a.requests(tr)
	if len(reqs) == 0 {
		return nil
	}
	// WebSocket subscriptions are tied to the user token, webhook ones
	// must be created with an app token.
	client := a.Helix
	if tr.Method == eventsub.TransportWebhook {
		client = a.AppHelix
	}
	if err := client.CreateAll(ctx, reqs, constants.SubscriptionWorkers); err != nil {
		return fmt.Errorf("creating %s subscriptions: %w", tr.Method, err)
	}
	a.Log.Info("Subscriptions created", "transport", tr.Method, "count", len(reqs))
	return nil
}

// onWelcome creates the WebSocket subscriptions on every fresh session.
// A resumed session keeps the ones it had.
func (a *App) onWelcome(ctx context.Context, s session.Session, resumed bool) error {
	if resumed {
		a.Log.Info("Session resumed, subscriptions carried over", "session_id", s.ID)
		return nil
	}
	return a.subscribe(ctx, eventsub.Transport{Method: eventsub.TransportWebSocket, SessionID: s.ID})
}

// Run starts every enabled component and blocks until ctx is cancelled or
// one of them fails. It returns nil after a clean shutdown.
func (a *App) Run(ctx context.Context) error {
	defer a.Close()

	// Listen before creating webhook subscriptions: Twitch sends the
	// verification challenge right away.
	var ln net.Listener
	if a.Server != nil {
		var err error
		ln, err = net.Listen("tcp", a.Config.Server.Addr)
		if err != nil {
			return fmt.Errorf("listen %s: %w", a.Config.Server.Addr, err)
		}
	}

	g, ctx := errgroup.WithContext(ctx)

	if a.Server != nil {
		g.Go(func() error { return a.Server.Serve(ctx, ln) })
	}

	if a.Webhook != nil {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return nil
			case err := <-a.Webhook.Fatal():
				return err
			}
		})
		g.Go(func() error {
			return a.subscribe(ctx, eventsub.Transport{
				Method:   eventsub.TransportWebhook,
				Callback: a.Config.Webhook.Callback,
				Secret:   a.Config.Webhook.Secret,
			})
		})
	}

	if a.Session != nil {
		g.Go(func() error { return a.Session.Run(ctx) })
		g.Go(func() error {
			a.consume(ctx)
			return nil
		})
	}

	g.Go(func() error { return a.Tokens.RunValidator(ctx, a.Config.Auth.ValidateInterval) })

	err := g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// consume drains the session until its channel closes. Each delivery is
// handed to the sinks before the next one is read, so a slow sink fills the
// session buffer and stalls the socket reader instead of piling up work.
// The WebSocket transport has no redelivery, so failed sends are only
// logged by the dispatcher.
func (a *App) consume(ctx context.Context) {
	for d := range a.Session.Events() {
		if a.Dedup.Seen(d.MessageID) {
			a.Metrics.Duplicate(d.Transport)
			a.Log.Debug("Duplicate delivery dropped", "message_id", d.MessageID)
			continue
		}
		_ = a.Dispatcher.Dispatch(ctx, d)
	}
}

func (a *App) health() server.Health {
	h := server.Health{Status: server.StatusOK, Webhook: a.Webhook != nil}
	if a.Session != nil {
		state := a.Session.State()
		h.SessionState = state.String()
		h.SessionID = a.Session.Session().ID
		if state != session.StateActive {
			h.Status = server.StatusDegraded
		}
	}
	if exp := a.Tokens.Snapshot().ExpiresAt; !exp.IsZero() {
		h.TokenExpiresAt = &exp
	}
	return h
}

// Close releases connections held outside Run's goroutines.
func (a *App) Close() {
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.Log.Warn("Closing redis", "error", err)
		}
		a.rdb = nil
	}
}
