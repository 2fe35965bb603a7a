// Command eventsub connects to Twitch EventSub over WebSocket and/or
// webhooks, creates the configured subscriptions and forwards every event
// to the configured sinks until it receives SIGINT or SIGTERM.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/Guliveer/twitch-eventsub-go/internal/app"
	"github.com/Guliveer/twitch-eventsub-go/internal/auth"
	"github.com/Guliveer/twitch-eventsub-go/internal/config"
	"github.com/Guliveer/twitch-eventsub-go/internal/constants"
	"github.com/Guliveer/twitch-eventsub-go/internal/httpclient"
	"github.com/Guliveer/twitch-eventsub-go/internal/logger"
)

// forcedExitAfter bounds the graceful shutdown.
const forcedExitAfter = 30 * time.Second

func main() {
	configPath := flag.String("config", config.DefaultConfigPath, "Path to the YAML configuration file")
	logLevel := flag.String("log-level", "", "Log level: DEBUG, INFO, WARN, ERROR (overrides LOG_LEVEL env)")
	noColor := flag.Bool("no-color", false, "Disable colored output (overrides TTY detection)")
	login := flag.Bool("login", false, "Run the device code login, store the token in auth.token_file and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	level := logger.ParseLevel(cfg.Log.Level)
	if *logLevel != "" {
		level = logger.ParseLevel(*logLevel)
	} else if envLevel := os.Getenv("LOG_LEVEL"); envLevel != "" {
		level = logger.ParseLevel(envLevel)
	}
	fileLevel := level
	if cfg.Log.FileLevel != "" {
		fileLevel = logger.ParseLevel(cfg.Log.FileLevel)
	}

	colored := !*noColor && term.IsTerminal(int(os.Stdout.Fd())) && os.Getenv("NO_COLOR") == ""

	log, err := logger.Setup(logger.Config{
		Level:     level,
		FileLevel: fileLevel,
		Colored:   colored,
		LogDir:    cfg.Log.Dir,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to setup logger: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Info("Received shutdown signal", "signal", sig.String())
		cancel()

		time.AfterFunc(forcedExitAfter, func() {
			log.Error("Graceful shutdown timed out, forcing exit")
			os.Exit(1)
		})
	}()

	if *login {
		if err := deviceLogin(ctx, cfg, log); err != nil {
			log.Error("Device login failed", "error", err)
			os.Exit(1)
		}
		return
	}

	if err := config.Validate(cfg); err != nil {
		log.Error("Invalid config", "path", *configPath, "error", err)
		os.Exit(1)
	}

	log.Info("Starting EventSub client",
		"websocket", cfg.WebSocket.Enabled,
		"webhook", cfg.Webhook.Enabled,
		"subscriptions", len(cfg.Subscriptions),
		"sinks", len(cfg.Sinks.HTTP)+boolInt(cfg.LogSinkEnabled()),
	)

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		if errors.Is(err, auth.ErrNotAuthorized) {
			log.Error("Token rejected, run with -login to authorize again", "error", err)
		} else {
			log.Error("Startup failed", "error", err)
		}
		os.Exit(1)
	}

	if err := a.Run(ctx); err != nil {
		log.Error("EventSub client stopped", "error", err)
		os.Exit(1)
	}
	log.Info("Shutdown complete")
}

// deviceLogin obtains a token interactively and persists it so the next
// start picks it up from the token file.
func deviceLogin(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	if cfg.Auth.ClientID == "" {
		return fmt.Errorf("auth.client_id is required (or set %s)", config.EnvClientID)
	}
	if cfg.Auth.TokenFile == "" {
		return errors.New("auth.token_file is required to store the token")
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return errors.New("device login needs an interactive terminal")
	}

	doer := httpclient.New(constants.DefaultHTTPTimeout)
	creds, err := auth.NewDeviceFlow(doer, cfg.Auth.ClientID, log.WithComponent("auth")).
		Login(ctx, cfg.Auth.Scopes, os.Stdout)
	if err != nil {
		return err
	}

	store := auth.NewFileStore(cfg.Auth.TokenFile)
	if err := store.Save(auth.Token{
		AccessToken:  creds.AccessToken,
		RefreshToken: creds.RefreshToken,
		ClientID:     creds.ClientID,
	}); err != nil {
		return fmt.Errorf("saving token: %w", err)
	}
	log.Info("Token stored", "path", cfg.Auth.TokenFile)
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
