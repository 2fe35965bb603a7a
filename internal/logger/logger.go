// Package logger provides structured logging with colored console output,
// optional file output, and per-component prefixing using log/slog.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ANSI color codes for terminal output.
const (
	colorReset   = "\033[0m"
	colorRed     = "\033[31m"
	colorGreen   = "\033[32m"
	colorYellow  = "\033[33m"
	colorBlue    = "\033[34m"
	colorMagenta = "\033[35m"
	colorCyan    = "\033[36m"
	colorGray    = "\033[90m"
)

// coloredAttrKeys maps slog attribute keys to ANSI color codes for value highlighting.
var coloredAttrKeys = map[string]string{
	"event_type":      colorMagenta,
	"session_id":      colorCyan,
	"subscription_id": colorBlue,
	"state":           colorYellow,
}

// Config holds logger configuration options.
type Config struct {
	Level     slog.Level
	FileLevel slog.Level
	Colored   bool
	LogDir    string
	Component string
	// Output defaults to os.Stdout.
	Output io.Writer
}

// Logger wraps slog.Logger with component-scoped context.
type Logger struct {
	*slog.Logger
	cfg Config
}

// Setup creates a new Logger based on the provided configuration.
// It sets up console and optional file handlers.
func Setup(cfg Config) (*Logger, error) {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}

	handlers := []slog.Handler{newColorHandler(out, cfg.Level, cfg.Colored, cfg.Component)}

	if cfg.LogDir != "" {
		if err := os.MkdirAll(cfg.LogDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating log directory %s: %w", cfg.LogDir, err)
		}

		logFile, err := os.OpenFile(
			filepath.Join(cfg.LogDir, "eventsub.log"),
			os.O_CREATE|os.O_WRONLY|os.O_APPEND,
			0o644,
		)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}

		handlers = append(handlers, slog.NewTextHandler(logFile, &slog.HandlerOptions{
			Level: cfg.FileLevel,
		}))
	}

	var handler slog.Handler
	if len(handlers) == 1 {
		handler = handlers[0]
	} else {
		handler = &multiHandler{handlers: handlers}
	}

	return &Logger{Logger: slog.New(handler), cfg: cfg}, nil
}

// Discard returns a Logger that drops everything. Intended for tests.
func Discard() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// WithComponent returns a Logger whose console lines are prefixed with [name].
// The file handler, if any, receives a component attribute instead.
func (l *Logger) WithComponent(name string) *Logger {
	h := l.Logger.Handler()
	switch ch := h.(type) {
	case *colorHandler:
		h = ch.withComponent(name)
	case *multiHandler:
		hs := make([]slog.Handler, len(ch.handlers))
		for i, inner := range ch.handlers {
			if c, ok := inner.(*colorHandler); ok {
				hs[i] = c.withComponent(name)
			} else {
				hs[i] = inner.WithAttrs([]slog.Attr{slog.String("component", name)})
			}
		}
		h = &multiHandler{handlers: hs}
	default:
		h = h.WithAttrs([]slog.Attr{slog.String("component", name)})
	}

	cfg := l.cfg
	cfg.Component = name
	return &Logger{Logger: slog.New(h), cfg: cfg}
}

// ParseLevel converts a string log level to slog.Level.
func ParseLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type colorHandler struct {
	mu        *sync.Mutex
	writer    io.Writer
	level     slog.Level
	colored   bool
	component string
	attrs     []slog.Attr
}

func newColorHandler(w io.Writer, level slog.Level, colored bool, component string) *colorHandler {
	return &colorHandler{
		mu:        &sync.Mutex{},
		writer:    w,
		level:     level,
		colored:   colored,
		component: component,
	}
}

func (h *colorHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *colorHandler) Handle(_ context.Context, record slog.Record) error {
	var b strings.Builder

	timeStr := record.Time.Format("02/01/06 15:04:05")
	prefix := ""
	if h.component != "" {
		prefix = "[" + h.component + "] "
	}

	if h.colored {
		fmt.Fprintf(&b, "%s%s%s - %s%s%s - %s%s",
			colorGray, timeStr, colorReset,
			h.levelColor(record.Level), record.Level.String(), colorReset,
			prefix, record.Message,
		)
	} else {
		fmt.Fprintf(&b, "%s - %s - %s%s", timeStr, record.Level.String(), prefix, record.Message)
	}

	for _, a := range h.attrs {
		h.writeAttr(&b, a)
	}
	record.Attrs(func(a slog.Attr) bool {
		h.writeAttr(&b, a)
		return true
	})
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.writer, b.String())
	return err
}

func (h *colorHandler) writeAttr(b *strings.Builder, a slog.Attr) {
	if h.colored {
		if color, ok := coloredAttrKeys[a.Key]; ok {
			fmt.Fprintf(b, " %s=%s%v%s", a.Key, color, a.Value, colorReset)
			return
		}
	}
	fmt.Fprintf(b, " %s=%v", a.Key, a.Value)
}

func (h *colorHandler) clone() *colorHandler {
	return &colorHandler{
		mu:        h.mu,
		writer:    h.writer,
		level:     h.level,
		colored:   h.colored,
		component: h.component,
		attrs:     copyAttrs(h.attrs),
	}
}

func (h *colorHandler) withComponent(name string) *colorHandler {
	c := h.clone()
	c.component = name
	return c
}

func (h *colorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := h.clone()
	c.attrs = append(c.attrs, attrs...)
	return c
}

// WithGroup is a no-op; the console format is flat.
func (h *colorHandler) WithGroup(string) slog.Handler {
	return h.clone()
}

func copyAttrs(attrs []slog.Attr) []slog.Attr {
	if len(attrs) == 0 {
		return nil
	}
	cp := make([]slog.Attr, len(attrs))
	copy(cp, attrs)
	return cp
}

func (h *colorHandler) levelColor(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return colorRed
	case level >= slog.LevelWarn:
		return colorYellow
	case level >= slog.LevelInfo:
		return colorGreen
	default:
		return colorCyan
	}
}

type multiHandler struct {
	handlers []slog.Handler
}

func (m *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range m.handlers {
		if h.Enabled(ctx, r.Level) {
			if err := h.Handle(ctx, r.Clone()); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	hs := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		hs[i] = h.WithAttrs(attrs)
	}
	return &multiHandler{handlers: hs}
}

func (m *multiHandler) WithGroup(name string) slog.Handler {
	hs := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		hs[i] = h.WithGroup(name)
	}
	return &multiHandler{handlers: hs}
}
