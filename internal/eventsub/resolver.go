package eventsub

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"sync"

	"github.com/Guliveer/twitch-eventsub-go/internal/jsonutil"
)

// ErrSchemaMismatch is matched by every *SchemaError.
var ErrSchemaMismatch = errors.New("eventsub: payload does not match schema")

// SchemaError reports a payload for a registered type that could not be
// decoded into its Go struct.
type SchemaError struct {
	EventType string
	Version   string
	// Missing lists required members absent from the payload.
	Missing []string
	// Fields lists every undeclared member rejected in strict mode, nested
	// ones as dotted paths.
	Fields []string
	Err    error
}

func (e *SchemaError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "eventsub: %s v%s payload does not match schema", e.EventType, e.Version)
	switch {
	case len(e.Missing) > 0:
		fmt.Fprintf(&b, ": missing %s", strings.Join(e.Missing, ", "))
	case len(e.Fields) > 0:
		fmt.Fprintf(&b, ": unknown fields %s", strings.Join(e.Fields, ", "))
	case e.Err != nil:
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *SchemaError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrSchemaMismatch}
	}
	return []error{ErrSchemaMismatch, e.Err}
}

// ParserConfig controls payload decoding.
type ParserConfig struct {
	// Strict rejects payloads carrying members the Go struct does not
	// declare. Otherwise they are dropped with a one-time warning per
	// (type, version, field).
	Strict bool
}

// Resolver turns notifications into typed events using a Registry.
type Resolver struct {
	reg    *Registry
	strict bool
	log    *slog.Logger

	warned sync.Map
}

// NewResolver returns a resolver over reg. A nil reg means Default(); a nil
// log disables unknown-field warnings.
func NewResolver(reg *Registry, cfg ParserConfig, log *slog.Logger) *Resolver {
	if reg == nil {
		reg = Default()
	}
	return &Resolver{reg: reg, strict: cfg.Strict, log: log}
}

// Registry returns the registry the resolver dispatches on.
func (r *Resolver) Registry() *Registry {
	return r.reg
}

// Resolve decodes the notification's event into its registered payload.
// Unregistered (type, version) pairs yield *Unknown and no error. A payload
// that fails its registered schema yields a *SchemaError.
func (r *Resolver) Resolve(n *Notification) (Event, error) {
	d, ok := r.reg.Lookup(n.EventType, n.Version)
	if !ok {
		return &Unknown{
			EventType: n.EventType,
			Version:   n.Version,
			Raw:       append(json.RawMessage(nil), n.RawEvent...),
		}, nil
	}
	return r.decode(d, n.RawEvent)
}

func (r *Resolver) decode(d Descriptor, raw json.RawMessage) (Event, error) {
	fail := func(e *SchemaError) (Event, error) {
		e.EventType, e.Version = d.Type, d.Version
		return nil, e
	}

	obj, err := jsonutil.Object(raw)
	if err != nil {
		return fail(&SchemaError{Err: err})
	}
	if missing := jsonutil.MissingFields(obj, d.required); len(missing) > 0 {
		return fail(&SchemaError{Missing: missing})
	}

	ev := d.New()
	err = jsonutil.Decode(raw, ev, true)
	if err == nil {
		return ev, nil
	}

	field, unknown := jsonutil.UnknownField(err)
	if !unknown {
		return fail(&SchemaError{Err: err})
	}
	fields := jsonutil.UnknownFields(raw, reflect.TypeOf(ev))
	if len(fields) == 0 {
		fields = []string{field}
	}
	if r.strict {
		return fail(&SchemaError{Fields: fields, Err: err})
	}

	for _, f := range fields {
		r.warnUnknown(d, f)
	}
	ev = d.New()
	if err := jsonutil.Decode(raw, ev, false); err != nil {
		return fail(&SchemaError{Err: err})
	}
	return ev, nil
}

func (r *Resolver) warnUnknown(d Descriptor, field string) {
	if r.log == nil {
		return
	}
	if _, seen := r.warned.LoadOrStore(d.Key()+"#"+field, struct{}{}); seen {
		return
	}
	r.log.Warn("Ignoring undeclared payload field",
		"event_type", d.Type,
		"version", d.Version,
		"field", field)
}
