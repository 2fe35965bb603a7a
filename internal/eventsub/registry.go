package eventsub

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/Guliveer/twitch-eventsub-go/internal/jsonutil"
)

// ConditionSchema describes the condition object a subscription type expects.
type ConditionSchema struct {
	ID string
	// Required keys must all be present.
	Required []string
	// OneOf keys are alternatives; exactly one must be present when set.
	OneOf []string
	// Optional keys may be present.
	Optional []string
}

// Check reports whether cond satisfies the schema.
func (c ConditionSchema) Check(cond map[string]string) error {
	for _, k := range c.Required {
		if cond[k] == "" {
			return fmt.Errorf("condition %s: missing %q", c.ID, k)
		}
	}
	if len(c.OneOf) > 0 {
		n := 0
		for _, k := range c.OneOf {
			if cond[k] != "" {
				n++
			}
		}
		if n != 1 {
			return fmt.Errorf("condition %s: exactly one of %s is required", c.ID, strings.Join(c.OneOf, ", "))
		}
	}
	for k := range cond {
		if !c.allows(k) {
			return fmt.Errorf("condition %s: unexpected key %q", c.ID, k)
		}
	}
	return nil
}

func (c ConditionSchema) allows(key string) bool {
	for _, set := range [][]string{c.Required, c.OneOf, c.Optional} {
		for _, k := range set {
			if k == key {
				return true
			}
		}
	}
	return false
}

// Descriptor is one row of the registry: a subscription type at a specific
// version, the scopes it needs and the schemas of its condition and payload.
type Descriptor struct {
	Type    string
	Version string
	// Scopes lists the OAuth scopes that authorize the subscription; any one
	// of them is sufficient. Empty means no user scope is needed.
	Scopes    []string
	Condition ConditionSchema
	// Payload is the Go type name of the resolved event.
	Payload string

	goType   reflect.Type
	newEvent func() Event
	required []string
}

// Key returns the "type@version" registry key.
func (d Descriptor) Key() string {
	return d.Type + "@" + d.Version
}

// Authorized reports whether a token holding the given scopes may create
// this subscription.
func (d Descriptor) Authorized(has func(scope string) bool) bool {
	if len(d.Scopes) == 0 {
		return true
	}
	for _, s := range d.Scopes {
		if has(s) {
			return true
		}
	}
	return false
}

// New returns a fresh zero payload for this descriptor.
func (d Descriptor) New() Event {
	return d.newEvent()
}

// describe builds a descriptor whose payload is *T.
func describe[T any, P interface {
	*T
	Event
}](typ, version string, cond ConditionSchema, scopes ...string) Descriptor {
	rt := reflect.TypeFor[T]()
	return Descriptor{
		Type:      typ,
		Version:   version,
		Scopes:    scopes,
		Condition: cond,
		Payload:   rt.Name(),
		goType:    rt,
		newEvent:  func() Event { return P(new(T)) },
		required:  jsonutil.RequiredFields(rt),
	}
}

type registryKey struct {
	typ     string
	version string
}

// Registry maps (type, version) to its Descriptor. It is immutable once
// built and safe for concurrent use.
type Registry struct {
	byKey  map[registryKey]Descriptor
	byType map[reflect.Type]Descriptor
}

// NewRegistry builds a registry from descs. It panics if two descriptors
// share a (type, version) key or a payload type, since either would make
// dispatch ambiguous.
func NewRegistry(descs ...Descriptor) *Registry {
	r := &Registry{
		byKey:  make(map[registryKey]Descriptor, len(descs)),
		byType: make(map[reflect.Type]Descriptor, len(descs)),
	}
	for _, d := range descs {
		r.register(d)
	}
	return r
}

func (r *Registry) register(d Descriptor) {
	if d.Type == "" || d.Version == "" || d.newEvent == nil {
		panic(fmt.Sprintf("eventsub: incomplete descriptor %q", d.Key()))
	}
	k := registryKey{d.Type, d.Version}
	if prev, dup := r.byKey[k]; dup {
		panic(fmt.Sprintf("eventsub: duplicate registry key %s (%s and %s)", d.Key(), prev.Payload, d.Payload))
	}
	if prev, dup := r.byType[d.goType]; dup {
		panic(fmt.Sprintf("eventsub: payload %s registered for both %s and %s", d.Payload, prev.Key(), d.Key()))
	}
	r.byKey[k] = d
	r.byType[d.goType] = d
}

// Lookup returns the descriptor for (eventType, version).
func (r *Registry) Lookup(eventType, version string) (Descriptor, bool) {
	d, ok := r.byKey[registryKey{eventType, version}]
	return d, ok
}

// DescriptorOf returns the descriptor whose payload type matches ev.
func (r *Registry) DescriptorOf(ev Event) (Descriptor, bool) {
	t := reflect.TypeOf(ev)
	if t == nil {
		return Descriptor{}, false
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	d, ok := r.byType[t]
	return d, ok
}

// Descriptors returns every descriptor sorted by type then version.
func (r *Registry) Descriptors() []Descriptor {
	out := make([]Descriptor, 0, len(r.byKey))
	for _, d := range r.byKey {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Type != out[j].Type {
			return out[i].Type < out[j].Type
		}
		return out[i].Version < out[j].Version
	})
	return out
}

// Len returns the number of registered descriptors.
func (r *Registry) Len() int {
	return len(r.byKey)
}

// defaultRegistry is built during package initialization so a duplicate
// catalog entry stops the program before it handles any input.
var defaultRegistry = NewRegistry(catalog()...)

// Default returns the registry of every subscription type this build knows.
func Default() *Registry {
	return defaultRegistry
}
