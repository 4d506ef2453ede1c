// Package pack bundles a resolver map with the state and dependencies shared
// by every resolver of one packaging session, and threads them into the
// context of each resolver call.
package pack

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/hanpama/graphmock/internal/mockstore"
	"github.com/hanpama/graphmock/internal/resolver"
	"github.com/hanpama/graphmock/internal/schema"
)

// Dependencies are the long-lived collaborators of a session.
type Dependencies struct {
	Schema *schema.Schema
	Store  *mockstore.Store
	Mapper *mockstore.Mapper

	// Extensions holds consumer-defined collaborators.
	Extensions map[string]any
}

// Extension returns a consumer-defined dependency.
func (d Dependencies) Extension(name string) (any, bool) {
	v, ok := d.Extensions[name]
	return v, ok
}

// Options is shared by pointer across one session: every wrapper and every
// resolver sees the same instance.
type Options struct {
	ID           uuid.UUID
	State        *State
	Dependencies Dependencies
}

// MapWrapper transforms a whole resolver map. Wrappers may mutate and return
// the map they are given.
type MapWrapper func(ctx context.Context, resolvers resolver.Map, opts *Options) (resolver.Map, error)

// Packed is the result of Pack.
type Packed struct {
	ID        uuid.UUID
	Resolvers resolver.Map
	State     *State
	Options   *Options
}

// Option overrides part of the session defaults.
type Option func(*Options)

// WithState shares an existing state.
func WithState(s *State) Option {
	return func(o *Options) { o.State = s }
}

// WithDependencies replaces the whole dependency bag.
func WithDependencies(d Dependencies) Option {
	return func(o *Options) { o.Dependencies = d }
}

func WithSchema(s *schema.Schema) Option {
	return func(o *Options) { o.Dependencies.Schema = s }
}

func WithStore(s *mockstore.Store) Option {
	return func(o *Options) { o.Dependencies.Store = s }
}

func WithMapper(m *mockstore.Mapper) Option {
	return func(o *Options) { o.Dependencies.Mapper = m }
}

// WithExtension sets one consumer-defined dependency.
func WithExtension(name string, v any) Option {
	return func(o *Options) {
		if o.Dependencies.Extensions == nil {
			o.Dependencies.Extensions = make(map[string]any)
		}
		o.Dependencies.Extensions[name] = v
	}
}

// NewOptions builds the options of a new session.
func NewOptions(opts ...Option) *Options {
	o := &Options{ID: uuid.New()}
	for _, opt := range opts {
		opt(o)
	}
	if o.State == nil {
		o.State = NewState(nil)
	}
	if o.Dependencies.Extensions == nil {
		o.Dependencies.Extensions = make(map[string]any)
	}
	return o
}

// Pack copies initial and applies wrappers to it in order, all sharing one
// *Options. The caller's map is left untouched.
func Pack(ctx context.Context, initial resolver.Map, wrappers []MapWrapper, opts ...Option) (*Packed, error) {
	o := NewOptions(opts...)

	resolvers := initial.Clone()
	for i, w := range wrappers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out, err := w(ctx, resolvers, o)
		if err != nil {
			return nil, fmt.Errorf("pack wrapper %d: %w", i, err)
		}
		if out == nil {
			return nil, fmt.Errorf("pack wrapper %d returned no resolver map", i)
		}
		resolvers = out
	}

	return &Packed{ID: o.ID, Resolvers: resolvers, State: o.State, Options: o}, nil
}
