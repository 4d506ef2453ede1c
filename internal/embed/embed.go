// Package embed applies resolver wrappers to the fields selected by target
// references.
package embed

import (
	"context"
	"fmt"

	"github.com/hanpama/graphmock/internal/pack"
	"github.com/hanpama/graphmock/internal/resolver"
	"github.com/hanpama/graphmock/internal/target"
	"github.com/hanpama/graphmock/internal/wrap"
)

// Options configure one embed pass.
type Options struct {
	// Target is anything target.Expand accepts. Nil selects every field.
	Target any
	// Wrappers are applied in order to each selected resolver.
	Wrappers []wrap.Wrapper
	// Resolver fills selected slots that are empty, or every selected slot
	// when Replace is set.
	Resolver resolver.Resolver
	Replace  bool
}

// Embed wraps the resolver of every selected field. Empty slots start from
// Options.Resolver, or the default field resolver.
func Embed(o Options) pack.MapWrapper {
	return func(ctx context.Context, resolvers resolver.Map, opts *pack.Options) (resolver.Map, error) {
		s := opts.Dependencies.Schema
		if s == nil {
			return nil, fmt.Errorf("embed: pack dependencies carry no schema")
		}
		ref := o.Target
		if ref == nil {
			ref = target.Ref(target.Wildcard, target.Wildcard)
		}
		pairs, err := target.Expand(ref, s)
		if err != nil {
			return nil, err
		}

		for _, p := range pairs {
			current := resolvers.Get(p.Type, p.Field)
			if o.Resolver != nil && (current == nil || o.Replace) {
				current = o.Resolver
			}
			if current == nil {
				current = resolver.DefaultFieldResolver
			}
			t := s.GetType(p.Type)
			wrapped, err := wrap.Apply(ctx, current, o.Wrappers, wrap.Options{
				Type:      t,
				Field:     t.GetField(p.Field),
				Resolvers: resolvers,
				Pack:      opts,
			})
			if err != nil {
				return nil, fmt.Errorf("embed %s: %w", p, err)
			}
			resolvers.Set(p.Type, p.Field, pack.Bind(wrapped, opts))
		}
		return resolvers, nil
	}
}
