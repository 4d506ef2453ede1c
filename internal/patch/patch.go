// Package patch fills empty slots of a resolver map, field by field, from
// the schema the map is packed against.
package patch

import (
	"context"
	"errors"
	"fmt"

	"github.com/hanpama/graphmock/internal/pack"
	"github.com/hanpama/graphmock/internal/resolver"
	"github.com/hanpama/graphmock/internal/schema"
)

var ErrNoSchema = errors.New("patch: pack dependencies carry no schema")

// Context is passed to a Func for one empty slot.
type Context struct {
	Resolvers resolver.Map
	Type      *schema.Type
	Field     *schema.Field
	Path      [2]string
	Pack      *pack.Options
}

// Func returns the resolver for an empty slot, or nil to leave it empty.
type Func func(ctx context.Context, pc Context) (resolver.Resolver, error)

// Each visits every field of every object type, in declaration order, whose
// slot is empty and installs what fn returns, bound to the pack options.
// Filled slots are never revisited, so running a pass twice changes nothing.
func Each(fn Func) pack.MapWrapper {
	return func(ctx context.Context, resolvers resolver.Map, opts *pack.Options) (resolver.Map, error) {
		s := opts.Dependencies.Schema
		if s == nil {
			return nil, ErrNoSchema
		}
		for _, t := range s.ObjectTypes() {
			for _, f := range t.GetOrderedFields() {
				if resolvers.Has(t.Name, f.Name) {
					continue
				}
				r, err := fn(ctx, Context{
					Resolvers: resolvers,
					Type:      t,
					Field:     f,
					Path:      [2]string{t.Name, f.Name},
					Pack:      opts,
				})
				if err != nil {
					return nil, fmt.Errorf("patch %s.%s: %w", t.Name, f.Name, err)
				}
				if r != nil {
					resolvers.Set(t.Name, f.Name, pack.Bind(r, opts))
				}
			}
		}
		return resolvers, nil
	}
}

// TypeResolverFunc picks the concrete object type name of a value returned
// for an abstract type.
type TypeResolverFunc func(ctx context.Context, value any, abstract *schema.Type, s *schema.Schema) (string, error)

// UnionsInterfaces installs a __resolveType resolver on every union and
// interface that has none, delegating to typeResolver.
func UnionsInterfaces(typeResolver TypeResolverFunc) pack.MapWrapper {
	return func(ctx context.Context, resolvers resolver.Map, opts *pack.Options) (resolver.Map, error) {
		s := opts.Dependencies.Schema
		if s == nil {
			return nil, ErrNoSchema
		}
		for _, t := range s.AbstractTypes() {
			if resolvers.Has(t.Name, resolver.ResolveTypeField) {
				continue
			}
			abstract := t
			r := func(ctx context.Context, parent any, _ map[string]any, info resolver.Info) (any, error) {
				return typeResolver(ctx, parent, abstract, s)
			}
			resolvers.Set(t.Name, resolver.ResolveTypeField, pack.Bind(r, opts))
		}
		return resolvers, nil
	}
}
