package pack

import (
	"context"

	"github.com/hanpama/graphmock/internal/resolver"
)

// Key is the reserved context value name the options are stored under.
const Key = "pack"

type valuesKey struct{}

type optionsKey struct{}

// Sources are the inputs of BuildContext, lowest precedence first.
type Sources struct {
	Initial map[string]any
	Query   map[string]any
	Pack    *Options
}

// BuildContext merges initial then query values into one map, query values
// winning, and stores the options under Key, which always wins. The merged
// map and the options are attached to ctx.
func BuildContext(ctx context.Context, src Sources) context.Context {
	merged := make(map[string]any, len(src.Initial)+len(src.Query)+1)
	for k, v := range src.Initial {
		merged[k] = v
	}
	for k, v := range src.Query {
		merged[k] = v
	}
	merged[Key] = src.Pack
	ctx = context.WithValue(ctx, valuesKey{}, merged)
	return context.WithValue(ctx, optionsKey{}, src.Pack)
}

// Values returns the map assembled by BuildContext, or nil.
func Values(ctx context.Context) map[string]any {
	v, _ := ctx.Value(valuesKey{}).(map[string]any)
	return v
}

// Value returns one merged context value.
func Value(ctx context.Context, key string) (any, bool) {
	v, ok := Values(ctx)[key]
	return v, ok
}

// FromContext returns the session options bound to ctx.
func FromContext(ctx context.Context) (*Options, bool) {
	o, ok := ctx.Value(optionsKey{}).(*Options)
	return o, ok && o != nil
}

// WithOptions binds o to ctx without touching the merged values.
func WithOptions(ctx context.Context, o *Options) context.Context {
	return context.WithValue(ctx, optionsKey{}, o)
}

// Bind returns a resolver that runs r with opts bound to its context. r
// itself is not modified.
func Bind(r resolver.Resolver, opts *Options) resolver.Resolver {
	return func(ctx context.Context, parent any, args map[string]any, info resolver.Info) (any, error) {
		return r(WithOptions(ctx, opts), parent, args, info)
	}
}
