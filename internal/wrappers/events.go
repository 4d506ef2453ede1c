package wrappers

import (
	"context"
	"time"

	"github.com/hanpama/graphmock/internal/eventbus"
	"github.com/hanpama/graphmock/internal/events"
	"github.com/hanpama/graphmock/internal/resolver"
	"github.com/hanpama/graphmock/internal/wrap"
)

// Events publishes ResolverStart and ResolverFinish around each call on the
// global event bus. Calls cost nothing extra while no bus is installed.
func Events() wrap.Wrapper {
	return wrap.Named("events", func(_ context.Context, r resolver.Resolver, opts wrap.Options) (resolver.Resolver, error) {
		typ := typeName(opts)
		return func(ctx context.Context, parent any, args map[string]any, info resolver.Info) (any, error) {
			if !eventbus.Enabled() {
				return r(ctx, parent, args, info)
			}
			eventbus.Publish(ctx, events.ResolverStart{Type: typ, Field: info.FieldName, Path: info.Path})
			start := time.Now()
			v, err := r(ctx, parent, args, info)
			eventbus.Publish(ctx, events.ResolverFinish{
				Type:     typ,
				Field:    info.FieldName,
				Path:     info.Path,
				Err:      err,
				Duration: time.Since(start),
			})
			return v, err
		}, nil
	})
}
