// Package wrappers holds stock resolver wrappers that are installed with
// embed.Embed.
package wrappers

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/hanpama/graphmock/internal/resolver"
	"github.com/hanpama/graphmock/internal/wrap"
)

// Trace opens one span per resolver call on tracer.
func Trace(tracer trace.Tracer) wrap.Wrapper {
	return wrap.Named("trace", func(_ context.Context, r resolver.Resolver, opts wrap.Options) (resolver.Resolver, error) {
		name := spanName(opts)
		return func(ctx context.Context, parent any, args map[string]any, info resolver.Info) (any, error) {
			ctx, span := tracer.Start(ctx, name, trace.WithSpanKind(trace.SpanKindInternal))
			defer span.End()
			span.SetAttributes(
				attribute.String("graphql.field.parent", typeName(opts)),
				attribute.String("graphql.field.name", info.FieldName),
				attribute.String("graphql.field.path", pathString(info.Path)),
			)
			v, err := r(ctx, parent, args, info)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			}
			return v, err
		}, nil
	})
}

func spanName(opts wrap.Options) string {
	field := ""
	if opts.Field != nil {
		field = opts.Field.Name
	}
	return "resolve " + typeName(opts) + "." + field
}

func typeName(opts wrap.Options) string {
	if opts.Type == nil {
		return ""
	}
	return opts.Type.Name
}

func pathString(path []any) string {
	s := ""
	for i, p := range path {
		if _, ok := p.(int); ok {
			s += fmt.Sprintf("[%d]", p)
			continue
		}
		if i > 0 {
			s += "."
		}
		s += fmt.Sprint(p)
	}
	return s
}
