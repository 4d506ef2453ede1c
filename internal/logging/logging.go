// Package logging builds the zap logger and logs eventbus events through it.
package logging

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	eventbus "github.com/hanpama/graphmock/internal/eventbus"
	events "github.com/hanpama/graphmock/internal/events"
	reqid "github.com/hanpama/graphmock/internal/reqid"
)

// New builds a logger. format is "console" for development output or
// "json" for production output; level is a zap level name.
func New(format, level string) (*zap.Logger, error) {
	var cfg zap.Config
	switch format {
	case "", "console":
		cfg = zap.NewDevelopmentConfig()
	case "json":
		cfg = zap.NewProductionConfig()
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
	if level != "" {
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, err
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	return cfg.Build()
}

// Subscribe logs events from the global bus. Requests and operations log at
// info, resolver calls at debug. Failures log at error.
func Subscribe(logger *zap.Logger) (unsubscribe func()) {
	unsubs := []func(){
		eventbus.Subscribe(func(ctx context.Context, e events.HTTPFinish) {
			with(ctx, logger).Info("http request",
				zap.String("method", e.Request.Method),
				zap.String("path", e.Request.URL.Path),
				zap.Int("status", e.Status),
				zap.Duration("duration", e.Duration),
			)
		}),

		eventbus.Subscribe(func(ctx context.Context, e events.GraphQLFinish) {
			fields := []zap.Field{
				zap.String("operation", e.OperationName),
				zap.String("type", e.OperationType),
				zap.Duration("duration", e.Duration),
			}
			if len(e.Errors) > 0 {
				fields = append(fields, zap.Errors("errors", e.Errors))
				with(ctx, logger).Warn("graphql operation", fields...)
				return
			}
			with(ctx, logger).Info("graphql operation", fields...)
		}),

		eventbus.Subscribe(func(ctx context.Context, e events.ResolverFinish) {
			l := with(ctx, logger)
			if e.Err != nil {
				l.Error("resolver", zap.String("field", e.Type+"."+e.Field), zap.Any("path", e.Path), zap.Error(e.Err))
				return
			}
			if ce := l.Check(zap.DebugLevel, "resolver"); ce != nil {
				ce.Write(zap.String("field", e.Type+"."+e.Field), zap.Any("path", e.Path), zap.Duration("duration", e.Duration))
			}
		}),

		eventbus.Subscribe(func(ctx context.Context, e events.PackFinish) {
			if e.Err != nil {
				logger.Error("pack resolvers", zap.Error(e.Err))
				return
			}
			logger.Info("packed resolvers",
				zap.String("pack_id", e.ID),
				zap.Int("resolvers", e.Resolvers),
				zap.Duration("duration", e.Duration),
			)
		}),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

func with(ctx context.Context, logger *zap.Logger) *zap.Logger {
	if rid, ok := reqid.FromContext(ctx); ok {
		return logger.With(zap.String("request_id", rid))
	}
	return logger
}
