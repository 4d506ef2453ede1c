package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hanpama/graphmock/internal/eventbus"
	"github.com/hanpama/graphmock/internal/logging"
	"github.com/hanpama/graphmock/internal/metrics"
	"github.com/hanpama/graphmock/internal/otel"
	"github.com/hanpama/graphmock/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP GraphQL server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
	f := cmd.Flags()
	f.String("addr", "", "HTTP listen address (default :4000)")
	f.Duration("timeout", 0, "per-request timeout (default 10s)")
	f.Bool("pretty", false, "pretty-print JSON responses")
	f.StringSlice("cors", nil, "allowed CORS origins, * for any")
	f.StringSlice("context-header", nil, "HTTP header copied into the query context; repeatable")
	f.Int64("max-body-bytes", 0, "request body limit (default 1MiB)")
	f.Bool("introspection", true, "enable GraphQL introspection")
	f.Int("concurrency", 0, "resolvers run at once per batch (default 16)")
	f.String("otel-endpoint", "", "OTLP gRPC collector endpoint")
	f.String("otel-service", "", "OpenTelemetry service name (default graphmock)")
	f.Int("cache-size", 0, "per-field resolver cache entries; 0 disables caching")
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	eventbus.Use(eventbus.New())
	defer eventbus.Use(nil)
	defer logging.Subscribe(a.logger)()

	m := metrics.New()
	defer m.Subscribe()()

	shutdown, err := otel.Setup(ctx, a.cfg.OTelEndpoint(), a.cfg.OTelService())
	if err != nil {
		return fmt.Errorf("otel setup: %w", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	gql, err := a.newHandler(ctx)
	if err != nil {
		return err
	}
	if _, err := gql.Pack(ctx); err != nil {
		return err
	}

	opts := []server.Option{
		server.WithTimeout(a.cfg.Timeout()),
		server.WithMaxBodyBytes(a.cfg.MaxBodyBytes()),
	}
	if a.cfg.Pretty() {
		opts = append(opts, server.WithPretty())
	}
	if origins := a.cfg.CORS(); len(origins) > 0 {
		opts = append(opts, server.WithCORS(origins...))
	}
	if headers := a.cfg.ContextHeaders(); len(headers) > 0 {
		opts = append(opts, server.WithContextHeaders(headers...))
	}

	mux := http.NewServeMux()
	mux.Handle("/graphql", server.New(gql, opts...))
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{Addr: a.cfg.Addr(), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	a.logger.Info("GraphQL server listening", zap.String("addr", a.cfg.Addr()))

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	a.logger.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
