package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hanpama/graphmock/internal/config"
	"github.com/hanpama/graphmock/internal/embed"
	"github.com/hanpama/graphmock/internal/handler"
	"github.com/hanpama/graphmock/internal/logging"
	"github.com/hanpama/graphmock/internal/mirage"
	"github.com/hanpama/graphmock/internal/mockstore"
	"github.com/hanpama/graphmock/internal/otel"
	"github.com/hanpama/graphmock/internal/pack"
	"github.com/hanpama/graphmock/internal/schema"
	"github.com/hanpama/graphmock/internal/wrap"
	"github.com/hanpama/graphmock/internal/wrappers"
)

// app carries what every command shares once flags are parsed.
type app struct {
	cfg        *config.Config
	configFile string
	logger     *zap.Logger
}

// flagKeys maps flag names to the config keys they override.
var flagKeys = map[string]string{
	"schema":         config.KeySchema,
	"fixtures":       config.KeyFixtures,
	"mapper":         config.KeyMapper,
	"log-level":      config.KeyLogLevel,
	"log-format":     config.KeyLogFormat,
	"addr":           config.KeyAddr,
	"timeout":        config.KeyTimeout,
	"pretty":         config.KeyPretty,
	"cors":           config.KeyCORS,
	"context-header": config.KeyContextHeaders,
	"max-body-bytes": config.KeyMaxBodyBytes,
	"introspection":  config.KeyIntrospection,
	"concurrency":    config.KeyConcurrency,
	"otel-endpoint":  config.KeyOTelEndpoint,
	"otel-service":   config.KeyOTelService,
	"cache-size":     config.KeyCacheSize,
}

func newRootCmd() *cobra.Command {
	a := &app{cfg: config.New()}
	root := &cobra.Command{
		Use:           "graphmock",
		Short:         "Mock-backed GraphQL server and tools",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.configFile, "config", "c", "", "config file (yaml, json or toml)")
	pf.StringSlice("schema", nil, "schema file globs, e.g. schema/**/*.graphql (default schema.graphql)")
	pf.String("fixtures", "", "YAML fixtures loaded into the mock store")
	pf.String("mapper", "", "YAML GraphQL to mock field mappings")
	pf.String("log-level", "", "log level: debug, info, warn, error (default info)")
	pf.String("log-format", "", "log format: console or json (default console)")

	root.AddCommand(newServeCmd(a), newQueryCmd(a), newPrintSchemaCmd(a))
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	if a.configFile != "" {
		if err := a.cfg.ReadFile(a.configFile); err != nil {
			return err
		}
	}
	for name, key := range flagKeys {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := a.cfg.BindFlag(key, f); err != nil {
				return err
			}
		}
	}
	logger, err := logging.New(a.cfg.LogFormat(), a.cfg.LogLevel())
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	a.logger = logger
	return nil
}

func (a *app) loadSchema() (*schema.Schema, error) {
	sch, err := schema.LoadFiles(a.cfg.SchemaGlobs()...)
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}
	return sch, nil
}

func (a *app) loadStore() (*mockstore.Store, *mockstore.Mapper, error) {
	store := mockstore.NewStore()
	if path := a.cfg.Fixtures(); path != "" {
		if err := store.LoadFile(path); err != nil {
			return nil, nil, err
		}
		a.logger.Info("loaded fixtures", zap.String("path", path), zap.Strings("models", store.Models()))
	}
	var mapper *mockstore.Mapper
	if path := a.cfg.Mapper(); path != "" {
		m, err := mockstore.LoadMapper(path)
		if err != nil {
			return nil, nil, err
		}
		mapper = m
	}
	return store, mapper, nil
}

// newHandler wires the schema and mock store into a query handler. Every
// field resolver is wrapped with the configured stock wrappers.
func (a *app) newHandler(_ context.Context) (*handler.Handler, error) {
	sch, err := a.loadSchema()
	if err != nil {
		return nil, err
	}
	store, mapper, err := a.loadStore()
	if err != nil {
		return nil, err
	}

	ws := []wrap.Wrapper{wrappers.Events()}
	if a.cfg.OTelEndpoint() != "" {
		ws = append(ws, wrappers.Trace(otel.Tracer()))
	}
	if n := a.cfg.CacheSize(); n > 0 {
		c, err := wrappers.NewCache(n)
		if err != nil {
			return nil, err
		}
		ws = append(ws, c)
	}
	middlewares := append(mirage.Middleware(), embed.Embed(embed.Options{Wrappers: ws}))

	return handler.New(handler.Config{
		Schema:               sch,
		Middlewares:          middlewares,
		Dependencies:         pack.Dependencies{Store: store, Mapper: mapper},
		DisableIntrospection: !a.cfg.Introspection(),
		Concurrency:          a.cfg.Concurrency(),
	})
}
