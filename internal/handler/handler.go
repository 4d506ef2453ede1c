// Package handler packs a resolver map once and answers GraphQL queries
// against it.
package handler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/vektah/gqlparser/v2/gqlerror"

	"github.com/hanpama/graphmock/internal/eventbus"
	"github.com/hanpama/graphmock/internal/events"
	"github.com/hanpama/graphmock/internal/executor"
	"github.com/hanpama/graphmock/internal/introspection"
	"github.com/hanpama/graphmock/internal/language"
	"github.com/hanpama/graphmock/internal/pack"
	"github.com/hanpama/graphmock/internal/resolver"
	"github.com/hanpama/graphmock/internal/resolverrt"
	"github.com/hanpama/graphmock/internal/schema"
)

// ErrNoSchema is returned by New when neither Config.Schema nor
// Config.Dependencies.Schema is set.
var ErrNoSchema = errors.New("handler: no schema")

type Config struct {
	// Schema is the executable schema. Dependencies.Schema is used when nil.
	Schema *schema.Schema

	ResolverMap resolver.Map
	Middlewares []pack.MapWrapper

	// Dependencies are handed to pack. Dependencies.Schema defaults to Schema.
	Dependencies pack.Dependencies
	PackOptions  []pack.Option

	// InitialContext is merged under every query's context values.
	InitialContext map[string]any

	DisableIntrospection bool

	// Concurrency bounds resolvers running at once per batch. 0 selects
	// resolverrt.DefaultConcurrency.
	Concurrency int
}

// Request is one GraphQL operation.
type Request struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
	Extensions    map[string]any `json:"extensions,omitempty"`
}

// Handler is safe for concurrent use. The resolver map is packed on first
// use and shared by every later query.
type Handler struct {
	cfg    Config
	schema *schema.Schema

	once   sync.Once
	packed *pack.Packed
	exec   *executor.Executor
	err    error
}

func New(cfg Config) (*Handler, error) {
	sch := cfg.Schema
	if sch == nil {
		sch = cfg.Dependencies.Schema
	}
	if sch == nil {
		return nil, ErrNoSchema
	}
	if cfg.Dependencies.Schema == nil {
		cfg.Dependencies.Schema = sch
	}
	return &Handler{cfg: cfg, schema: sch}, nil
}

// Schema returns the schema queries are validated against.
func (h *Handler) Schema() *schema.Schema { return h.schema }

// Pack packs the resolver map, once. Later calls return the same result.
func (h *Handler) Pack(ctx context.Context) (*pack.Packed, error) {
	h.once.Do(func() {
		// A cancelled first query must not fail every later one.
		ctx := context.WithoutCancel(ctx)
		start := time.Now()
		opts := append([]pack.Option{pack.WithDependencies(h.cfg.Dependencies)}, h.cfg.PackOptions...)
		packed, err := pack.Pack(ctx, h.cfg.ResolverMap, h.cfg.Middlewares, opts...)
		if err != nil {
			h.err = fmt.Errorf("pack resolvers: %w", err)
			eventbus.Publish(ctx, events.PackFinish{Err: h.err, Start: start, Duration: time.Since(start)})
			return
		}
		eventbus.Publish(ctx, events.PackFinish{
			ID:        packed.ID.String(),
			Resolvers: packed.Resolvers.Count(),
			Start:     start,
			Duration:  time.Since(start),
		})

		var rt executor.Runtime = resolverrt.New(h.schema, packed.Resolvers, resolverrt.WithConcurrency(h.concurrency()))
		sch := h.schema
		if !h.cfg.DisableIntrospection {
			w := introspection.Wrap(rt, sch)
			rt, sch = w.Runtime, w.Schema
		}
		h.packed = packed
		h.exec = executor.NewExecutor(rt, sch)
	})
	return h.packed, h.err
}

func (h *Handler) concurrency() int {
	if h.cfg.Concurrency == 0 {
		return resolverrt.DefaultConcurrency
	}
	return h.cfg.Concurrency
}

// Query runs query with variables. queryContext values override
// Config.InitialContext for this query only.
func (h *Handler) Query(ctx context.Context, query string, variables map[string]any, queryContext map[string]any) *executor.ExecutionResult {
	return h.Execute(ctx, Request{Query: query, Variables: variables}, queryContext)
}

// Execute runs one request. Request-level failures (packing, syntax,
// validation) come back as a result with errors and no data.
func (h *Handler) Execute(ctx context.Context, req Request, queryContext map[string]any) *executor.ExecutionResult {
	packed, err := h.Pack(ctx)
	if err != nil {
		return executor.ErrorResult(err.Error())
	}

	doc, err := h.parse(req.Query)
	if err != nil {
		return requestErrors(err)
	}

	opType := ""
	if op := doc.Operations.ForName(req.OperationName); op != nil {
		opType = string(op.Operation)
	} else if len(doc.Operations) == 1 {
		opType = string(doc.Operations[0].Operation)
	}

	start := time.Now()
	eventbus.Publish(ctx, events.GraphQLStart{Query: req.Query, OperationName: req.OperationName, OperationType: opType})

	qctx := pack.BuildContext(ctx, pack.Sources{
		Initial: h.cfg.InitialContext,
		Query:   queryContext,
		Pack:    packed.Options,
	})
	result := h.exec.ExecuteRequest(qctx, doc, req.OperationName, req.Variables, nil)

	errs := make([]error, len(result.Errors))
	for i := range result.Errors {
		errs[i] = result.Errors[i]
	}
	eventbus.Publish(ctx, events.GraphQLFinish{
		Query:         req.Query,
		OperationName: req.OperationName,
		OperationType: opType,
		Errors:        errs,
		Duration:      time.Since(start),
	})
	return result
}

// parse validates against the gqlparser schema when there is one. Hand-built
// schemas only get a syntax check.
func (h *Handler) parse(query string) (*language.QueryDocument, error) {
	if h.schema.AST != nil {
		return language.ValidateQuery(h.schema.AST, query)
	}
	return language.ParseQuery(query)
}

func requestErrors(err error) *executor.ExecutionResult {
	var list gqlerror.List
	var one *gqlerror.Error
	switch {
	case errors.As(err, &list):
	case errors.As(err, &one):
		list = gqlerror.List{one}
	default:
		return executor.ErrorResult(err.Error())
	}
	res := &executor.ExecutionResult{Errors: make([]executor.GraphQLError, len(list))}
	for i, e := range list {
		ge := executor.GraphQLError{Message: e.Message, Extensions: e.Extensions}
		for _, loc := range e.Locations {
			ge.Locations = append(ge.Locations, executor.Location{Line: loc.Line, Column: loc.Column})
		}
		res.Errors[i] = ge
	}
	return res
}
