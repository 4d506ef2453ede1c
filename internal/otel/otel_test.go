package otel

import (
	"bytes"
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	eventbus "github.com/hanpama/graphmock/internal/eventbus"
	handler "github.com/hanpama/graphmock/internal/handler"
	resolver "github.com/hanpama/graphmock/internal/resolver"
	schema "github.com/hanpama/graphmock/internal/schema"
	server "github.com/hanpama/graphmock/internal/server"
)

func TestSetup_NoEndpoint(t *testing.T) {
	shutdown, err := Setup(context.Background(), "", "graphmock")
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}

func TestSubscribe_RequestSpans(t *testing.T) {
	eventbus.Use(eventbus.New())
	defer eventbus.Use(nil)

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	unsubscribe := Subscribe(tp.Tracer("test"))
	defer unsubscribe()

	sch, err := schema.BuildFromSDL(`type Query { hello: String! }`)
	require.NoError(t, err)
	gql, err := handler.New(handler.Config{
		Schema:      sch,
		ResolverMap: resolver.Map{"Query": {"hello": resolver.Value("hi")}},
	})
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/graphql", bytes.NewBufferString(`{"query":"query Greet { hello }","operationName":"Greet"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	server.New(gql).ServeHTTP(w, req)
	require.Equal(t, 200, w.Code)

	spans := sr.Ended()
	names := make([]string, len(spans))
	byName := map[string]sdktrace.ReadOnlySpan{}
	for i, s := range spans {
		names[i] = s.Name()
		byName[s.Name()] = s
	}
	require.Equal(t, []string{"graphmock.pack", "graphql.operation", "http.request"}, names)

	op := byName["graphql.operation"]
	httpSpan := byName["http.request"]
	require.Equal(t, httpSpan.SpanContext().SpanID(), op.Parent().SpanID())
	require.Contains(t, op.Attributes(), attribute.String("graphql.operation.name", "Greet"))
	require.Contains(t, op.Attributes(), attribute.String("graphql.operation.type", "query"))
	require.Contains(t, httpSpan.Attributes(), attribute.Int("http.status_code", 200))
	require.Contains(t, byName["graphmock.pack"].Attributes(), attribute.Int("pack.resolvers", 1))
}
