package wrappers

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/hanpama/graphmock/internal/embed"
	"github.com/hanpama/graphmock/internal/eventbus"
	"github.com/hanpama/graphmock/internal/events"
	"github.com/hanpama/graphmock/internal/mockstore"
	"github.com/hanpama/graphmock/internal/pack"
	"github.com/hanpama/graphmock/internal/resolver"
	"github.com/hanpama/graphmock/internal/schema"
	"github.com/hanpama/graphmock/internal/target"
	"github.com/hanpama/graphmock/internal/wrap"
)

const sdl = `
type Query { greet(name: String): String person: Person }
type Mutation { rename(name: String!): Person }
type Person { name: String }
`

func packWith(t *testing.T, rm resolver.Map, ref any, ws ...wrap.Wrapper) resolver.Map {
	t.Helper()
	s, err := schema.BuildFromSDL(sdl)
	require.NoError(t, err)
	p, err := pack.Pack(context.Background(), rm, []pack.MapWrapper{
		embed.Embed(embed.Options{Target: ref, Wrappers: ws}),
	}, pack.WithSchema(s))
	require.NoError(t, err)
	return p.Resolvers
}

func call(r resolver.Resolver, parent any, args map[string]any, field string, path ...any) (any, error) {
	return r(context.Background(), parent, args, resolver.Info{FieldName: field, Path: path})
}

func TestTrace(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	boom := errors.New("boom")

	rm := packWith(t, resolver.Map{
		"Query":  {"greet": resolver.Value("hi")},
		"Person": {"name": func(context.Context, any, map[string]any, resolver.Info) (any, error) { return nil, boom }},
	}, []target.Reference{target.Ref("Query", "greet"), target.Ref("Person", "name")}, Trace(tp.Tracer("test")))

	v, err := call(rm.Get("Query", "greet"), nil, nil, "greet", "greet")
	require.NoError(t, err)
	require.Equal(t, "hi", v)
	_, err = call(rm.Get("Person", "name"), nil, nil, "name", "people", 2, "name")
	require.ErrorIs(t, err, boom)

	spans := sr.Ended()
	require.Len(t, spans, 2)
	require.Equal(t, "resolve Query.greet", spans[0].Name())
	require.Equal(t, codes.Unset, spans[0].Status().Code)

	require.Equal(t, "resolve Person.name", spans[1].Name())
	require.Equal(t, codes.Error, spans[1].Status().Code)
	require.Len(t, spans[1].Events(), 1)
	require.Contains(t, spans[1].Attributes(), attribute.String("graphql.field.path", "people[2].name"))
}

func TestCache(t *testing.T) {
	c, err := NewCache(8)
	require.NoError(t, err)

	calls := 0
	greet := func(_ context.Context, _ any, args map[string]any, _ resolver.Info) (any, error) {
		calls++
		return "hello " + args["name"].(string), nil
	}
	rm := packWith(t, resolver.Map{"Query": {"greet": greet}}, target.Ref("Query", "greet"), c)
	r := rm.Get("Query", "greet")

	for i := 0; i < 3; i++ {
		v, err := call(r, nil, map[string]any{"name": "ann"}, "greet")
		require.NoError(t, err)
		require.Equal(t, "hello ann", v)
	}
	require.Equal(t, 1, calls)

	v, err := call(r, nil, map[string]any{"name": "bob"}, "greet")
	require.NoError(t, err)
	require.Equal(t, "hello bob", v)
	require.Equal(t, 2, calls)
	require.Equal(t, 2, c.Len())

	c.Purge()
	_, err = call(r, nil, map[string]any{"name": "ann"}, "greet")
	require.NoError(t, err)
	require.Equal(t, 3, calls)
}

func TestCache_ParentIdentity(t *testing.T) {
	c, err := NewCache(8)
	require.NoError(t, err)

	store := mockstore.NewStore().Define("person")
	a, err := store.Create("person", map[string]any{"name": "a"})
	require.NoError(t, err)
	b, err := store.Create("person", map[string]any{"name": "b"})
	require.NoError(t, err)

	calls := 0
	name := func(_ context.Context, parent any, _ map[string]any, _ resolver.Info) (any, error) {
		calls++
		return resolver.Property(parent, "name")
	}
	r := packWith(t, resolver.Map{"Person": {"name": name}}, target.Ref("Person", "name"), c).Get("Person", "name")

	for _, parent := range []any{a, b, a, b} {
		_, err := call(r, parent, nil, "name")
		require.NoError(t, err)
	}
	require.Equal(t, 2, calls)

	// plain maps carry no identity
	for i := 0; i < 2; i++ {
		v, err := call(r, map[string]any{"name": "c"}, nil, "name")
		require.NoError(t, err)
		require.Equal(t, "c", v)
	}
	require.Equal(t, 4, calls)
}

func TestCache_SkipsErrorsAndPurgesOnMutation(t *testing.T) {
	c, err := NewCache(8)
	require.NoError(t, err)

	calls := 0
	fail := true
	greet := func(context.Context, any, map[string]any, resolver.Info) (any, error) {
		calls++
		if fail {
			return nil, errors.New("flaky")
		}
		return "hi", nil
	}
	rm := packWith(t, resolver.Map{
		"Query":    {"greet": greet},
		"Mutation": {"rename": resolver.Value(nil)},
	}, []target.Reference{target.Ref("Query", "greet"), target.Ref("Mutation", "rename")}, c)

	_, err = call(rm.Get("Query", "greet"), nil, nil, "greet")
	require.Error(t, err)
	fail = false
	_, err = call(rm.Get("Query", "greet"), nil, nil, "greet")
	require.NoError(t, err)
	require.Equal(t, 2, calls)
	require.Equal(t, 1, c.Len())

	_, err = call(rm.Get("Mutation", "rename"), nil, map[string]any{"name": "x"}, "rename")
	require.NoError(t, err)
	require.Equal(t, 0, c.Len())
}

func TestNewCache_RejectsSize(t *testing.T) {
	_, err := NewCache(0)
	require.Error(t, err)
}

func TestEvents(t *testing.T) {
	bus := eventbus.New()
	eventbus.Use(bus)
	defer eventbus.Use(nil)

	var got []string
	eventbus.SubscribeTo(bus, func(_ context.Context, e events.ResolverStart) {
		got = append(got, "start "+e.Type+"."+e.Field)
	})
	eventbus.SubscribeTo(bus, func(_ context.Context, e events.ResolverFinish) {
		got = append(got, "finish "+e.Type+"."+e.Field)
	})

	r := packWith(t, resolver.Map{"Query": {"greet": resolver.Value("hi")}}, target.Ref("Query", "greet"), Events()).Get("Query", "greet")
	v, err := call(r, nil, nil, "greet", "greet")
	require.NoError(t, err)
	require.Equal(t, "hi", v)

	want := []string{"start Query.greet", "finish Query.greet"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
}
