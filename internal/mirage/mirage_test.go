package mirage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hanpama/graphmock/internal/mockstore"
	"github.com/hanpama/graphmock/internal/pack"
	"github.com/hanpama/graphmock/internal/relay"
	"github.com/hanpama/graphmock/internal/resolver"
	"github.com/hanpama/graphmock/internal/schema"
)

const userSDL = `
type Query {
  user(id: ID): User
  users(name: String): [User!]!
}

type User {
  name: String!
  nickname: String
  favoriteFood: String!
  favoriteMovie: Movie!
}

type Movie {
  name: String!
}
`

func setup(t *testing.T) (*schema.Schema, *mockstore.Store) {
	t.Helper()
	s, err := schema.BuildFromSDL(userSDL)
	require.NoError(t, err)
	store := mockstore.NewStore().Define("user", mockstore.BelongsTo("favoriteMovie", "movie"))
	return s, store
}

func info(s *schema.Schema, typ, field string) resolver.Info {
	f := s.Field(typ, field)
	return resolver.Info{ParentType: s.GetType(typ), FieldName: field, ReturnType: f.Type, Schema: s}
}

func packed(s *schema.Schema, store *mockstore.Store, mapper *mockstore.Mapper) context.Context {
	o := pack.NewOptions(pack.WithSchema(s), pack.WithStore(store), pack.WithMapper(mapper))
	return pack.BuildContext(context.Background(), pack.Sources{Pack: o})
}

func TestObjectResolver_Scalar(t *testing.T) {
	s, store := setup(t)
	user, err := store.Create("user", map[string]any{"id": "1", "name": "George"})
	require.NoError(t, err)

	got, err := ObjectResolver(packed(s, store, nil), user, nil, info(s, "User", "name"))
	require.NoError(t, err)
	require.Equal(t, "George", got)
}

func TestObjectResolver_Mapper(t *testing.T) {
	s, store := setup(t)
	user, err := store.Create("user", map[string]any{"id": "1", "name": "George", "foodPreference": "Pizza"})
	require.NoError(t, err)
	mapper := mockstore.NewMapper().Add([2]string{"User", "favoriteFood"}, [2]string{"User", "foodPreference"})

	got, err := ObjectResolver(packed(s, store, mapper), user, nil, info(s, "User", "favoriteFood"))
	require.NoError(t, err)
	require.Equal(t, "Pizza", got)
}

func TestObjectResolver_Relationship(t *testing.T) {
	s, store := setup(t)
	starwars, err := store.Create("movie", map[string]any{"id": "1", "name": "Star Wars: A New Hope"})
	require.NoError(t, err)
	user, err := store.Create("user", map[string]any{"id": "1", "name": "George", "favoriteMovie": starwars})
	require.NoError(t, err)

	got, err := ObjectResolver(packed(s, store, nil), user, nil, info(s, "User", "favoriteMovie"))
	require.NoError(t, err)
	movie := got.(*mockstore.Model)
	name, _ := movie.Get("name")
	require.Equal(t, "Star Wars: A New Hope", name)
}

func TestObjectResolver_MissingNonNull(t *testing.T) {
	s, store := setup(t)
	user, err := store.Create("user", map[string]any{"id": "1"})
	require.NoError(t, err)

	_, err = ObjectResolver(packed(s, store, nil), user, nil, info(s, "User", "name"))
	require.ErrorIs(t, err, ErrMissingField)
	require.EqualError(t, err, `Failed to resolve field "name" on type "User". Tried to resolve the parent object model:user(1), with the following attrs: id`)

	var missing *MissingFieldError
	require.True(t, errors.As(err, &missing))
	require.Equal(t, "model:user(1)", missing.Parent)
}

func TestObjectResolver_MissingMappedField(t *testing.T) {
	s, store := setup(t)
	user, err := store.Create("user", map[string]any{"id": "1"})
	require.NoError(t, err)
	mapper := mockstore.NewMapper().Add([2]string{"User", "name"}, [2]string{"Person", "fullName"})

	_, err = ObjectResolver(packed(s, store, mapper), user, nil, info(s, "User", "name"))
	require.ErrorIs(t, err, ErrMissingField)
	require.EqualError(t, err, `Failed to resolve field "name" on type "User". Mapped to mock field "Person.fullName". Tried to resolve the parent object model:user(1), with the following attrs: id`)

	var missing *MissingFieldError
	require.True(t, errors.As(err, &missing))
	require.Equal(t, "Person.fullName", missing.Mock)
}

func TestObjectResolver_MissingNullable(t *testing.T) {
	s, store := setup(t)
	user, err := store.Create("user", map[string]any{"id": "1"})
	require.NoError(t, err)

	got, err := ObjectResolver(packed(s, store, nil), user, nil, info(s, "User", "nickname"))
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestObjectResolver_InvalidParent(t *testing.T) {
	s, store := setup(t)
	_, err := ObjectResolver(packed(s, store, nil), "PARENT IS A STRING", nil, info(s, "User", "name"))
	require.ErrorIs(t, err, ErrInvalidParent)
	require.EqualError(t, err, `Expected parent to be an object, got string, when trying to resolve field "name" on type "User"`)
}

func TestObjectResolver_PlainParents(t *testing.T) {
	s, store := setup(t)
	ctx := packed(s, store, nil)

	got, err := ObjectResolver(ctx, map[string]any{"name": "Fred"}, nil, info(s, "User", "name"))
	require.NoError(t, err)
	require.Equal(t, "Fred", got)

	got, err = ObjectResolver(ctx, struct{ Name string }{Name: "Wilma"}, nil, info(s, "User", "name"))
	require.NoError(t, err)
	require.Equal(t, "Wilma", got)
}

func TestFillMissingWithAutoResolvers(t *testing.T) {
	s, store := setup(t)
	hello := resolver.Value("kept")
	rm := resolver.Map{"User": {"name": hello}}

	out, err := FillMissingWithAutoResolvers(store, nil, s)(rm)
	require.NoError(t, err)

	require.False(t, out.Has("Query", "user"), "root fields are never auto-filled")
	require.True(t, out.Has("User", "favoriteFood"))
	require.True(t, out.Has("Movie", "name"))
	got, err := out.Get("User", "name")(context.Background(), nil, nil, resolver.Info{})
	require.NoError(t, err)
	require.Equal(t, "kept", got)

	before := out.Count()
	_, err = FillMissingWithAutoResolvers(store, nil, s)(out)
	require.NoError(t, err)
	require.Equal(t, before, out.Count())
}

func TestFillMissingWithAutoResolvers_SkipsDeclaredRoots(t *testing.T) {
	s, err := schema.BuildFromSDL(`
schema { query: RootQuery subscription: Events }
type RootQuery { a: String }
type Events { b: String }
type Subscription { c: String }
type Thing { d: String }
`)
	require.NoError(t, err)
	out, err := FillMissingWithAutoResolvers(mockstore.NewStore(), nil, s)(resolver.Map{})
	require.NoError(t, err)
	require.Equal(t, 1, out.Count())
	require.True(t, out.Has("Thing", "d"))
}

func TestMiddleware_RootQueries(t *testing.T) {
	s, store := setup(t)
	_, err := store.Create("user", map[string]any{"name": "Fred"})
	require.NoError(t, err)
	barney, err := store.Create("user", map[string]any{"name": "Barney"})
	require.NoError(t, err)

	p, err := pack.Pack(context.Background(), nil, Middleware(), pack.WithSchema(s), pack.WithStore(store))
	require.NoError(t, err)
	ctx := pack.BuildContext(context.Background(), pack.Sources{Pack: p.Options})

	got, err := p.Resolvers.Get("Query", "user")(ctx, nil, map[string]any{"id": "2"}, info(s, "Query", "user"))
	require.NoError(t, err)
	require.Same(t, barney, got)

	got, err = p.Resolvers.Get("Query", "users")(ctx, nil, map[string]any{"name": "Fred"}, info(s, "Query", "users"))
	require.NoError(t, err)
	require.Len(t, got, 1)

	got, err = p.Resolvers.Get("Query", "users")(ctx, nil, map[string]any{}, info(s, "Query", "users"))
	require.NoError(t, err)
	require.Len(t, got, 2)
}

func TestModelTypeResolver(t *testing.T) {
	s, err := schema.BuildFromSDL(`
type Query { a: Salutation }
union Salutation = Hello | GutenTag
type Hello { salutation: String! }
type GutenTag { salutation: String! }
`)
	require.NoError(t, err)
	store := mockstore.NewStore()
	tag, err := store.Create("GutenTag", nil)
	require.NoError(t, err)

	got, err := ModelTypeResolver(context.Background(), tag, s.GetType("Salutation"), s)
	require.NoError(t, err)
	require.Equal(t, "GutenTag", got)

	got, err = ModelTypeResolver(context.Background(), map[string]any{"__typename": "Hello"}, s.GetType("Salutation"), s)
	require.NoError(t, err)
	require.Equal(t, "Hello", got)

	_, err = ModelTypeResolver(context.Background(), "nope", s.GetType("Salutation"), s)
	require.ErrorIs(t, err, ErrUnresolvedType)
}

func TestConnectionFromRelationship(t *testing.T) {
	s, err := schema.BuildFromSDL(`
type Query { person: Person! }
type PersonConnection { pageInfo: PageInfo! edges: [PersonEdge!]! }
type PersonEdge { cursor: String! node: Person! }
type PageInfo { startCursor: String! endCursor: String! hasPreviousPage: Boolean! hasNextPage: Boolean! }
type Person { name: String! friends(first: Int, last: Int, before: String, after: String): PersonConnection! }
`)
	require.NoError(t, err)
	store := mockstore.NewStore().Define("person", mockstore.HasMany("friends", "person"))
	var friends []*mockstore.Model
	for _, name := range []string{"Darth Vader", "Princess Leia", "R2-D2", "Greedo"} {
		m, err := store.Create("person", map[string]any{"name": name})
		require.NoError(t, err)
		friends = append(friends, m)
	}
	root, err := store.Create("person", map[string]any{"name": "Rooty", "friends": friends})
	require.NoError(t, err)

	got, err := ObjectResolver(packed(s, store, nil), root, map[string]any{}, info(s, "Person", "friends"))
	require.NoError(t, err)
	conn := got.(*relay.Connection)
	require.Len(t, conn.Edges, 4)
	require.Equal(t, "model:person(1)", conn.Edges[0].Cursor)
	require.Equal(t, "model:person(4)", *conn.PageInfo.EndCursor)
	require.False(t, conn.PageInfo.HasNextPage)
	require.False(t, conn.PageInfo.HasPreviousPage)
}
