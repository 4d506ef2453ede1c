package schema

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const peopleSDL = `
type Query {
  person: Person
  locations(first: Int = 10): [Location!]!
}

type Pet {
  name: String
}

type Location {
  city: String
  street: String
}

type Person {
  name: String
  location: Location
  pet: Pet @deprecated(reason: "use pets")
}

union Salutation = Person | Pet

interface Animal {
  name: String
}

type Dog implements Animal {
  name: String
}
`

func TestBuildFromSDL_ObjectTypesInDeclarationOrder(t *testing.T) {
	s, err := BuildFromSDL(peopleSDL)
	require.NoError(t, err)

	var got []string
	for _, typ := range s.ObjectTypes() {
		got = append(got, typ.Name)
	}
	want := []string{"Query", "Pet", "Location", "Person", "Dog"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("object types mismatch (-want +got):\n%s", diff)
	}

	var fields []string
	for _, f := range s.GetType("Person").GetOrderedFields() {
		fields = append(fields, f.Name)
	}
	require.Equal(t, []string{"name", "location", "pet"}, fields)
}

func TestBuildFromSDL_Kinds(t *testing.T) {
	s, err := BuildFromSDL(peopleSDL)
	require.NoError(t, err)

	require.Equal(t, "Query", s.QueryType)
	require.Empty(t, s.MutationType)
	require.True(t, s.IsObjectType("Person"))
	require.False(t, s.IsObjectType("Salutation"))
	require.True(t, s.IsAbstractType("Salutation"))
	require.True(t, s.IsAbstractType("Animal"))
	require.True(t, s.IsPossibleType("Salutation", "Pet"))
	require.True(t, s.IsPossibleType("Animal", "Dog"))
	require.False(t, s.IsPossibleType("Animal", "Person"))
	require.True(t, s.GetType("String").Builtin)
	require.True(t, s.GetType("__Schema").IsIntrospection())

	var abstract []string
	for _, typ := range s.AbstractTypes() {
		abstract = append(abstract, typ.Name)
	}
	require.Equal(t, []string{"Salutation", "Animal"}, abstract)
}

func TestBuildFromSDL_Fields(t *testing.T) {
	s, err := BuildFromSDL(peopleSDL)
	require.NoError(t, err)

	locations := s.Field("Query", "locations")
	require.NotNil(t, locations)
	require.True(t, locations.Async)
	require.Equal(t, "[Location!]!", locations.Type.String())
	require.Len(t, locations.Arguments, 1)
	require.Equal(t, int64(10), locations.Arguments[0].DefaultValue)

	pet := s.Field("Person", "pet")
	require.False(t, pet.Async)
	require.True(t, pet.IsDeprecated)
	require.Equal(t, "use pets", pet.DeprecationReason)

	require.Nil(t, s.Field("Person", "missing"))
	require.Nil(t, s.Field("Missing", "name"))
}

func TestBuildFromSDL_Invalid(t *testing.T) {
	_, err := BuildFromSDL(`type Query { a: Unknown }`)
	require.Error(t, err)

	_, err = BuildFromSDL(`type Query {`)
	require.Error(t, err)
}

func TestIsConnectionType(t *testing.T) {
	s, err := BuildFromSDL(`
type Query { people: PersonConnection }
type Person { name: String }
type PersonEdge { node: Person cursor: String! }
type PageInfo { hasNextPage: Boolean! hasPreviousPage: Boolean! startCursor: String endCursor: String }
type PersonConnection { edges: [PersonEdge] pageInfo: PageInfo! }
`)
	require.NoError(t, err)
	require.True(t, s.IsConnectionType("PersonConnection"))
	require.False(t, s.IsConnectionType("PersonEdge"))
	require.False(t, s.IsConnectionType("Missing"))
}

func TestLoadFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.graphql"), []byte("type Query { pet: Pet }"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nested", "b.graphql"), []byte("type Pet { name: String }"), 0o644))

	s, err := LoadFiles(filepath.Join(dir, "**", "*.graphql"))
	require.NoError(t, err)
	require.True(t, s.IsObjectType("Pet"))

	_, err = LoadFiles(filepath.Join(dir, "*.gql"))
	require.Error(t, err)
}

func TestRender(t *testing.T) {
	s, err := BuildFromSDL(peopleSDL)
	require.NoError(t, err)
	out := Render(s)
	require.Contains(t, out, "type Person {")
	require.Contains(t, out, "union Salutation = Person | Pet")
	require.NotContains(t, out, "scalar String")

	reparsed, err := BuildFromSDL(out)
	require.NoError(t, err)
	require.Len(t, reparsed.ObjectTypes(), len(s.ObjectTypes()))
}

func TestRender_HandBuilt(t *testing.T) {
	s := NewSchema("").SetQueryType("Query").
		AddType(NewType("Query", TypeKindObject, "").
			AddField(NewField("hello", "", NonNullType(NamedType("String"))).
				AddArgument(NewInputValue("name", "", NamedType("String")).SetDefault("World"))))
	out := Render(s)
	require.True(t, strings.HasPrefix(out, "type Query {"), out)
	require.Contains(t, out, `hello(name: String = "World"): String!`)
}
