package introspection

import (
	"sync"

	schema "github.com/hanpama/graphmock/internal/schema"
)

var (
	preludeOnce   sync.Once
	preludeSchema *schema.Schema
)

// prelude holds the built-in scalars, directives and __ types. Hand-built
// schemas borrow them from here.
func prelude() *schema.Schema {
	preludeOnce.Do(func() {
		s, err := schema.BuildFromSDL()
		if err != nil {
			panic("introspection: build prelude: " + err.Error())
		}
		preludeSchema = s
	})
	return preludeSchema
}

// extendSchemaWithIntrospection returns a copy of original carrying the
// introspection types and the __schema and __type meta fields on the query
// type. original is not modified.
func extendSchemaWithIntrospection(original *schema.Schema) *schema.Schema {
	extended := *original
	extended.Types = make(map[string]*schema.Type, len(original.Types))
	extended.Order = append([]string(nil), original.Order...)
	for name, typ := range original.Types {
		extended.Types[name] = typ
	}
	for _, typ := range prelude().OrderedTypes() {
		if _, ok := extended.Types[typ.Name]; ok {
			continue
		}
		if typ.Builtin || typ.IsIntrospection() {
			extended.AddType(typ)
		}
	}

	extended.Directives = make(map[string]*schema.Directive, len(original.Directives))
	for name, d := range prelude().Directives {
		extended.Directives[name] = d
	}
	for name, d := range original.Directives {
		extended.Directives[name] = d
	}

	if queryType := original.GetQueryType(); queryType != nil {
		queryTypeCopy := *queryType
		queryTypeCopy.Fields = append(append([]*schema.Field(nil), queryType.Fields...),
			schema.NewField("__schema", "Access the current type schema of this server.",
				schema.NonNullType(schema.NamedType("__Schema"))),
			schema.NewField("__type", "Request the type information of a single type.",
				schema.NamedType("__Type")).
				AddArgument(schema.NewInputValue("name", "The name of the type to look up.",
					schema.NonNullType(schema.NamedType("String")))),
		)
		extended.Types[queryType.Name] = &queryTypeCopy
	}
	return &extended
}
