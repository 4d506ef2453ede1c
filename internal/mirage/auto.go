package mirage

import (
	"context"
	"errors"
	"fmt"

	"github.com/hanpama/graphmock/internal/mockstore"
	"github.com/hanpama/graphmock/internal/pack"
	"github.com/hanpama/graphmock/internal/patch"
	"github.com/hanpama/graphmock/internal/relay"
	"github.com/hanpama/graphmock/internal/resolver"
	"github.com/hanpama/graphmock/internal/schema"
)

var ErrUnresolvedType = errors.New("unable to resolve abstract type")

// skipAutoFill reports whether fields of t must come from user resolvers:
// operation root types, whatever they are named, and introspection types.
func skipAutoFill(s *schema.Schema, t *schema.Type) bool {
	switch t.Name {
	case "Query", "Mutation", "Subscription":
		return true
	}
	return s.IsRootType(t.Name) || t.IsIntrospection()
}

// FillMissingWithAutoResolvers installs a mock-backed resolver on every empty
// slot of every non-root object type. store is where relationship targets
// live; resolution reads through the parent models themselves.
func FillMissingWithAutoResolvers(store *mockstore.Store, mapper *mockstore.Mapper, s *schema.Schema) func(resolver.Map) (resolver.Map, error) {
	return func(resolvers resolver.Map) (resolver.Map, error) {
		if s == nil {
			return nil, patch.ErrNoSchema
		}
		if store == nil {
			return nil, errors.New("mirage: no mock store")
		}
		r := FieldResolver(mapper)
		for _, t := range s.ObjectTypes() {
			if skipAutoFill(s, t) {
				continue
			}
			for _, f := range t.GetOrderedFields() {
				if !resolvers.Has(t.Name, f.Name) {
					resolvers.Set(t.Name, f.Name, r)
				}
			}
		}
		return resolvers, nil
	}
}

// AutoResolvers is the auto-fill pass as a pack wrapper. Installed resolvers
// read the mapper from the pack options they are bound to.
func AutoResolvers() pack.MapWrapper {
	return patch.Each(func(_ context.Context, pc patch.Context) (resolver.Resolver, error) {
		if skipAutoFill(pc.Pack.Dependencies.Schema, pc.Type) {
			return nil, nil
		}
		return ObjectResolver, nil
	})
}

// RootQueries fills empty Query fields from the store. A field returning an
// object finds the model by its id argument, or takes the first model; a
// field returning a list or connection returns the models matching the
// remaining scalar arguments.
func RootQueries() pack.MapWrapper {
	return patch.Each(func(_ context.Context, pc patch.Context) (resolver.Resolver, error) {
		s := pc.Pack.Dependencies.Schema
		if pc.Type.Name != s.QueryType || pc.Pack.Dependencies.Store == nil {
			return nil, nil
		}
		model, list := rootModel(s, pc.Field.Type)
		if model == "" {
			return nil, nil
		}
		return rootResolver(model, list), nil
	})
}

// rootModel returns the object type a root field lists or returns.
func rootModel(s *schema.Schema, ref *schema.TypeRef) (string, bool) {
	named := schema.GetNamedType(ref)
	if s.IsConnectionType(named) {
		edges := s.Field(named, "edges")
		if edges == nil {
			return "", false
		}
		node := s.Field(schema.GetNamedType(edges.Type), "node")
		if node == nil || !s.IsObjectType(schema.GetNamedType(node.Type)) {
			return "", false
		}
		return schema.GetNamedType(node.Type), true
	}
	if !s.IsObjectType(named) {
		return "", false
	}
	return named, schema.IsList(ref)
}

var paginationArgs = map[string]bool{"first": true, "last": true, "before": true, "after": true}

func rootResolver(model string, list bool) resolver.Resolver {
	return func(ctx context.Context, _ any, args map[string]any, info resolver.Info) (any, error) {
		o, ok := pack.FromContext(ctx)
		if !ok || o.Dependencies.Store == nil {
			return nil, fmt.Errorf("resolve %s.%s: no mock store bound", parentName(info), info.FieldName)
		}
		store := o.Dependencies.Store

		if !list {
			if id, ok := args["id"]; ok && id != nil {
				m, found := store.Find(model, id)
				if !found {
					return nil, nil
				}
				return m, nil
			}
			all := store.All(model)
			if len(all) == 0 {
				return nil, nil
			}
			return all[0], nil
		}

		match := map[string]any{}
		for k, v := range args {
			if v == nil || paginationArgs[k] {
				continue
			}
			switch v.(type) {
			case map[string]any, []any:
				continue
			}
			match[k] = v
		}
		models := store.Where(model, match)
		nodes := make([]any, len(models))
		for i, m := range models {
			nodes[i] = m
		}
		if info.Schema != nil && info.Schema.IsConnectionType(schema.GetNamedType(info.ReturnType)) {
			pa, err := relay.ParseArgs(args)
			if err != nil {
				return nil, err
			}
			return relay.Paginate(nodes, pa, CursorForModel)
		}
		return nodes, nil
	}
}

func parentName(info resolver.Info) string {
	if info.ParentType == nil {
		return ""
	}
	return info.ParentType.Name
}

// ModelTypeResolver picks the possible type of abstract whose model name
// matches a model's type. Maps may name their type under "__typename".
func ModelTypeResolver(_ context.Context, value any, abstract *schema.Type, s *schema.Schema) (string, error) {
	var candidate string
	switch v := value.(type) {
	case *mockstore.Model:
		candidate = v.Type()
	case map[string]any:
		candidate, _ = v["__typename"].(string)
	case interface{ TypeName() string }:
		candidate = v.TypeName()
	}
	if candidate != "" {
		for _, name := range abstract.PossibleTypes {
			if name == candidate || mockstore.ModelName(name) == mockstore.ModelName(candidate) {
				return name, nil
			}
		}
	}
	return "", fmt.Errorf("%w %s from %T", ErrUnresolvedType, abstract.Name, value)
}

// Middleware is the standard mock-backed pass list: abstract type
// resolution, root queries, then field auto-resolution.
func Middleware() []pack.MapWrapper {
	return []pack.MapWrapper{
		patch.UnionsInterfaces(ModelTypeResolver),
		RootQueries(),
		AutoResolvers(),
	}
}
