package schema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/formatter"
)

// Render produces SDL for the user-declared part of the schema. Built-in
// scalars, directives and introspection types are omitted.
func Render(s *Schema) string {
	if s == nil {
		return ""
	}
	var b strings.Builder
	f := formatter.NewFormatter(&b, formatter.WithIndent("  "))
	if s.AST != nil {
		f.FormatSchema(s.AST)
	} else {
		f.FormatSchemaDocument(s.document())
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

// document converts a hand-built schema into a gqlparser document so both
// paths share one formatter.
func (s *Schema) document() *ast.SchemaDocument {
	doc := &ast.SchemaDocument{}
	if s.QueryType != "Query" || s.MutationType != "" && s.MutationType != "Mutation" ||
		s.SubscriptionType != "" && s.SubscriptionType != "Subscription" {
		def := &ast.SchemaDefinition{Description: s.Description}
		for op, name := range map[ast.Operation]string{
			ast.Query: s.QueryType, ast.Mutation: s.MutationType, ast.Subscription: s.SubscriptionType,
		} {
			if name != "" {
				def.OperationTypes = append(def.OperationTypes, &ast.OperationTypeDefinition{Operation: op, Type: name})
			}
		}
		sort.Slice(def.OperationTypes, func(i, j int) bool {
			return def.OperationTypes[i].Operation < def.OperationTypes[j].Operation
		})
		doc.Schema = append(doc.Schema, def)
	}
	for _, t := range s.OrderedTypes() {
		if t.Builtin || t.IsIntrospection() {
			continue
		}
		doc.Definitions = append(doc.Definitions, t.definition())
	}
	names := make([]string, 0, len(s.Directives))
	for name, d := range s.Directives {
		if isBuiltinDirective(name) {
			continue
		}
		names = append(names, d.Name)
	}
	sort.Strings(names)
	for _, name := range names {
		d := s.Directives[name]
		out := &ast.DirectiveDefinition{
			Name:         d.Name,
			Description:  d.Description,
			IsRepeatable: d.IsRepeatable,
			Arguments:    argumentDefinitions(d.Arguments),
		}
		for _, loc := range d.Locations {
			out.Locations = append(out.Locations, ast.DirectiveLocation(loc))
		}
		doc.Directives = append(doc.Directives, out)
	}
	return doc
}

func isBuiltinDirective(name string) bool {
	switch name {
	case "include", "skip", "deprecated", "specifiedBy", "oneOf", "defer":
		return true
	}
	return false
}

func (t *Type) definition() *ast.Definition {
	def := &ast.Definition{
		Name:        t.Name,
		Description: t.Description,
		Interfaces:  t.Interfaces,
	}
	switch t.Kind {
	case TypeKindObject:
		def.Kind = ast.Object
	case TypeKindInterface:
		def.Kind = ast.Interface
	case TypeKindUnion:
		def.Kind = ast.Union
		def.Types = t.PossibleTypes
	case TypeKindEnum:
		def.Kind = ast.Enum
		for _, v := range t.EnumValues {
			def.EnumValues = append(def.EnumValues, &ast.EnumValueDefinition{
				Name:        v.Name,
				Description: v.Description,
				Directives:  deprecatedDirective(v.IsDeprecated, v.DeprecationReason),
			})
		}
	case TypeKindInputObject:
		def.Kind = ast.InputObject
		if t.OneOf {
			def.Directives = append(def.Directives, &ast.Directive{Name: "oneOf"})
		}
		for _, in := range t.InputFields {
			def.Fields = append(def.Fields, &ast.FieldDefinition{
				Name:         in.Name,
				Description:  in.Description,
				Type:         astType(in.Type),
				DefaultValue: astValue(in.DefaultValue),
				Directives:   deprecatedDirective(in.IsDeprecated, in.DeprecationReason),
			})
		}
	default:
		def.Kind = ast.Scalar
		if t.SpecifiedByURL != nil {
			def.Directives = append(def.Directives, &ast.Directive{
				Name: "specifiedBy",
				Arguments: ast.ArgumentList{{
					Name:  "url",
					Value: &ast.Value{Kind: ast.StringValue, Raw: *t.SpecifiedByURL},
				}},
			})
		}
	}
	for _, f := range t.Fields {
		def.Fields = append(def.Fields, &ast.FieldDefinition{
			Name:        f.Name,
			Description: f.Description,
			Type:        astType(f.Type),
			Arguments:   argumentDefinitions(f.Arguments),
			Directives:  deprecatedDirective(f.IsDeprecated, f.DeprecationReason),
		})
	}
	return def
}

func argumentDefinitions(args []*InputValue) ast.ArgumentDefinitionList {
	var out ast.ArgumentDefinitionList
	for _, a := range args {
		out = append(out, &ast.ArgumentDefinition{
			Name:         a.Name,
			Description:  a.Description,
			Type:         astType(a.Type),
			DefaultValue: astValue(a.DefaultValue),
			Directives:   deprecatedDirective(a.IsDeprecated, a.DeprecationReason),
		})
	}
	return out
}

func deprecatedDirective(deprecated bool, reason string) ast.DirectiveList {
	if !deprecated {
		return nil
	}
	d := &ast.Directive{Name: "deprecated"}
	if reason != "" {
		d.Arguments = ast.ArgumentList{{
			Name:  "reason",
			Value: &ast.Value{Kind: ast.StringValue, Raw: reason},
		}}
	}
	return ast.DirectiveList{d}
}

func astType(t *TypeRef) *ast.Type {
	switch {
	case t == nil:
		return nil
	case t.Kind == TypeRefKindNonNull:
		inner := astType(t.OfType)
		inner.NonNull = true
		return inner
	case t.Kind == TypeRefKindList:
		return ast.ListType(astType(t.OfType), nil)
	default:
		return ast.NamedType(t.Named, nil)
	}
}

// astValue renders a Go default value as a literal. Strings that look like
// enum names are still quoted; enum defaults come back from the AST path.
func astValue(v any) *ast.Value {
	switch v := v.(type) {
	case nil:
		return nil
	case string:
		return &ast.Value{Kind: ast.StringValue, Raw: v}
	case bool:
		return &ast.Value{Kind: ast.BooleanValue, Raw: fmt.Sprint(v)}
	case int, int32, int64:
		return &ast.Value{Kind: ast.IntValue, Raw: fmt.Sprint(v)}
	case float32, float64:
		return &ast.Value{Kind: ast.FloatValue, Raw: fmt.Sprint(v)}
	case []any:
		out := &ast.Value{Kind: ast.ListValue}
		for _, item := range v {
			out.Children = append(out.Children, &ast.ChildValue{Value: astValue(item)})
		}
		return out
	case map[string]any:
		out := &ast.Value{Kind: ast.ObjectValue}
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			out.Children = append(out.Children, &ast.ChildValue{Name: k, Value: astValue(v[k])})
		}
		return out
	default:
		return &ast.Value{Kind: ast.EnumValue, Raw: fmt.Sprint(v)}
	}
}

// Literal renders v as a GraphQL input literal, the form introspection uses
// for default values.
func Literal(v any) string {
	if v == nil {
		return "null"
	}
	return astValue(v).String()
}
