package introspection

import (
	"context"
	"sort"
	"strings"

	executor "github.com/hanpama/graphmock/internal/executor"
	schema "github.com/hanpama/graphmock/internal/schema"
)

// IntrospectionWrapper holds both the runtime and extended schema
type IntrospectionWrapper struct {
	Runtime executor.Runtime
	Schema  *schema.Schema
}

// Wrap returns a Runtime that answers introspection fields and delegates the
// rest to base. Execute against the returned Schema, which carries the
// introspection types.
func Wrap(base executor.Runtime, sch *schema.Schema) *IntrospectionWrapper {
	extended := extendSchemaWithIntrospection(sch)
	return &IntrospectionWrapper{
		Runtime: &runtime{base: base, schema: extended},
		Schema:  extended,
	}
}

type runtime struct {
	base   executor.Runtime
	schema *schema.Schema
}

func (r *runtime) ResolveSync(ctx context.Context, task executor.FieldTask) (any, error) {
	if v, ok := r.resolve(task); ok {
		return v, nil
	}
	return r.base.ResolveSync(ctx, task)
}

// BatchResolveAsync answers introspection tasks in place. Introspection
// fields with arguments (fields, enumValues, ...) are queued like any other
// async field, so batches may mix them with application tasks.
func (r *runtime) BatchResolveAsync(ctx context.Context, tasks []executor.FieldTask) []executor.ResolveResult {
	results := make([]executor.ResolveResult, len(tasks))
	var rest []executor.FieldTask
	var restIdx []int
	for i, task := range tasks {
		if v, ok := r.resolve(task); ok {
			results[i] = executor.ResolveResult{Value: v}
			continue
		}
		rest = append(rest, task)
		restIdx = append(restIdx, i)
	}
	if len(rest) == 0 {
		return results
	}
	if len(rest) == len(tasks) {
		return r.base.BatchResolveAsync(ctx, tasks)
	}
	for j, res := range r.base.BatchResolveAsync(ctx, rest) {
		if j < len(restIdx) {
			results[restIdx[j]] = res
		}
	}
	return results
}

func (r *runtime) ResolveType(ctx context.Context, abstractType string, value any) (string, error) {
	return r.base.ResolveType(ctx, abstractType, value)
}

func (r *runtime) SerializeLeafValue(ctx context.Context, typ string, value any) (any, error) {
	if strings.HasPrefix(typ, "__") {
		return value, nil
	}
	return r.base.SerializeLeafValue(ctx, typ, value)
}

func (r *runtime) resolve(task executor.FieldTask) (any, bool) {
	switch src := task.Source.(type) {
	case *schema.Schema:
		return resolveSchemaField(src, task.Field)
	case *schema.Type:
		return resolveTypeField(r.schema, src, task.Field, task.Args)
	case *schema.TypeRef:
		return resolveTypeRefField(r.schema, src, task.Field, task.Args)
	case *schema.Field:
		return resolveFieldField(src, task.Field, task.Args)
	case *schema.InputValue:
		return resolveInputValueField(src, task.Field)
	case *schema.EnumValue:
		return resolveEnumValueField(src, task.Field)
	case *schema.Directive:
		return resolveDirectiveField(src, task.Field, task.Args)
	}

	if task.ObjectType == r.schema.QueryType {
		switch task.Field {
		case "__schema":
			return r.schema, true
		case "__type":
			return r.resolveTypeQuery(task.Args), true
		}
	}
	return nil, false
}

// --- helpers ---

func (r *runtime) resolveTypeQuery(args map[string]any) any {
	name, _ := args["name"].(string)
	if t := r.schema.GetType(name); t != nil {
		return t
	}
	return nil
}

func resolveSchemaTypes(sch *schema.Schema) []*schema.Type {
	out := make([]*schema.Type, 0, len(sch.Types))
	for _, t := range sch.Types {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func resolveSchemaDirectives(sch *schema.Schema) []*schema.Directive {
	dirs := make([]*schema.Directive, 0, len(sch.Directives))
	for _, d := range sch.Directives {
		dirs = append(dirs, d)
	}
	sort.Slice(dirs, func(i, j int) bool { return dirs[i].Name < dirs[j].Name })
	return dirs
}

// resolveTypeFields keeps declaration order and hides the __ meta fields.
func resolveTypeFields(t *schema.Type, args map[string]any) any {
	if t.Kind != schema.TypeKindObject && t.Kind != schema.TypeKindInterface {
		return nil
	}
	includeDeprecated := boolArg(args, "includeDeprecated", false)
	out := []*schema.Field{}
	for _, f := range t.GetOrderedFields() {
		if strings.HasPrefix(f.Name, "__") || !includeDeprecated && f.IsDeprecated {
			continue
		}
		out = append(out, f)
	}
	return out
}

func resolveNamedTypes(sch *schema.Schema, names []string) []*schema.Type {
	out := make([]*schema.Type, 0, len(names))
	for _, name := range names {
		if def := sch.GetType(name); def != nil {
			out = append(out, def)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func resolveTypeEnumValues(t *schema.Type, args map[string]any) any {
	if t.Kind != schema.TypeKindEnum {
		return nil
	}
	includeDeprecated := boolArg(args, "includeDeprecated", false)
	out := []*schema.EnumValue{}
	for _, ev := range t.EnumValues {
		if !includeDeprecated && ev.IsDeprecated {
			continue
		}
		out = append(out, ev)
	}
	return out
}

func resolveTypeInputFields(t *schema.Type, args map[string]any) any {
	if t.Kind != schema.TypeKindInputObject {
		return nil
	}
	return filterInputValues(t.GetOrderedInputFields(), args)
}

func filterInputValues(values []*schema.InputValue, args map[string]any) []*schema.InputValue {
	includeDeprecated := boolArg(args, "includeDeprecated", false)
	out := []*schema.InputValue{}
	for _, iv := range values {
		if !includeDeprecated && iv.IsDeprecated {
			continue
		}
		out = append(out, iv)
	}
	return out
}

func resolveSchemaField(sch *schema.Schema, field string) (any, bool) {
	switch field {
	case "types":
		return resolveSchemaTypes(sch), true
	case "queryType":
		return typeOrNil(sch.GetQueryType()), true
	case "mutationType":
		return typeOrNil(sch.GetMutationType()), true
	case "subscriptionType":
		return typeOrNil(sch.GetSubscriptionType()), true
	case "directives":
		return resolveSchemaDirectives(sch), true
	case "description":
		return optional(sch.Description), true
	}
	return nil, false
}

func resolveTypeField(sch *schema.Schema, t *schema.Type, field string, args map[string]any) (any, bool) {
	switch field {
	case "kind":
		return string(t.Kind), true
	case "name":
		return t.Name, true
	case "description":
		return optional(t.Description), true
	case "specifiedByURL":
		if t.SpecifiedByURL == nil {
			return nil, true
		}
		return *t.SpecifiedByURL, true
	case "fields":
		return resolveTypeFields(t, args), true
	case "interfaces":
		if t.Kind != schema.TypeKindObject && t.Kind != schema.TypeKindInterface {
			return nil, true
		}
		return resolveNamedTypes(sch, t.Interfaces), true
	case "possibleTypes":
		if !t.IsAbstract() {
			return nil, true
		}
		return resolveNamedTypes(sch, t.PossibleTypes), true
	case "enumValues":
		return resolveTypeEnumValues(t, args), true
	case "inputFields":
		return resolveTypeInputFields(t, args), true
	case "isOneOf":
		if t.Kind != schema.TypeKindInputObject {
			return nil, true
		}
		return t.OneOf, true
	case "ofType":
		// Wrapper types (LIST/NON_NULL) are represented as TypeRef nodes, so named types never expose ofType.
		return nil, true
	}
	return nil, false
}

// resolveTypeRefField answers __Type fields for a type reference. Named
// references are answered by the referenced type.
func resolveTypeRefField(sch *schema.Schema, tr *schema.TypeRef, field string, args map[string]any) (any, bool) {
	if tr.Kind == schema.TypeRefKindNamed {
		if def := sch.GetType(tr.Named); def != nil {
			return resolveTypeField(sch, def, field, args)
		}
		if field == "name" {
			return tr.Named, true
		}
		return nil, true
	}
	switch field {
	case "kind":
		return string(tr.Kind), true
	case "ofType":
		return tr.OfType, true
	}
	return nil, true
}

func resolveFieldField(f *schema.Field, field string, args map[string]any) (any, bool) {
	switch field {
	case "name":
		return f.Name, true
	case "description":
		return optional(f.Description), true
	case "args":
		return filterInputValues(f.GetOrderedArguments(), args), true
	case "type":
		return f.Type, true
	case "isDeprecated":
		return f.IsDeprecated, true
	case "deprecationReason":
		return deprecationReason(f.IsDeprecated, f.DeprecationReason), true
	}
	return nil, false
}

func resolveInputValueField(a *schema.InputValue, field string) (any, bool) {
	switch field {
	case "name":
		return a.Name, true
	case "description":
		return optional(a.Description), true
	case "type":
		return a.Type, true
	case "defaultValue":
		if a.DefaultValue == nil {
			return nil, true
		}
		return schema.Literal(a.DefaultValue), true
	case "isDeprecated":
		return a.IsDeprecated, true
	case "deprecationReason":
		return deprecationReason(a.IsDeprecated, a.DeprecationReason), true
	}
	return nil, false
}

func resolveEnumValueField(ev *schema.EnumValue, field string) (any, bool) {
	switch field {
	case "name":
		return ev.Name, true
	case "description":
		return optional(ev.Description), true
	case "isDeprecated":
		return ev.IsDeprecated, true
	case "deprecationReason":
		return deprecationReason(ev.IsDeprecated, ev.DeprecationReason), true
	}
	return nil, false
}

func resolveDirectiveField(d *schema.Directive, field string, args map[string]any) (any, bool) {
	switch field {
	case "name":
		return d.Name, true
	case "description":
		return optional(d.Description), true
	case "isRepeatable":
		return d.IsRepeatable, true
	case "locations":
		locs := append([]string(nil), d.Locations...)
		sort.Strings(locs)
		return locs, true
	case "args":
		return filterInputValues(d.Arguments, args), true
	}
	return nil, false
}

// typeOrNil keeps a nil *schema.Type from reaching the executor as a non-nil
// interface.
func typeOrNil(t *schema.Type) any {
	if t == nil {
		return nil
	}
	return t
}

func optional(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func deprecationReason(deprecated bool, reason string) any {
	if !deprecated {
		return nil
	}
	return reason
}

func boolArg(args map[string]any, name string, def bool) bool {
	if v, ok := args[name].(bool); ok {
		return v
	}
	return def
}
