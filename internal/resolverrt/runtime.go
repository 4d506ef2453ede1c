// Package resolverrt executes queries against a resolver map.
package resolverrt

import (
	"context"
	"encoding/base64"
	"fmt"
	"reflect"

	"golang.org/x/sync/errgroup"

	"github.com/hanpama/graphmock/internal/executor"
	"github.com/hanpama/graphmock/internal/resolver"
	"github.com/hanpama/graphmock/internal/schema"
)

// DefaultConcurrency bounds the resolvers of one batch running at once.
const DefaultConcurrency = 16

// Runtime implements executor.Runtime over a resolver map.
//   - Fields without a resolver fall back to resolver.DefaultFieldResolver.
//   - Abstract types are resolved by the reserved __resolveType entry; maps
//     carrying a "__typename" key resolve without one.
//   - BatchResolveAsync runs the tasks of one batch concurrently. Results
//     preserve input ordering.
//   - A panicking resolver fails its own field only.
type Runtime struct {
	schema    *schema.Schema
	resolvers resolver.Map
	limit     int
}

var _ executor.Runtime = (*Runtime)(nil)

type Option func(*Runtime)

// WithConcurrency bounds concurrent resolvers per batch. n <= 0 removes the
// bound.
func WithConcurrency(n int) Option {
	return func(r *Runtime) { r.limit = n }
}

func New(sch *schema.Schema, resolvers resolver.Map, opts ...Option) *Runtime {
	r := &Runtime{schema: sch, resolvers: resolvers, limit: DefaultConcurrency}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Runtime) ResolveSync(ctx context.Context, task executor.FieldTask) (any, error) {
	return r.call(ctx, task)
}

func (r *Runtime) BatchResolveAsync(ctx context.Context, tasks []executor.FieldTask) []executor.ResolveResult {
	results := make([]executor.ResolveResult, len(tasks))
	if len(tasks) == 1 {
		v, err := r.call(ctx, tasks[0])
		results[0] = executor.ResolveResult{Value: v, Error: err}
		return results
	}

	var g errgroup.Group
	if r.limit > 0 {
		g.SetLimit(r.limit)
	}
	for i := range tasks {
		i := i
		g.Go(func() error {
			v, err := r.call(ctx, tasks[i])
			results[i] = executor.ResolveResult{Value: v, Error: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (r *Runtime) call(ctx context.Context, task executor.FieldTask) (value any, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fn := r.resolvers.Get(task.ObjectType, task.Field)
	if fn == nil {
		fn = resolver.DefaultFieldResolver
	}
	defer func() {
		if p := recover(); p != nil {
			value, err = nil, fmt.Errorf("resolver %s.%s panicked: %v", task.ObjectType, task.Field, p)
		}
	}()
	info := resolver.Info{
		ParentType: r.schema.GetType(task.ObjectType),
		FieldName:  task.Field,
		ReturnType: task.ReturnType,
		Path:       pathOf(task.Path),
		Schema:     r.schema,
	}
	return fn(ctx, task.Source, task.Args, info)
}

func (r *Runtime) ResolveType(ctx context.Context, abstractType string, value any) (string, error) {
	fn := r.resolvers.Get(abstractType, resolver.ResolveTypeField)
	if fn == nil {
		if m, ok := value.(map[string]any); ok {
			if name, ok := m["__typename"].(string); ok && name != "" {
				return name, nil
			}
		}
		return "", fmt.Errorf("no %s resolver for abstract type %s", resolver.ResolveTypeField, abstractType)
	}
	out, err := fn(ctx, value, nil, resolver.Info{
		ParentType: r.schema.GetType(abstractType),
		FieldName:  resolver.ResolveTypeField,
		Schema:     r.schema,
	})
	if err != nil {
		return "", err
	}
	switch v := out.(type) {
	case string:
		return v, nil
	case *schema.Type:
		return v.Name, nil
	}
	return "", fmt.Errorf("%s of %s returned %T, want a type name", resolver.ResolveTypeField, abstractType, out)
}

// SerializeLeafValue dereferences pointers and encodes byte slices as
// base64. Built-in scalars are coerced to their output form, so an int
// model id serializes as an ID string. Enum values must name a declared
// value. Custom scalars pass through.
func (r *Runtime) SerializeLeafValue(ctx context.Context, scalarOrEnumTypeName string, value any) (any, error) {
	value = deref(value)
	if b, ok := value.([]byte); ok {
		value = base64.StdEncoding.EncodeToString(b)
	}
	if value == nil {
		return nil, nil
	}
	if out, ok, err := serializeBuiltin(scalarOrEnumTypeName, value); ok {
		return out, err
	}
	t := r.schema.GetType(scalarOrEnumTypeName)
	if value == nil || t == nil || t.Kind != schema.TypeKindEnum {
		return value, nil
	}
	name := fmt.Sprint(value)
	for _, ev := range t.EnumValues {
		if ev.Name == name {
			return name, nil
		}
	}
	return nil, fmt.Errorf("enum %q cannot represent value: %v", t.Name, value)
}

func deref(v any) any {
	rv := reflect.ValueOf(v)
	for rv.IsValid() && rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return nil
	}
	return rv.Interface()
}

func pathOf(p executor.Path) []any {
	out := make([]any, len(p))
	for i, el := range p {
		out[i] = el
	}
	return out
}
