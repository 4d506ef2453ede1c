// Package resolver defines field resolvers and the resolver map they are
// collected in.
package resolver

import (
	"context"
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/hanpama/graphmock/internal/schema"
)

// ResolveTypeField is the reserved field name holding the type resolver of a
// union or interface. Its resolver returns the concrete object type name.
const ResolveTypeField = "__resolveType"

// Resolver computes the value of one field.
type Resolver func(ctx context.Context, parent any, args map[string]any, info Info) (any, error)

// Info describes the field being resolved.
type Info struct {
	ParentType *schema.Type
	FieldName  string
	ReturnType *schema.TypeRef
	Path       []any
	Schema     *schema.Schema
}

// Map holds resolvers keyed by type name, then field name.
type Map map[string]map[string]Resolver

// Get returns the resolver at (typ, field) or nil.
func (m Map) Get(typ, field string) Resolver {
	if m == nil {
		return nil
	}
	return m[typ][field]
}

// Has reports whether (typ, field) holds a resolver.
func (m Map) Has(typ, field string) bool { return m.Get(typ, field) != nil }

// Set installs r at (typ, field), creating the type entry when missing.
func (m Map) Set(typ, field string, r Resolver) {
	fields := m[typ]
	if fields == nil {
		fields = make(map[string]Resolver)
		m[typ] = fields
	}
	fields[field] = r
}

// Clone copies the outer and inner maps. Resolvers are shared.
func (m Map) Clone() Map {
	out := make(Map, len(m))
	for typ, fields := range m {
		inner := make(map[string]Resolver, len(fields))
		for name, r := range fields {
			inner[name] = r
		}
		out[typ] = inner
	}
	return out
}

// Count returns the number of installed resolvers.
func (m Map) Count() int {
	n := 0
	for _, fields := range m {
		n += len(fields)
	}
	return n
}

// Value wraps a constant as a resolver.
func Value(v any) Resolver {
	return func(context.Context, any, map[string]any, Info) (any, error) { return v, nil }
}

// FieldGetter lets a parent value answer field lookups itself.
type FieldGetter interface {
	GraphQLField(name string) (any, bool)
}

// DefaultFieldResolver reads info.FieldName off the parent: a map key, a
// FieldGetter lookup, an exported struct field (name or json tag) or a
// zero-argument method. Missing fields resolve to nil.
func DefaultFieldResolver(ctx context.Context, parent any, args map[string]any, info Info) (any, error) {
	return Property(parent, info.FieldName)
}

// Property implements DefaultFieldResolver's lookup rules.
func Property(parent any, name string) (any, error) {
	switch p := parent.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		return p[name], nil
	case FieldGetter:
		v, _ := p.GraphQLField(name)
		return v, nil
	}

	rv := reflect.ValueOf(parent)
	if m := method(rv, name); m.IsValid() {
		return call(m)
	}
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, nil
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, nil
		}
		v := rv.MapIndex(reflect.ValueOf(name).Convert(rv.Type().Key()))
		if !v.IsValid() {
			return nil, nil
		}
		return v.Interface(), nil
	case reflect.Struct:
		if f, ok := structField(rv, name); ok {
			return f.Interface(), nil
		}
	}
	return nil, nil
}

func method(rv reflect.Value, name string) reflect.Value {
	if !rv.IsValid() {
		return reflect.Value{}
	}
	m := rv.MethodByName(exported(name))
	if !m.IsValid() || m.Type().NumIn() != 0 {
		return reflect.Value{}
	}
	switch m.Type().NumOut() {
	case 1:
		return m
	case 2:
		if m.Type().Out(1) == errorType {
			return m
		}
	}
	return reflect.Value{}
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

func call(m reflect.Value) (any, error) {
	out := m.Call(nil)
	if len(out) == 2 && !out[1].IsNil() {
		return nil, out[1].Interface().(error)
	}
	return out[0].Interface(), nil
}

func structField(rv reflect.Value, name string) (reflect.Value, bool) {
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}
		tag, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
		if tag == name || (tag == "" && strings.EqualFold(sf.Name, name)) {
			return rv.Field(i), true
		}
	}
	return reflect.Value{}, false
}

func exported(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return name
	}
	return string(unicode.ToUpper(r)) + name[size:]
}
