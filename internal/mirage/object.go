// Package mirage resolves GraphQL fields from the mock model store.
package mirage

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/hanpama/graphmock/internal/mockstore"
	"github.com/hanpama/graphmock/internal/pack"
	"github.com/hanpama/graphmock/internal/relay"
	"github.com/hanpama/graphmock/internal/resolver"
	"github.com/hanpama/graphmock/internal/schema"
)

var (
	ErrInvalidParent = errors.New("invalid parent")
	ErrMissingField  = errors.New("missing field")
)

// InvalidParentError reports a parent that is not object-shaped.
type InvalidParentError struct {
	Field string
	Type  string
	Got   string
}

func (e *InvalidParentError) Error() string {
	return fmt.Sprintf("Expected parent to be an object, got %s, when trying to resolve field %q on type %q", e.Got, e.Field, e.Type)
}

func (e *InvalidParentError) Unwrap() error { return ErrInvalidParent }

// MissingFieldError reports a non-null field that resolved to nothing.
// Mock is the mapped "Type.field" read from the parent, empty when no
// mapping applied.
type MissingFieldError struct {
	Field  string
	Type   string
	Mock   string
	Parent string
	Attrs  []string
}

func (e *MissingFieldError) Error() string {
	msg := fmt.Sprintf("Failed to resolve field %q on type %q.", e.Field, e.Type)
	if e.Mock != "" {
		msg += fmt.Sprintf(" Mapped to mock field %q.", e.Mock)
	}
	return msg + fmt.Sprintf(" Tried to resolve the parent object %s, with the following attrs: %s",
		e.Parent, strings.Join(e.Attrs, ", "))
}

func (e *MissingFieldError) Unwrap() error { return ErrMissingField }

// ObjectResolver resolves info.FieldName off the parent, taking the field
// mapper from the pack options bound to ctx.
func ObjectResolver(ctx context.Context, parent any, args map[string]any, info resolver.Info) (any, error) {
	var mapper *mockstore.Mapper
	if o, ok := pack.FromContext(ctx); ok {
		mapper = o.Dependencies.Mapper
	}
	return resolve(parent, args, info, mapper)
}

// FieldResolver returns a resolver bound to an explicit mapper, for use
// without pack options in the context.
func FieldResolver(mapper *mockstore.Mapper) resolver.Resolver {
	return func(_ context.Context, parent any, args map[string]any, info resolver.Info) (any, error) {
		return resolve(parent, args, info, mapper)
	}
}

func resolve(parent any, args map[string]any, info resolver.Info, mapper *mockstore.Mapper) (any, error) {
	typeName := ""
	if info.ParentType != nil {
		typeName = info.ParentType.Name
	}
	if !objectShaped(parent) {
		return nil, &InvalidParentError{Field: info.FieldName, Type: typeName, Got: kindOf(parent)}
	}

	// The parent is already a model, so only the field half of a mapping
	// changes what is read; the mock type is kept for error reports.
	mockType, field := mapper.Resolve(typeName, info.FieldName)
	mock := ""
	if mockType != typeName || field != info.FieldName {
		mock = mockType + "." + field
	}

	v, err := resolver.Property(parent, field)
	if err != nil {
		return nil, err
	}

	if isNil(v) {
		if schema.IsNonNull(info.ReturnType) {
			return nil, &MissingFieldError{
				Field:  info.FieldName,
				Type:   typeName,
				Mock:   mock,
				Parent: identity(parent),
				Attrs:  attrNames(parent),
			}
		}
		return nil, nil
	}

	if info.Schema != nil && info.Schema.IsConnectionType(schema.GetNamedType(info.ReturnType)) {
		if nodes, ok := relay.Nodes(v); ok {
			pa, err := relay.ParseArgs(args)
			if err != nil {
				return nil, err
			}
			return relay.Paginate(nodes, pa, CursorForModel)
		}
	}
	return v, nil
}

// CursorForModel uses the model identity key as relay cursor.
func CursorForModel(node any) string {
	if m, ok := node.(*mockstore.Model); ok {
		return m.Key()
	}
	return fmt.Sprint(node)
}

func objectShaped(v any) bool {
	switch v.(type) {
	case *mockstore.Model, map[string]any, resolver.FieldGetter:
		return true
	case nil:
		return false
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return false
		}
		rv = rv.Elem()
	}
	return rv.Kind() == reflect.Struct || rv.Kind() == reflect.Map
}

func kindOf(v any) string {
	if v == nil {
		return "null"
	}
	return reflect.TypeOf(v).Kind().String()
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

func identity(parent any) string {
	if m, ok := parent.(*mockstore.Model); ok {
		return m.Key()
	}
	return fmt.Sprintf("%T", parent)
}

func attrNames(parent any) []string {
	switch p := parent.(type) {
	case *mockstore.Model:
		return p.AttrNames()
	case map[string]any:
		names := make([]string, 0, len(p))
		for k := range p {
			names = append(names, k)
		}
		sort.Strings(names)
		return names
	}
	return nil
}
