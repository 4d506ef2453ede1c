// Package wrap composes a resolver with an ordered list of wrappers.
package wrap

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"strings"

	"github.com/hanpama/graphmock/internal/pack"
	"github.com/hanpama/graphmock/internal/resolver"
	"github.com/hanpama/graphmock/internal/schema"
)

var ErrInvalidWrapperResult = errors.New("invalid wrapper result")

// Options describe the field a resolver is being wrapped for.
type Options struct {
	Type      *schema.Type
	Field     *schema.Field
	Resolvers resolver.Map
	Pack      *pack.Options
}

// Wrapper produces a new resolver from an existing one.
type Wrapper interface {
	Wrap(ctx context.Context, r resolver.Resolver, opts Options) (resolver.Resolver, error)
}

// Func adapts a function to Wrapper.
type Func func(ctx context.Context, r resolver.Resolver, opts Options) (resolver.Resolver, error)

func (f Func) Wrap(ctx context.Context, r resolver.Resolver, opts Options) (resolver.Resolver, error) {
	return f(ctx, r, opts)
}

// Simple adapts a wrapper that cannot fail.
func Simple(fn func(r resolver.Resolver, opts Options) resolver.Resolver) Wrapper {
	return named{name: funcName(fn), fn: func(_ context.Context, r resolver.Resolver, opts Options) (resolver.Resolver, error) {
		return fn(r, opts), nil
	}}
}

type named struct {
	name string
	fn   Func
}

func (n named) Wrap(ctx context.Context, r resolver.Resolver, opts Options) (resolver.Resolver, error) {
	return n.fn(ctx, r, opts)
}

func (n named) String() string { return n.name }

// Named attaches a name used in error reports.
func Named(name string, fn Func) Wrapper { return named{name: name, fn: fn} }

// InvalidResultError reports a wrapper that returned no resolver.
type InvalidResultError struct {
	Wrapper string
	Got     string
}

func (e *InvalidResultError) Error() string {
	return fmt.Sprintf("Wrapper: %s\n\nThis wrapper did not return a function, got %s.", e.Wrapper, e.Got)
}

func (e *InvalidResultError) Unwrap() error { return ErrInvalidWrapperResult }

// Apply folds wrappers over r in list order. Every step must produce a
// resolver; the first one that does not stops the fold with an
// *InvalidResultError. Apply(r, nil) returns r.
func Apply(ctx context.Context, r resolver.Resolver, wrappers []Wrapper, opts Options) (resolver.Resolver, error) {
	current := r
	for _, w := range wrappers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if f, ok := w.(Func); w == nil || ok && f == nil {
			return nil, &InvalidResultError{Wrapper: "<nil>", Got: "nil wrapper"}
		}
		next, err := w.Wrap(ctx, current, opts)
		if err != nil {
			return nil, fmt.Errorf("wrapper %s: %w", Name(w), err)
		}
		if next == nil {
			return nil, &InvalidResultError{Wrapper: Name(w), Got: fmt.Sprintf("nil %T", next)}
		}
		current = next
	}
	return current, nil
}

// Name returns the wrapper's String form, or the symbol of its function.
func Name(w Wrapper) string {
	if s, ok := w.(fmt.Stringer); ok {
		return s.String()
	}
	if f, ok := w.(Func); ok {
		return funcName(f)
	}
	return fmt.Sprintf("%T", w)
}

func funcName(fn any) string {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return fmt.Sprintf("%T", fn)
	}
	f := runtime.FuncForPC(v.Pointer())
	if f == nil {
		return fmt.Sprintf("%T", fn)
	}
	name := f.Name()
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return name
}
