package wrap

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hanpama/graphmock/internal/pack"
	"github.com/hanpama/graphmock/internal/resolver"
)

func base(context.Context, any, map[string]any, resolver.Info) (any, error) { return "base", nil }

func suffix(s string) Wrapper {
	return Named("suffix-"+s, func(_ context.Context, r resolver.Resolver, _ Options) (resolver.Resolver, error) {
		return func(ctx context.Context, parent any, args map[string]any, info resolver.Info) (any, error) {
			v, err := r(ctx, parent, args, info)
			if err != nil {
				return nil, err
			}
			return v.(string) + s, nil
		}, nil
	})
}

func call(t *testing.T, r resolver.Resolver) any {
	t.Helper()
	v, err := r(context.Background(), nil, nil, resolver.Info{})
	require.NoError(t, err)
	return v
}

func TestApply_NoWrappersReturnsResolver(t *testing.T) {
	got, err := Apply(context.Background(), base, nil, Options{})
	require.NoError(t, err)
	require.Equal(t, reflect.ValueOf(resolver.Resolver(base)).Pointer(), reflect.ValueOf(got).Pointer())
}

func TestApply_Order(t *testing.T) {
	got, err := Apply(context.Background(), base, []Wrapper{suffix("-a"), suffix("-b")}, Options{})
	require.NoError(t, err)
	require.Equal(t, "base-a-b", call(t, got))
	require.Equal(t, "base", call(t, base), "original resolver unchanged")
}

func TestApply_PassesOptions(t *testing.T) {
	po := pack.NewOptions()
	var seen Options
	w := Func(func(_ context.Context, r resolver.Resolver, opts Options) (resolver.Resolver, error) {
		seen = opts
		return r, nil
	})
	_, err := Apply(context.Background(), base, []Wrapper{w}, Options{Pack: po})
	require.NoError(t, err)
	require.Same(t, po, seen.Pack)
}

func TestApply_InvalidResult(t *testing.T) {
	bad := Named("forgetful", func(context.Context, resolver.Resolver, Options) (resolver.Resolver, error) {
		return nil, nil
	})
	_, err := Apply(context.Background(), base, []Wrapper{suffix("-a"), bad, suffix("-b")}, Options{})
	require.ErrorIs(t, err, ErrInvalidWrapperResult)

	var invalid *InvalidResultError
	require.True(t, errors.As(err, &invalid))
	require.Equal(t, "forgetful", invalid.Wrapper)
	require.Contains(t, err.Error(), "This wrapper did not return a function")
}

func TestApply_InvalidResultNamesFunction(t *testing.T) {
	_, err := Apply(context.Background(), base, []Wrapper{Func(returnsNothing)}, Options{})
	require.ErrorIs(t, err, ErrInvalidWrapperResult)
	require.True(t, strings.Contains(err.Error(), "wrap.returnsNothing"), err.Error())

	_, err = Apply(context.Background(), base, []Wrapper{nil}, Options{})
	require.ErrorIs(t, err, ErrInvalidWrapperResult)
}

func returnsNothing(context.Context, resolver.Resolver, Options) (resolver.Resolver, error) {
	return nil, nil
}

func TestApply_WrapperError(t *testing.T) {
	boom := errors.New("boom")
	failing := Named("failing", func(context.Context, resolver.Resolver, Options) (resolver.Resolver, error) {
		return nil, boom
	})
	_, err := Apply(context.Background(), base, []Wrapper{failing}, Options{})
	require.ErrorIs(t, err, boom)
	require.Contains(t, err.Error(), "wrapper failing")
}

func TestApply_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Apply(ctx, base, []Wrapper{suffix("-a")}, Options{})
	require.ErrorIs(t, err, context.Canceled)
}

func TestSimple(t *testing.T) {
	upper := Simple(func(r resolver.Resolver, _ Options) resolver.Resolver {
		return func(ctx context.Context, parent any, args map[string]any, info resolver.Info) (any, error) {
			v, err := r(ctx, parent, args, info)
			return strings.ToUpper(v.(string)), err
		}
	})
	got, err := Apply(context.Background(), base, []Wrapper{upper}, Options{})
	require.NoError(t, err)
	require.Equal(t, "BASE", call(t, got))
}
