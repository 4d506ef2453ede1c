// Package relay paginates lists into relay-style connections.
package relay

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/hanpama/graphmock/internal/pack"
	"github.com/hanpama/graphmock/internal/resolver"
	"github.com/hanpama/graphmock/internal/schema"
	"github.com/hanpama/graphmock/internal/wrap"
)

var (
	ErrInvalidArgs   = errors.New("relay: invalid pagination arguments")
	ErrUnknownCursor = errors.New("relay: cursor not found")
)

// CursorForNode returns the opaque cursor of one node.
type CursorForNode func(node any) string

type Connection struct {
	Edges      []Edge   `json:"edges"`
	PageInfo   PageInfo `json:"pageInfo"`
	TotalCount int      `json:"totalCount"`
}

type Edge struct {
	Cursor string `json:"cursor"`
	Node   any    `json:"node"`
}

type PageInfo struct {
	StartCursor     *string `json:"startCursor"`
	EndCursor       *string `json:"endCursor"`
	HasPreviousPage bool    `json:"hasPreviousPage"`
	HasNextPage     bool    `json:"hasNextPage"`
}

// Args are the standard connection arguments.
type Args struct {
	First  *int
	Last   *int
	Before *string
	After  *string
}

// ParseArgs reads first/last/before/after from resolver arguments.
func ParseArgs(args map[string]any) (Args, error) {
	var a Args
	var err error
	if a.First, err = intArg(args, "first"); err != nil {
		return a, err
	}
	if a.Last, err = intArg(args, "last"); err != nil {
		return a, err
	}
	a.Before = stringArg(args, "before")
	a.After = stringArg(args, "after")
	return a, nil
}

func intArg(args map[string]any, name string) (*int, error) {
	var n int
	switch v := args[name].(type) {
	case nil:
		return nil, nil
	case int:
		n = v
	case int64:
		n = int(v)
	case float64:
		n = int(v)
	default:
		return nil, fmt.Errorf("%w: %s must be an integer, got %T", ErrInvalidArgs, name, v)
	}
	if n < 0 {
		return nil, fmt.Errorf("%w: %s must not be negative", ErrInvalidArgs, name)
	}
	return &n, nil
}

func stringArg(args map[string]any, name string) *string {
	if s, ok := args[name].(string); ok {
		return &s
	}
	return nil
}

// Paginate slices nodes by the cursors and counts in args.
func Paginate(nodes []any, args Args, cursorFor CursorForNode) (*Connection, error) {
	edges := make([]Edge, len(nodes))
	for i, n := range nodes {
		edges[i] = Edge{Cursor: cursorFor(n), Node: n}
	}
	total := len(edges)

	var info PageInfo
	if args.After != nil {
		i := indexOf(edges, *args.After)
		if i < 0 {
			return nil, fmt.Errorf("%w: after %q", ErrUnknownCursor, *args.After)
		}
		info.HasPreviousPage = true
		edges = edges[i+1:]
	}
	if args.Before != nil {
		i := indexOf(edges, *args.Before)
		if i < 0 {
			return nil, fmt.Errorf("%w: before %q", ErrUnknownCursor, *args.Before)
		}
		info.HasNextPage = true
		edges = edges[:i]
	}
	if args.First != nil && len(edges) > *args.First {
		edges = edges[:*args.First]
		info.HasNextPage = true
	}
	if args.Last != nil && len(edges) > *args.Last {
		edges = edges[len(edges)-*args.Last:]
		info.HasPreviousPage = true
	}

	if len(edges) > 0 {
		start, end := edges[0].Cursor, edges[len(edges)-1].Cursor
		info.StartCursor, info.EndCursor = &start, &end
	}
	return &Connection{Edges: edges, PageInfo: info, TotalCount: total}, nil
}

func indexOf(edges []Edge, cursor string) int {
	for i, e := range edges {
		if e.Cursor == cursor {
			return i
		}
	}
	return -1
}

// Nodes converts a slice of any element type to []any. ok is false when v is
// not a slice or array.
func Nodes(v any) ([]any, bool) {
	if nodes, ok := v.([]any); ok {
		return nodes, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// HistoryKey is the pack state key under which the cursors served for a
// field are recorded, e.g. "relay:Person.friends".
func HistoryKey(typ, field string) string { return "relay:" + typ + "." + field }

// Wrapper paginates list results of fields returning a connection type.
// Fields of other types are returned unchanged. Each page's cursors are
// appended to the session state under HistoryKey.
func Wrapper(cursorFor CursorForNode) wrap.Wrapper {
	return wrap.Named("relay", func(_ context.Context, r resolver.Resolver, opts wrap.Options) (resolver.Resolver, error) {
		if opts.Field == nil || opts.Pack == nil || opts.Pack.Dependencies.Schema == nil {
			return r, nil
		}
		if !opts.Pack.Dependencies.Schema.IsConnectionType(schema.GetNamedType(opts.Field.Type)) {
			return r, nil
		}
		key := HistoryKey(opts.Type.Name, opts.Field.Name)
		state := opts.Pack.State
		return func(ctx context.Context, parent any, args map[string]any, info resolver.Info) (any, error) {
			v, err := r(ctx, parent, args, info)
			if err != nil || v == nil {
				return v, err
			}
			nodes, ok := Nodes(v)
			if !ok {
				return v, nil
			}
			pa, err := ParseArgs(args)
			if err != nil {
				return nil, err
			}
			conn, err := Paginate(nodes, pa, cursorFor)
			if err != nil {
				return nil, err
			}
			record(state, key, conn)
			return conn, nil
		}, nil
	})
}

func record(state *pack.State, key string, conn *Connection) {
	cursors := make([]string, len(conn.Edges))
	for i, e := range conn.Edges {
		cursors[i] = e.Cursor
	}
	state.Update(key, func(v any, _ bool) any {
		history, _ := v.([][]string)
		return append(history, cursors)
	})
}
