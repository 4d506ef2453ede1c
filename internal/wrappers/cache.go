package wrappers

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/hanpama/graphmock/internal/mockstore"
	"github.com/hanpama/graphmock/internal/resolver"
	"github.com/hanpama/graphmock/internal/wrap"
)

// Cache memoizes resolver results per field in bounded LRU caches. Entries
// are keyed by the parent's identity and the field arguments. Parents
// without a stable identity are never cached. A successful mutation purges
// every cache.
type Cache struct {
	size int

	mu     sync.Mutex
	fields []*lru.Cache[string, any]
}

// NewCache returns a Cache holding up to size entries per field.
func NewCache(size int) (*Cache, error) {
	if size <= 0 {
		return nil, fmt.Errorf("cache size must be positive, got %d", size)
	}
	return &Cache{size: size}, nil
}

func (c *Cache) String() string { return "cache" }

// Wrap implements wrap.Wrapper.
func (c *Cache) Wrap(_ context.Context, r resolver.Resolver, opts wrap.Options) (resolver.Resolver, error) {
	if isMutation(opts) {
		return func(ctx context.Context, parent any, args map[string]any, info resolver.Info) (any, error) {
			v, err := r(ctx, parent, args, info)
			if err == nil {
				c.Purge()
			}
			return v, err
		}, nil
	}

	entries, err := lru.New[string, any](c.size)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.fields = append(c.fields, entries)
	c.mu.Unlock()

	return func(ctx context.Context, parent any, args map[string]any, info resolver.Info) (any, error) {
		key, ok := cacheKey(parent, args)
		if !ok {
			return r(ctx, parent, args, info)
		}
		if v, hit := entries.Get(key); hit {
			return v, nil
		}
		v, err := r(ctx, parent, args, info)
		if err == nil {
			entries.Add(key, v)
		}
		return v, err
	}, nil
}

// Purge drops every cached result.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, f := range c.fields {
		f.Purge()
	}
}

// Len returns the number of cached results across all fields.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, f := range c.fields {
		n += f.Len()
	}
	return n
}

func isMutation(opts wrap.Options) bool {
	if opts.Type == nil || opts.Pack == nil || opts.Pack.Dependencies.Schema == nil {
		return false
	}
	return opts.Pack.Dependencies.Schema.MutationType == opts.Type.Name
}

func cacheKey(parent any, args map[string]any) (string, bool) {
	var id string
	switch p := parent.(type) {
	case nil:
		id = "root"
	case *mockstore.Model:
		id = p.Key()
	case string, bool, int, int32, int64, float64:
		id = fmt.Sprintf("%T:%v", p, p)
	default:
		return "", false
	}
	if len(args) == 0 {
		return id, true
	}
	// encoding/json sorts map keys, so equal arguments encode equally.
	b, err := json.Marshal(args)
	if err != nil {
		return "", false
	}
	return id + "|" + string(b), true
}
