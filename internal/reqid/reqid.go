package reqid

import (
	"context"

	"github.com/google/uuid"
)

// Header carries a caller-supplied request ID.
const Header = "X-Request-Id"

// key is the context key for the request ID.
type key struct{}

// NewContext returns a copy of parent with a new random request ID stored.
// It also returns the generated ID.
func NewContext(parent context.Context) (context.Context, string) {
	id := uuid.NewString()
	return WithID(parent, id), id
}

// WithID stores id in parent. An empty id is replaced by a new one.
func WithID(parent context.Context, id string) context.Context {
	if id == "" {
		ctx, _ := NewContext(parent)
		return ctx
	}
	return context.WithValue(parent, key{}, id)
}

// FromContext extracts the request ID from ctx.
// It returns the ID and whether it was present.
func FromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(key{}).(string)
	return id, ok
}
