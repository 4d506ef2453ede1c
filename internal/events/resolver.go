package events

import "time"

// ResolverStart is emitted before a wrapped resolver runs.
type ResolverStart struct {
	Type  string
	Field string
	Path  []any
}

// ResolverFinish is emitted after a wrapped resolver returns.
type ResolverFinish struct {
	Type     string
	Field    string
	Path     []any
	Err      error
	Duration time.Duration
}

// PackFinish is emitted once a resolver map has been packed. ID is empty
// when packing failed.
type PackFinish struct {
	ID        string
	Resolvers int
	Err       error
	Start     time.Time
	Duration  time.Duration
}
