// Package events defines the payloads published on the event bus by the
// HTTP server, the query handler and the resolver wrappers.
package events

import (
	"net/http"
	"time"
)

// HTTPStart is emitted when an HTTP request is received. The publishing
// context carries the request ID.
type HTTPStart struct {
	Request *http.Request
}

// HTTPFinish is emitted after the response has been written.
type HTTPFinish struct {
	Request  *http.Request
	Status   int
	Duration time.Duration
}

// GraphQLStart is emitted once a document has been validated and before it
// executes.
type GraphQLStart struct {
	Query         string
	OperationName string
	OperationType string
}

// GraphQLFinish is emitted after execution. Errors holds the located errors
// of the result.
type GraphQLFinish struct {
	Query         string
	OperationName string
	OperationType string
	Errors        []error
	Duration      time.Duration
}
