package executor

import (
	"context"

	schema "github.com/hanpama/graphmock/internal/schema"
)

// Runtime is the host integration surface for field resolution, batching,
// abstract type resolution, and leaf-value serialization used by the Executor.
//
// General contract
//   - The Executor performs a breadth-first execution. At each depth it drains all
//     synchronous fields first via ResolveSync, then calls BatchResolveAsync ONCE
//     with all async tasks collected at that depth. The next depth does not begin
//     until BatchResolveAsync returns and those results are completed.
//   - ResolveSync is never invoked for fields marked async, and
//     BatchResolveAsync is only invoked when there is at least one async field
//     at the current depth.
//   - Errors returned from any method are converted into located GraphQL errors.
//     If the field's return type is Non-Null, the Executor propagates the null
//     up to the nearest nullable ancestor.
//   - Implementations must be safe for concurrent use by different operations
//     and must not mutate source or args values.
//
// Abstract types and leaf values
//   - ResolveType must return the concrete type name for interface/union values.
//   - SerializeLeafValue must coerce scalars and enums into JSON-safe Go values.
//     For enums, return the enum name as string.
//
// Partial success and determinism
//   - BatchResolveAsync must return one ResolveResult per task, in task order.
//     Each result is independent; failures in one do not affect others.
//
// Cancellation
//   - Tasks under response paths nullified by a Non-Null violation are filtered
//     out before BatchResolveAsync is called. Beyond that, implementations only
//     need to respect ctx.
type Runtime interface {
	// ResolveSync resolves a synchronous field value immediately. Return
	// (nil, nil) to produce a GraphQL null for nullable fields.
	ResolveSync(ctx context.Context, task FieldTask) (any, error)

	// BatchResolveAsync resolves one execution depth of async field tasks.
	// Return len(results) == len(tasks), results[i] corresponding to tasks[i].
	BatchResolveAsync(ctx context.Context, tasks []FieldTask) []ResolveResult

	// ResolveType determines the concrete type name for a value of an
	// interface or union. The name must be a possible type of abstractType.
	ResolveType(ctx context.Context, abstractType string, value any) (string, error)

	// SerializeLeafValue serializes a scalar or enum value to a JSON-safe Go
	// value.
	SerializeLeafValue(ctx context.Context, scalarOrEnumTypeName string, value any) (any, error)
}

// FieldTask describes one field resolution.
type FieldTask struct {
	// ObjectType is the parent GraphQL object type name for the field.
	ObjectType string
	// Field is the GraphQL field name to resolve.
	Field string
	// Source is the parent object value (the root value for root fields).
	Source any
	// Args are the field arguments, coerced to Go values per the schema.
	Args map[string]any
	// Path is the response path of the field.
	Path Path
	// ReturnType is the declared return type of the field.
	ReturnType *schema.TypeRef
}

type ResolveResult struct {
	// Value is the resolved raw value prior to completion, or nil on error.
	Value any
	// Error contains a failure specific to this element.
	Error error
}
