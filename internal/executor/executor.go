package executor

import (
	"context"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	language "github.com/hanpama/graphmock/internal/language"
	schema "github.com/hanpama/graphmock/internal/schema"
)

type Path []PathElement

type PathElement any

// String renders the path in dotted notation, e.g. users.[0].name.
func (p Path) String() string {
	var b strings.Builder
	for i, elem := range p {
		if i > 0 {
			b.WriteByte('.')
		}
		switch v := elem.(type) {
		case string:
			b.WriteString(v)
		case int:
			b.WriteString("[" + strconv.Itoa(v) + "]")
		}
	}
	return b.String()
}

// executionState holds the state during query execution
type executionState struct {
	runtime        Runtime
	schema         *schema.Schema
	document       *language.QueryDocument
	variableValues map[string]any
	context        context.Context
	asyncTaskGroup []asyncTask
	errors         []GraphQLError
	// prefixes of paths that have been nullified (tombstoned)
	nullifiedPrefix map[string]struct{}
	// response positions whose type is Non-Null, keyed by Path.String
	nonNull map[string]bool
	// set when null propagation reaches the response root
	dataNull bool
	// resolve the next flush one task at a time (root mutation fields)
	serial bool
}

// asyncTask represents a pending async field resolution
type asyncTask struct {
	Task   FieldTask
	Fields []*language.Field
}

type asyncPending struct{}

type Executor struct {
	runtime Runtime
	schema  *schema.Schema
}

func NewExecutor(runtime Runtime, schema *schema.Schema) *Executor {
	return &Executor{runtime: runtime, schema: schema}
}

func (e *Executor) ExecuteRequest(
	ctx context.Context,
	document *language.QueryDocument,
	operationName string,
	variableValues map[string]any,
	initialValue any,
) *ExecutionResult {
	operation, err := getOperation(document, operationName)
	if err != nil {
		return ErrorResult(err.Error())
	}

	if e.schema.AST != nil && variablesValidated(operation) {
		validated, err := language.VariableValues(e.schema.AST, operation, variableValues)
		if err != nil {
			return ErrorResult(err.Error())
		}
		variableValues = validated
	}
	coercedVariableValues, err := coerceVariableValues(e.schema, operation, variableValues)
	if err != nil {
		return ErrorResult(err.Error())
	}

	var rootType *schema.Type
	switch operation.Operation {
	case language.Query:
		rootType = e.schema.GetQueryType()
	case language.Mutation:
		rootType = e.schema.GetMutationType()
	case language.Subscription:
		rootType = e.schema.GetSubscriptionType()
	default:
		return ErrorResult(fmt.Sprintf("unsupported operation type: %s", operation.Operation))
	}
	if rootType == nil {
		return ErrorResult(fmt.Sprintf("root type not found for %s operation", operation.Operation))
	}

	state := &executionState{
		runtime:         e.runtime,
		schema:          e.schema,
		document:        document,
		variableValues:  coercedVariableValues,
		context:         ctx,
		errors:          []GraphQLError{},
		nullifiedPrefix: make(map[string]struct{}),
		nonNull:         make(map[string]bool),
		serial:          operation.Operation == language.Mutation,
	}

	// Root selection set: sync immediate expansion, async queued
	responseRoot := executeSelectionSet(state, rootType, operation.SelectionSet, initialValue, Path{})
	state.serial = state.serial && len(state.asyncTaskGroup) > 0

	// Depth-wise batch loop
	for len(state.asyncTaskGroup) > 0 && !state.dataNull {
		if err := ctx.Err(); err != nil {
			for _, at := range state.asyncTaskGroup {
				if !state.hasNullifiedPrefix(at.Task.Path) {
					completeAsyncField(state, at, ResolveResult{Error: err}, responseRoot)
				}
			}
			state.asyncTaskGroup = nil
			break
		}
		filtered, results := flushAsyncTasks(state)
		for i, r := range results {
			completeAsyncField(state, filtered[i], r, responseRoot)
		}
	}

	if state.dataNull || responseRoot == nil {
		return &ExecutionResult{Data: nil, Errors: state.errors}
	}
	return &ExecutionResult{Data: responseRoot, Errors: state.errors}
}

// executeSelectionSet executes a selection set without flushing. It returns
// nil when a Non-Null field of the object completed to null.
func executeSelectionSet(state *executionState, objectType *schema.Type, selectionSet language.SelectionSet, objectValue any, path Path) map[string]any {
	groupedFields := collectFields(state, objectType, selectionSet)
	resultMap := make(map[string]any)

	for _, collectedField := range groupedFields.orderedFields() {
		responseName := collectedField.ResponseName
		fields := collectedField.Fields
		fieldPath := appendPath(path, responseName)

		if fields[0].Name == "__typename" {
			resultMap[responseName] = objectType.Name
			continue
		}

		fieldDef := objectType.GetField(fields[0].Name)
		if fieldDef == nil {
			state.addError(fmt.Sprintf("Cannot query field %q on type %q.", fields[0].Name, objectType.Name), fieldPath)
			continue
		}
		if schema.IsNonNull(fieldDef.Type) {
			state.nonNull[fieldPath.String()] = true
		}

		fieldResult := executeField(state, objectType, objectValue, fieldDef, fields, fieldPath)
		if _, pending := fieldResult.(asyncPending); pending {
			resultMap[responseName] = fieldResult
			continue
		}

		if schema.IsNonNull(fieldDef.Type) && isNullish(fieldResult) {
			if len(path) == 0 {
				state.dataNull = true
				return nil
			}
			// Drop async work queued under this object.
			state.markNullifiedPrefix(path)
			return nil
		}

		// For nullable fields, coerce typed-nil to interface-nil
		if isNullish(fieldResult) {
			resultMap[responseName] = nil
		} else {
			resultMap[responseName] = fieldResult
		}
	}

	return resultMap
}

func executeField(state *executionState, objectType *schema.Type, objectValue any, fieldDef *schema.Field, fields []*language.Field, path Path) any {
	argumentValues, err := coerceArgumentValues(fieldDef, fields[0].Arguments, state.variableValues, state.schema)
	if err != nil {
		state.addError(err.Error(), path)
		return nil
	}

	task := FieldTask{
		ObjectType: objectType.Name,
		Field:      fieldDef.Name,
		Source:     objectValue,
		Args:       argumentValues,
		Path:       path,
		ReturnType: fieldDef.Type,
	}
	if fieldDef.Async {
		state.asyncTaskGroup = append(state.asyncTaskGroup, asyncTask{Task: task, Fields: fields})
		return asyncPending{}
	}

	resolvedValue, err := state.runtime.ResolveSync(state.context, task)
	if err != nil {
		state.addError(err.Error(), path)
		return nil
	}
	return completeValue(state, fieldDef.Type, fields, resolvedValue, path)
}

// flushAsyncTasks flushes tasks and returns results (filtered by tombstones)
func flushAsyncTasks(state *executionState) ([]asyncTask, []ResolveResult) {
	filtered := make([]asyncTask, 0, len(state.asyncTaskGroup))
	for _, at := range state.asyncTaskGroup {
		if state.hasNullifiedPrefix(at.Task.Path) {
			continue
		}
		filtered = append(filtered, at)
	}
	state.asyncTaskGroup = nil
	if len(filtered) == 0 {
		return nil, nil
	}

	tasks := make([]FieldTask, len(filtered))
	for i, at := range filtered {
		tasks[i] = at.Task
	}

	var results []ResolveResult
	if state.serial {
		state.serial = false
		for _, t := range tasks {
			results = append(results, resolveOne(state, t))
		}
	} else {
		results = state.runtime.BatchResolveAsync(state.context, tasks)
	}
	if len(results) != len(tasks) {
		fixed := make([]ResolveResult, len(tasks))
		for i := range fixed {
			if i < len(results) {
				fixed[i] = results[i]
			} else {
				fixed[i] = ResolveResult{Error: fmt.Errorf("runtime returned %d results for %d tasks", len(results), len(tasks))}
			}
		}
		results = fixed
	}
	return filtered, results
}

func resolveOne(state *executionState, task FieldTask) ResolveResult {
	res := state.runtime.BatchResolveAsync(state.context, []FieldTask{task})
	if len(res) != 1 {
		return ResolveResult{Error: fmt.Errorf("runtime returned %d results for 1 task", len(res))}
	}
	return res[0]
}

// completeAsyncField completes a single async result, with non-null propagation and pruning
func completeAsyncField(state *executionState, at asyncTask, res ResolveResult, responseRoot map[string]any) {
	path := at.Task.Path
	// An ancestor was nullified after this task was flushed.
	if state.hasNullifiedPrefix(path) || state.dataNull {
		return
	}

	var completed any
	if res.Error != nil {
		state.addError(res.Error.Error(), path)
	} else {
		completed = completeValue(state, at.Task.ReturnType, at.Fields, res.Value, path)
	}

	if isNullish(completed) {
		if schema.IsNonNull(at.Task.ReturnType) {
			propagateNull(state, path, responseRoot)
			return
		}
		setValueAtPath(responseRoot, path, nil)
		return
	}
	setValueAtPath(responseRoot, path, completed)
}

// propagateNull nulls the nearest nullable ancestor of the Non-Null position
// at path and tombstones it.
func propagateNull(state *executionState, path Path, responseRoot map[string]any) {
	cur := path[:len(path)-1]
	for len(cur) > 0 && state.nonNull[cur.String()] {
		cur = cur[:len(cur)-1]
	}
	if len(cur) == 0 {
		state.dataNull = true
		return
	}
	setValueAtPath(responseRoot, cur, nil)
	state.markNullifiedPrefix(cur)
}

// completeValue completes a value
func completeValue(state *executionState, fieldType *schema.TypeRef, fields []*language.Field, result any, path Path) any {
	if schema.IsNonNull(fieldType) {
		if isNullish(result) {
			if !state.hasErrorAtPath(path) {
				state.addError(fmt.Sprintf("Cannot return null for non-nullable field %s", path), path)
			}
			return nil
		}
		return completeValue(state, schema.Unwrap(fieldType), fields, result, path)
	}

	if isNullish(result) {
		return nil
	}

	if schema.IsList(fieldType) {
		return completeListValue(state, fieldType, fields, result, path)
	}
	namedType := schema.GetNamedType(fieldType)
	typeObj := state.schema.Types[namedType]
	if typeObj == nil {
		state.addError(fmt.Sprintf("Unknown type: %s", namedType), path)
		return nil
	}

	switch typeObj.Kind {
	case schema.TypeKindScalar, schema.TypeKindEnum:
		serialized, err := state.runtime.SerializeLeafValue(state.context, namedType, result)
		if err != nil {
			state.addError(err.Error(), path)
			return nil
		}
		return serialized
	case schema.TypeKindObject:
		return completeObjectValue(state, typeObj, fields, result, path)
	case schema.TypeKindInterface, schema.TypeKindUnion:
		return completeAbstractValue(state, typeObj, fields, result, path)
	default:
		state.addError(fmt.Sprintf("Cannot complete value of unexpected type: %s", typeObj.Kind), path)
		return nil
	}
}

// completeListValue completes a list value
func completeListValue(state *executionState, listType *schema.TypeRef, fields []*language.Field, result any, path Path) any {
	var items []any
	if direct, ok := result.([]any); ok {
		items = direct
	} else {
		rv := reflect.ValueOf(result)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			state.addError(fmt.Sprintf("Expected list value, got %T", result), path)
			return nil
		}
		items = make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			items[i] = rv.Index(i).Interface()
		}
	}

	inner := schema.Unwrap(listType)
	completed := make([]any, len(items))
	for i, item := range items {
		p := appendPath(path, i)
		if schema.IsNonNull(inner) {
			state.nonNull[p.String()] = true
		}
		v := completeValue(state, inner, fields, item, p)
		if schema.IsNonNull(inner) && isNullish(v) {
			// Error already recorded by inner completion.
			state.markNullifiedPrefix(path)
			return nil
		}
		if isNullish(v) {
			v = nil
		}
		completed[i] = v
	}
	return completed
}

func completeObjectValue(state *executionState, objectType *schema.Type, fields []*language.Field, result any, path Path) any {
	sub := mergeSelectionSets(fields)
	m := executeSelectionSet(state, objectType, sub, result, path)
	if m == nil {
		return nil
	}
	return m
}

func completeAbstractValue(state *executionState, abstractType *schema.Type, fields []*language.Field, result any, path Path) any {
	typeName, err := state.runtime.ResolveType(state.context, abstractType.Name, result)
	if err != nil {
		state.addError(err.Error(), path)
		return nil
	}
	objectType := state.schema.Types[typeName]
	if objectType == nil || objectType.Kind != schema.TypeKindObject {
		state.addError(fmt.Sprintf("Abstract type %s must resolve to an Object type at runtime. Got: %s", abstractType.Name, typeName), path)
		return nil
	}
	if !possibleType(state.schema, abstractType, objectType) {
		state.addError(fmt.Sprintf("Runtime Object type %q is not a possible type for %q.", typeName, abstractType.Name), path)
		return nil
	}
	return completeObjectValue(state, objectType, fields, result, path)
}

func appendPath(path Path, elem PathElement) Path {
	newPath := make(Path, len(path)+1)
	copy(newPath, path)
	newPath[len(path)] = elem
	return newPath
}

// Prefix tombstone helpers
func (s *executionState) markNullifiedPrefix(p Path) {
	key := p.String()
	if key != "" {
		s.nullifiedPrefix[key] = struct{}{}
	}
}

func (s *executionState) hasNullifiedPrefix(p Path) bool {
	if len(s.nullifiedPrefix) == 0 {
		return false
	}
	for i := 1; i <= len(p); i++ {
		if _, ok := s.nullifiedPrefix[p[:i].String()]; ok {
			return true
		}
	}
	return false
}

// getOperation retrieves the operation from the document
func getOperation(document *language.QueryDocument, operationName string) (*language.OperationDefinition, error) {
	if document == nil || len(document.Operations) == 0 {
		return nil, fmt.Errorf("Must provide an operation.")
	}
	if operationName == "" {
		if len(document.Operations) == 1 {
			return document.Operations[0], nil
		}
		return nil, fmt.Errorf("Must provide operation name if query contains multiple operations.")
	}
	if op := document.Operations.ForName(operationName); op != nil {
		return op, nil
	}
	return nil, fmt.Errorf("Unknown operation named %q.", operationName)
}

// variablesValidated reports whether the document went through query
// validation, which attaches definitions to variable declarations.
func variablesValidated(op *language.OperationDefinition) bool {
	for _, v := range op.VariableDefinitions {
		if v.Definition == nil {
			return false
		}
	}
	return true
}

func typeRefFromAST(t *language.Type) *schema.TypeRef {
	return schema.BuildTypeRef(t)
}

func (state *executionState) addError(message string, path Path) {
	state.errors = append(state.errors, GraphQLError{Message: message, Path: path})
}

// hasErrorAtPath reports whether an error with the given path already exists.
func (state *executionState) hasErrorAtPath(path Path) bool {
	for _, err := range state.errors {
		if reflect.DeepEqual(err.Path, path) {
			return true
		}
	}
	return false
}

// setValueAtPath writes value into the response tree. Missing containers are
// left alone: they belong to nullified subtrees.
func setValueAtPath(responseRoot map[string]any, path Path, value any) {
	if len(path) == 0 {
		return
	}
	current := any(responseRoot)
	for _, elem := range path[:len(path)-1] {
		switch e := elem.(type) {
		case string:
			m, ok := current.(map[string]any)
			if !ok {
				return
			}
			current = m[e]
		case int:
			slice, ok := current.([]any)
			if !ok || e >= len(slice) {
				return
			}
			current = slice[e]
		}
	}
	switch fe := path[len(path)-1].(type) {
	case string:
		if m, ok := current.(map[string]any); ok {
			m[fe] = value
		}
	case int:
		if slice, ok := current.([]any); ok && fe < len(slice) {
			slice[fe] = value
		}
	}
}

// mergeSelectionSets merges selection sets from multiple fields
func mergeSelectionSets(fields []*language.Field) language.SelectionSet {
	var merged language.SelectionSet
	for _, f := range fields {
		merged = append(merged, f.SelectionSet...)
	}
	return merged
}

// isNullish returns true for nil interfaces and typed nils (map, slice, ptr, interface)
func isNullish(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Interface, reflect.Ptr, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}
