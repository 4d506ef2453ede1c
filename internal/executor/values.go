package executor

import (
	"fmt"
	"math"
	"reflect"
	"strconv"

	language "github.com/hanpama/graphmock/internal/language"
	schema "github.com/hanpama/graphmock/internal/schema"
)

// coerceVariableValues coerces variable values according to their types
func coerceVariableValues(
	sch *schema.Schema,
	operation *language.OperationDefinition,
	variableValues map[string]any,
) (map[string]any, error) {
	if variableValues == nil {
		variableValues = make(map[string]any)
	}
	coerced := make(map[string]any)
	for _, varDef := range operation.VariableDefinitions {
		name := varDef.Variable
		t := varDef.Type
		val, ok := variableValues[name]
		if !ok {
			if varDef.DefaultValue != nil {
				val = valueFromAST(varDef.DefaultValue, nil)
			} else if t.NonNull {
				return nil, fmt.Errorf("variable $%s of required type %s was not provided", name, t.String())
			} else {
				continue
			}
		}
		if val == nil && t.NonNull {
			return nil, fmt.Errorf("variable $%s of type %s cannot be null", name, t.String())
		}
		cv, err := coerceValue(sch, val, typeRefFromAST(t))
		if err != nil {
			return nil, fmt.Errorf("variable $%s of type %s cannot be coerced: %v", name, t.String(), err)
		}
		coerced[name] = cv
	}
	return coerced, nil
}

// coerceArgumentValues coerces argument values for a field, filling defaults.
func coerceArgumentValues(
	fieldDef *schema.Field,
	arguments language.ArgumentList,
	variableValues map[string]any,
	sch *schema.Schema,
) (map[string]any, error) {
	coerced := make(map[string]any)
	for _, argDef := range fieldDef.GetOrderedArguments() {
		name := argDef.Name
		arg := arguments.ForName(name)

		var (
			val     any
			present bool
		)
		switch {
		case arg != nil && arg.Value.Kind == language.Variable:
			val, present = variableValues[arg.Value.Raw]
		case arg != nil:
			val, present = valueFromAST(arg.Value, variableValues), true
		}
		if !present {
			if argDef.DefaultValue != nil {
				val, present = argDef.DefaultValue, true
			} else if schema.IsNonNull(argDef.Type) {
				return nil, fmt.Errorf("argument %q of required type %s was not provided", name, argDef.Type)
			} else {
				continue
			}
		}
		cv, err := coerceValue(sch, val, argDef.Type)
		if err != nil {
			return nil, fmt.Errorf("argument %q cannot be coerced: %v", name, err)
		}
		coerced[name] = cv
	}
	return coerced, nil
}

// valueFromAST converts an AST value to a runtime value, substituting
// variables at any depth.
func valueFromAST(value *language.Value, variableValues map[string]any) any {
	if value == nil {
		return nil
	}
	switch value.Kind {
	case language.Variable:
		return variableValues[value.Raw]
	case language.IntValue:
		if iv, err := strconv.Atoi(value.Raw); err == nil {
			return iv
		}
		fv, _ := strconv.ParseFloat(value.Raw, 64)
		return fv
	case language.FloatValue:
		fv, _ := strconv.ParseFloat(value.Raw, 64)
		return fv
	case language.StringValue, language.BlockValue, language.EnumValue:
		return value.Raw
	case language.BooleanValue:
		return value.Raw == "true"
	case language.ListValue:
		out := make([]any, len(value.Children))
		for i, c := range value.Children {
			out[i] = valueFromAST(c.Value, variableValues)
		}
		return out
	case language.ObjectValue:
		m := make(map[string]any, len(value.Children))
		for _, f := range value.Children {
			m[f.Name] = valueFromAST(f.Value, variableValues)
		}
		return m
	default:
		return nil
	}
}

// coerceValue coerces a value to the specified GraphQL input type
func coerceValue(sch *schema.Schema, value any, targetType *schema.TypeRef) (any, error) {
	if schema.IsNonNull(targetType) {
		if value == nil {
			return nil, fmt.Errorf("cannot provide null for non-null type %s", targetType)
		}
		return coerceValue(sch, value, schema.Unwrap(targetType))
	}
	if value == nil {
		return nil, nil
	}
	if schema.IsList(targetType) {
		return coerceListValue(sch, value, targetType)
	}

	namedType := schema.GetNamedType(targetType)
	switch namedType {
	case "Int":
		return coerceToInt(value)
	case "Float":
		return coerceToFloat(value)
	case "String":
		return coerceToString(value)
	case "Boolean":
		return coerceToBoolean(value)
	case "ID":
		return coerceToID(value)
	}

	t := sch.Types[namedType]
	if t == nil {
		return value, nil
	}
	switch t.Kind {
	case schema.TypeKindEnum:
		return coerceToEnum(t, value)
	case schema.TypeKindInputObject:
		return coerceInputObject(sch, t, value)
	default:
		// Custom scalars pass through.
		return value, nil
	}
}

// coerceListValue coerces a value to a list; a single value becomes a list
// of one.
func coerceListValue(sch *schema.Schema, value any, listType *schema.TypeRef) (any, error) {
	innerType := schema.Unwrap(listType)
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		coercedItem, err := coerceValue(sch, value, innerType)
		if err != nil {
			return nil, err
		}
		return []any{coercedItem}, nil
	}
	out := make([]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		coercedItem, err := coerceValue(sch, rv.Index(i).Interface(), innerType)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		out[i] = coercedItem
	}
	return out, nil
}

func coerceInputObject(sch *schema.Schema, t *schema.Type, value any) (any, error) {
	in, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected input object %s, got %T", t.Name, value)
	}
	known := make(map[string]bool, len(t.InputFields))
	out := make(map[string]any, len(in))
	for _, f := range t.GetOrderedInputFields() {
		known[f.Name] = true
		v, present := in[f.Name]
		if !present {
			if f.DefaultValue != nil {
				v, present = f.DefaultValue, true
			} else if schema.IsNonNull(f.Type) {
				return nil, fmt.Errorf("required field '%s' of %s was not provided", f.Name, t.Name)
			} else {
				continue
			}
		}
		cv, err := coerceValue(sch, v, f.Type)
		if err != nil {
			return nil, fmt.Errorf("field '%s': %w", f.Name, err)
		}
		out[f.Name] = cv
	}
	for name := range in {
		if !known[name] {
			return nil, fmt.Errorf("unknown field '%s' on %s", name, t.Name)
		}
	}
	if t.OneOf {
		set := 0
		for _, v := range out {
			if v != nil {
				set++
			}
		}
		if set != 1 {
			return nil, fmt.Errorf("OneOf input object %s must specify exactly one non-null field", t.Name)
		}
	}
	return out, nil
}

func coerceToEnum(t *schema.Type, value any) (any, error) {
	s, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("cannot coerce %v (%T) to enum %s", value, value, t.Name)
	}
	for _, ev := range t.EnumValues {
		if ev.Name == s {
			return s, nil
		}
	}
	return nil, fmt.Errorf("value %q does not exist in enum %s", s, t.Name)
}

func coerceToInt(value any) (any, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int32:
		return int(v), nil
	case int64:
		if v >= math.MinInt32 && v <= math.MaxInt32 {
			return int(v), nil
		}
	case float64:
		if v == math.Trunc(v) && v >= math.MinInt32 && v <= math.MaxInt32 {
			return int(v), nil
		}
	case float32:
		if float64(v) == math.Trunc(float64(v)) {
			return int(v), nil
		}
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to Int", value, value)
}

func coerceToFloat(value any) (any, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to Float", value, value)
}

func coerceToString(value any) (any, error) {
	if v, ok := value.(string); ok {
		return v, nil
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to String", value, value)
}

func coerceToBoolean(value any) (any, error) {
	if v, ok := value.(bool); ok {
		return v, nil
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to Boolean", value, value)
}

func coerceToID(value any) (any, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case int:
		return strconv.Itoa(v), nil
	case int32:
		return strconv.FormatInt(int64(v), 10), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		if v == math.Trunc(v) {
			return strconv.FormatInt(int64(v), 10), nil
		}
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to ID", value, value)
}
