package resolverrt

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
)

// serializeBuiltin coerces a resolved value to the output form of a built-in
// scalar. ok is false for any other type name.
func serializeBuiltin(typeName string, value any) (out any, ok bool, err error) {
	switch typeName {
	case "Int":
		out, err = serializeInt(value)
	case "Float":
		out, err = serializeFloat(value)
	case "String":
		out, err = serializeString(value)
	case "Boolean":
		out, err = serializeBoolean(value)
	case "ID":
		out, err = serializeID(value)
	default:
		return value, false, nil
	}
	return out, true, err
}

func serializeInt(value any) (any, error) {
	var f float64
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Bool:
		if rv.Bool() {
			return 1, nil
		}
		return 0, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n := rv.Int()
		if n < math.MinInt32 || n > math.MaxInt32 {
			return nil, fmt.Errorf("Int cannot represent non 32-bit signed integer value: %v", value)
		}
		return int(n), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		n := rv.Uint()
		if n > math.MaxInt32 {
			return nil, fmt.Errorf("Int cannot represent non 32-bit signed integer value: %v", value)
		}
		return int(n), nil
	case reflect.Float32, reflect.Float64:
		f = rv.Float()
	case reflect.String:
		parsed, err := strconv.ParseFloat(rv.String(), 64)
		if err != nil {
			return nil, fmt.Errorf("Int cannot represent non-integer value: %q", rv.String())
		}
		f = parsed
	default:
		return nil, fmt.Errorf("Int cannot represent non-integer value: %v", value)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return nil, fmt.Errorf("Int cannot represent non-integer value: %v", value)
	}
	if f < math.MinInt32 || f > math.MaxInt32 {
		return nil, fmt.Errorf("Int cannot represent non 32-bit signed integer value: %v", value)
	}
	return int(f), nil
}

func serializeFloat(value any) (any, error) {
	var f float64
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Bool:
		if rv.Bool() {
			return 1.0, nil
		}
		return 0.0, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		f = float64(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		f = float64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		f = rv.Float()
	case reflect.String:
		parsed, err := strconv.ParseFloat(rv.String(), 64)
		if err != nil {
			return nil, fmt.Errorf("Float cannot represent non numeric value: %q", rv.String())
		}
		f = parsed
	default:
		return nil, fmt.Errorf("Float cannot represent non numeric value: %v", value)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("Float cannot represent non numeric value: %v", value)
	}
	return f, nil
}

func serializeString(value any) (any, error) {
	if s, ok := value.(fmt.Stringer); ok {
		return s.String(), nil
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.String:
		return rv.String(), nil
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10), nil
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			break
		}
		return strconv.FormatFloat(f, 'g', -1, 64), nil
	}
	return nil, fmt.Errorf("String cannot represent value: %v", value)
}

func serializeBoolean(value any) (any, error) {
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() != 0, nil
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if !math.IsNaN(f) && !math.IsInf(f, 0) {
			return f != 0, nil
		}
	}
	return nil, fmt.Errorf("Boolean cannot represent a non boolean value: %v", value)
}

// serializeID accepts strings and integers.
func serializeID(value any) (any, error) {
	if s, ok := value.(fmt.Stringer); ok {
		return s.String(), nil
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.String:
		return rv.String(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10), nil
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if f == math.Trunc(f) && !math.IsInf(f, 0) {
			return strconv.FormatFloat(f, 'f', -1, 64), nil
		}
	}
	return nil, fmt.Errorf("ID cannot represent value: %v", value)
}
