package datapoint

import (
	"encoding/json"
	"fmt"
	"math"
)

func asObject(v any, path string) (map[string]any, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s: expected object, got %s", ErrDecode, path, kindOf(v))
	}
	return obj, nil
}

// asList accepts an array, a lone object (DataPoint drops the array when there
// is a single element) or null.
func asList(v any, path string) ([]any, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case []any:
		return t, nil
	case map[string]any:
		return []any{t}, nil
	default:
		return nil, fmt.Errorf("%w: %s: expected array, got %s", ErrDecode, path, kindOf(v))
	}
}

func member(obj map[string]any, key, path string) (any, error) {
	v, ok := obj[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s: missing field %q", ErrDecode, path, key)
	}
	return v, nil
}

// stringField returns a text field. Text that looked numeric and was coerced
// keeps its original spelling.
func stringField(obj map[string]any, key, path string, required bool) (string, error) {
	v, ok := obj[key]
	if !ok || v == nil {
		if required {
			return "", fmt.Errorf("%w: %s: missing field %q", ErrDecode, path, key)
		}
		return "", nil
	}
	switch t := v.(type) {
	case string:
		return t, nil
	case json.Number:
		return t.String(), nil
	default:
		return "", fmt.Errorf("%w: %s.%s: expected string, got %s", ErrDecode, path, key, kindOf(v))
	}
}

func floatField(obj map[string]any, key, path string, required bool) (float64, bool, error) {
	v, ok := obj[key]
	if !ok || v == nil {
		if required {
			return 0, false, fmt.Errorf("%w: %s: missing field %q", ErrDecode, path, key)
		}
		return 0, false, nil
	}
	n, isNum := v.(json.Number)
	if !isNum {
		return 0, false, fmt.Errorf("%w: %s.%s: %q is not a number", ErrDecode, path, key, fmt.Sprint(v))
	}
	f, err := n.Float64()
	if err != nil {
		return 0, false, fmt.Errorf("%w: %s.%s: %v", ErrDecode, path, key, err)
	}
	return f, true, nil
}

func intField(obj map[string]any, key, path string, required bool) (int, bool, error) {
	f, ok, err := floatField(obj, key, path, required)
	if err != nil || !ok {
		return 0, ok, err
	}
	if f != math.Trunc(f) || f > math.MaxInt32 || f < math.MinInt32 {
		return 0, false, fmt.Errorf("%w: %s.%s: %v is not an integer", ErrDecode, path, key, f)
	}
	return int(f), true, nil
}

func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case json.Number:
		return "number"
	case bool:
		return "boolean"
	default:
		return fmt.Sprintf("%T", v)
	}
}
