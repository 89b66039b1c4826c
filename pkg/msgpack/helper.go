package msgpack

import "math"

// Coercion helpers over decoded values. The decoder returns int64 for every
// integer that fits, uint64 above math.MaxInt64; these smooth that seam for
// callers.

func AsInt(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case uint64:
		if x <= math.MaxInt64 {
			return int64(x), true
		}
	}
	return 0, false
}

func AsUint(v any) (uint64, bool) {
	switch x := v.(type) {
	case uint64:
		return x, true
	case int64:
		if x >= 0 {
			return uint64(x), true
		}
	}
	return 0, false
}

func AsFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	}
	return 0, false
}

func AsString(v any) (string, bool) {
	x, ok := v.(string)
	return x, ok
}

func AsBytes(v any) ([]byte, bool) {
	x, ok := v.([]byte)
	return x, ok
}

func AsArray(v any) ([]any, bool) {
	x, ok := v.([]any)
	return x, ok
}

// AsMap returns the entries of either map flavour the decoder produces.
func AsMap(v any) (map[any]any, bool) {
	switch x := v.(type) {
	case map[any]any:
		return x, true
	case *OrderedMap:
		m := make(map[any]any, x.Len())
		x.Range(func(k, v any) bool {
			m[k] = v
			return true
		})
		return m, true
	}
	return nil, false
}
