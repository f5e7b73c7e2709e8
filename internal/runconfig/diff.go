package runconfig

import "reflect"

// Diff returns the entries of update whose key is missing from current or
// whose value differs from it.
func Diff(current, update *Map) *Map {
	out := NewMap()
	for k, v := range update.All() {
		cur, ok := current.Get(k)
		if !ok || !Equal(v, cur) {
			out.Set(k, cloneValue(v))
		}
	}
	return out
}

// Equal compares config values the way YAML readers see them: numbers by
// value regardless of int/float type, mappings regardless of key order.
func Equal(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		return ok && fa == fb
	}
	switch ta := normalize(a).(type) {
	case *Map:
		tb, ok := normalize(b).(*Map)
		if !ok || ta.Len() != tb.Len() {
			return false
		}
		for k, va := range ta.All() {
			vb, ok := tb.Get(k)
			if !ok || !Equal(va, vb) {
				return false
			}
		}
		return true
	case []any:
		tb, ok := normalize(b).([]any)
		if !ok || len(ta) != len(tb) {
			return false
		}
		for i := range ta {
			if !Equal(ta[i], tb[i]) {
				return false
			}
		}
		return true
	default:
		return reflect.DeepEqual(a, b)
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
