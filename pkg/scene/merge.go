package scene

// This file holds the single deep-merge implementation shared by the
// component store, the default-omission codec and the override applier.
// Divergent copies of this algorithm were the source of the original
// engine's restore-vs-apply drift, so there is exactly one.

// MergeComponent merges delta into base and returns the result. Neither
// input is mutated. Semantics:
//
//   - nested maps merge key by key
//   - a nil value at a key deletes that key
//   - slices and primitives are replaced wholesale
//
// A nil base is treated as empty; a nil delta returns a clone of base.
func MergeComponent(base, delta ComponentData) ComponentData {
	out := make(ComponentData, len(base)+len(delta))
	for k, v := range base {
		out[k] = CloneValue(v)
	}
	for k, v := range delta {
		if v == nil {
			delete(out, k)
			continue
		}
		if dm, ok := v.(map[string]any); ok {
			if bm, ok := out[k].(map[string]any); ok {
				out[k] = MergeComponent(bm, dm)
				continue
			}
		}
		out[k] = CloneValue(v)
	}
	return out
}

// CloneMap returns a deep copy of a JSON-shaped map.
func CloneMap(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = CloneValue(v)
	}
	return out
}

// CloneValue returns a deep copy of a JSON-shaped value.
func CloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return CloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = CloneValue(e)
		}
		return out
	default:
		return v
	}
}

// DeepEqual reports structural equality of two JSON-shaped values. Numbers
// compare by exact numeric value across Go's int/int64/float64 kinds, so a
// value authored as int(1) equals the float64(1) produced by a JSON decode
// round trip. No epsilon is applied; see DESIGN.md for the rationale.
func DeepEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if na, ok := toFloat(a); ok {
		nb, ok := toFloat(b)
		return ok && na == nb
	}
	switch ta := a.(type) {
	case map[string]any:
		tb, ok := b.(map[string]any)
		if !ok || len(ta) != len(tb) {
			return false
		}
		for k, va := range ta {
			vb, ok := tb[k]
			if !ok || !DeepEqual(va, vb) {
				return false
			}
		}
		return true
	case []any:
		tb, ok := b.([]any)
		if !ok || len(ta) != len(tb) {
			return false
		}
		for i := range ta {
			if !DeepEqual(ta[i], tb[i]) {
				return false
			}
		}
		return true
	case string:
		tb, ok := b.(string)
		return ok && ta == tb
	case bool:
		tb, ok := b.(bool)
		return ok && ta == tb
	default:
		return a == b
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}
