// Package cast provides type conversion helpers for map[string]any and similar generic data,
// such as decoded JSON-RPC tool arguments.
package cast

// ToString converts v to string. Accepts only string values.
func ToString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

// ToBool converts v to bool. Accepts only bool values.
func ToBool(v any) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

// ToStringSlice converts v to []string. Accepts []string or []any where each element is string.
func ToStringSlice(v any) ([]string, bool) {
	if ss, ok := v.([]string); ok {
		return ss, true
	}
	slice, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(slice))
	for _, e := range slice {
		s, ok := e.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

// ToMap converts v to map[string]any. Accepts map[string]any and map[string]string.
func ToMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[string]string:
		out := make(map[string]any, len(m))
		for k, s := range m {
			out[k] = s
		}
		return out, true
	default:
		return nil, false
	}
}
