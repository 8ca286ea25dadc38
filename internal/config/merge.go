package config

// Merge deep-merges override into a copy of base and marks the result merged.
//
// Keys from override win at every level, nested maps are merged recursively
// and slices are concatenated (base items first). Neither input is modified.
func Merge(base Config, override map[string]any) Config {
	out := Overlay(base, override)
	out[keyMerged] = true
	return out
}

// Overlay deep-merges override into a copy of base like Merge, without
// marking the result as merged. Used to layer project config files.
func Overlay(base Config, override map[string]any) Config {
	out := deepCopyMap(base)
	mergeInto(out, override)
	return Config(out)
}

func mergeInto(dst, src map[string]any) {
	for k, sv := range src {
		dv, exists := dst[k]
		if !exists {
			dst[k] = deepCopyValue(sv)
			continue
		}

		if sm, ok := asMap(sv); ok {
			if dm, ok := asMap(dv); ok {
				merged := deepCopyMap(dm)
				mergeInto(merged, sm)
				dst[k] = merged
				continue
			}
		}

		if ss, ok := sv.([]any); ok {
			if ds, ok := dv.([]any); ok {
				combined := make([]any, 0, len(ds)+len(ss))
				combined = append(combined, ds...)
				for _, item := range ss {
					combined = append(combined, deepCopyValue(item))
				}
				dst[k] = combined
				continue
			}
		}

		dst[k] = deepCopyValue(sv)
	}
}

func deepCopyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = deepCopyValue(v)
	}
	return out
}

func deepCopyValue(v any) any {
	if m, ok := asMap(v); ok {
		return deepCopyMap(m)
	}
	switch vv := v.(type) {
	case []any:
		out := make([]any, len(vv))
		for i, item := range vv {
			out[i] = deepCopyValue(item)
		}
		return out
	case []string:
		return append([]string(nil), vv...)
	default:
		return v
	}
}
