package transform

// ValueTransform is implemented by transforms that can also rewrite template
// input values ahead of layout execution.
type ValueTransform interface {
	ApplyValue(v any) any
}

// ApplyValue returns v with placeholders replaced in every string it holds.
// Maps and slices are copied, other values are returned unchanged.
func (t *TokenTransform) ApplyValue(v any) any {
	var stats Stats
	out := replaceValue(v, t.prefix, t.values, &stats)
	if t.onStats != nil && (stats.Resolved > 0 || stats.Missing > 0) {
		t.onStats(t.prefix, stats)
	}
	return out
}

// ApplyValue runs every ValueTransform in the chain over v.
func (c *Chain) ApplyValue(v any) any {
	for _, t := range c.transforms {
		if vt, ok := t.(ValueTransform); ok {
			v = vt.ApplyValue(v)
		}
	}
	return v
}

func replaceValue(v any, prefix string, lookup Lookup, stats *Stats) any {
	switch val := v.(type) {
	case string:
		out, s := Replace(val, prefix, lookup)
		stats.Add(s)
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = replaceValue(item, prefix, lookup, stats)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = replaceValue(item, prefix, lookup, stats)
		}
		return out
	case []string:
		out := make([]string, len(val))
		for i, item := range val {
			r, s := Replace(item, prefix, lookup)
			stats.Add(s)
			out[i] = r
		}
		return out
	default:
		return v
	}
}
