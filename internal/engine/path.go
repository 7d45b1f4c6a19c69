package engine

// Path addresses a value inside nested map[string]any / []any structures.
// String segments index maps, int segments index slices.
type Path []any

// GetAtPath follows path from root. It reports false as soon as a segment
// is missing or has the wrong type for the container it addresses.
func GetAtPath(root any, path Path) (any, bool) {
	cur := root
	for _, seg := range path {
		switch c := cur.(type) {
		case map[string]any:
			key, ok := seg.(string)
			if !ok {
				return nil, false
			}
			v, ok := c[key]
			if !ok {
				return nil, false
			}
			cur = v
		case []any:
			idx, ok := seg.(int)
			if !ok || idx < 0 || idx >= len(c) {
				return nil, false
			}
			cur = c[idx]
		default:
			return nil, false
		}
	}
	return cur, true
}

// SetAtPath returns a new root with the value at path replaced. Every
// container along path is copied; everything off the path is shared with
// root. Missing intermediate containers are created. An empty path
// returns value itself. A negative index or a segment that is neither
// string nor int leaves that level unchanged.
func SetAtPath(root any, path Path, value any) any {
	if len(path) == 0 {
		return value
	}
	switch seg := path[0].(type) {
	case string:
		src, _ := root.(map[string]any)
		out := make(map[string]any, len(src)+1)
		for k, v := range src {
			out[k] = v
		}
		out[seg] = SetAtPath(src[seg], path[1:], value)
		return out
	case int:
		if seg < 0 {
			return root
		}
		src, _ := root.([]any)
		n := len(src)
		if seg >= n {
			n = seg + 1
		}
		out := make([]any, n)
		copy(out, src)
		var child any
		if seg < len(src) {
			child = src[seg]
		}
		out[seg] = SetAtPath(child, path[1:], value)
		return out
	default:
		return root
	}
}

// StringPath converts a dotted settings path to a Path.
func StringPath(keys ...string) Path {
	p := make(Path, len(keys))
	for i, k := range keys {
		p[i] = k
	}
	return p
}
