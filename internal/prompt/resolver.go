package prompt

import "strconv"

// Resolve looks name up in params.
//
// A top-level key wins. If its value is structured and itself holds name,
// the inner value is returned instead (one level only). Otherwise nested
// structured values, including structured list items, are searched depth
// first in declaration order and the first hit wins.
func Resolve(name string, params *Object) (Value, bool) {
	v, _, ok := ResolvePath(name, params)
	return v, ok
}

// ResolvePath is Resolve that also reports where the value was found, as a
// dotted path such as "match.home_team.name" or "players[1].name".
func ResolvePath(name string, params *Object) (Value, string, bool) {
	return resolve(name, params, "")
}

func resolve(name string, params *Object, prefix string) (Value, string, bool) {
	if params == nil {
		return Value{}, "", false
	}

	if v, ok := params.Get(name); ok {
		path := join(prefix, name)
		if inner := v.Object(); inner != nil {
			if unwrapped, ok := inner.Get(name); ok {
				return unwrapped, join(path, name), true
			}
		}
		return v, path, true
	}

	var (
		found     Value
		foundPath string
		hit       bool
	)
	params.Range(func(key string, v Value) bool {
		switch v.Kind() {
		case KindStructured:
			found, foundPath, hit = resolve(name, v.Object(), join(prefix, key))
		case KindList:
			for i, item := range v.List() {
				if item.Kind() != KindStructured {
					continue
				}
				found, foundPath, hit = resolve(name, item.Object(), join(prefix, key)+"["+strconv.Itoa(i)+"]")
				if hit {
					break
				}
			}
		}
		return !hit
	})
	return found, foundPath, hit
}

func join(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
