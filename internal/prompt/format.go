package prompt

import (
	apperrors "iq-bot/internal/common/errors"
)

// Format substitutes every {name} marker in tmpl with the resolved parameter.
// It fails on the first marker that cannot be resolved.
func Format(tmpl string, params *Object) (string, error) {
	var missing string
	out := placeholderPattern.ReplaceAllStringFunc(tmpl, func(marker string) string {
		if missing != "" {
			return marker
		}
		name := marker[1 : len(marker)-1]
		v, ok := Resolve(name, params)
		if !ok {
			missing = name
			return marker
		}
		return v.String()
	})
	if missing != "" {
		return "", apperrors.NewParameterMissingError(missing)
	}
	return out, nil
}

// Validate reports whether every placeholder in tmpl resolves against params,
// and lists the names that do not.
func Validate(tmpl string, params *Object) (bool, []string) {
	var missing []string
	for _, name := range Placeholders(tmpl) {
		if _, ok := Resolve(name, params); !ok {
			missing = append(missing, name)
		}
	}
	return len(missing) == 0, missing
}

// Prefixed returns a copy of obj with every top-level key prefixed, as used by
// content files that reference context entries as {f<key>}.
func Prefixed(obj *Object, prefix string) *Object {
	out := NewObject()
	obj.Range(func(k string, v Value) bool {
		out.Set(prefix+k, v)
		return true
	})
	return out
}

// Flatten returns the top-level entries of params with structured values
// expanded one level into <key>_<field> entries.
func Flatten(params *Object) *Object {
	out := NewObject()
	params.Range(func(k string, v Value) bool {
		if inner := v.Object(); inner != nil {
			inner.Range(func(field string, fv Value) bool {
				out.Set(k+"_"+field, fv)
				return true
			})
			return true
		}
		out.Set(k, v)
		return true
	})
	return out
}
