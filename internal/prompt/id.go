package prompt

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	apperrors "iq-bot/internal/common/errors"
)

const defaultIDName = "default"

// DeriveID returns the UUIDv5 of the sorted parameter identities joined by
// ":" in the template id's namespace. Order of values does not matter.
func DeriveID(templateID string, values []Value) (string, error) {
	namespace, err := uuid.Parse(templateID)
	if err != nil {
		return "", apperrors.NewTemplateInvalidError(templateID, "template id must be a UUID", err)
	}

	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = v.Identity()
	}
	sort.Strings(parts)

	name := strings.Join(parts, ":")
	if name == "" {
		name = defaultIDName
	}
	return uuid.NewSHA1(namespace, []byte(name)).String(), nil
}

// DeriveIDFromObject derives the id from every value of combo.
func DeriveIDFromObject(templateID string, combo *Object) (string, error) {
	values := make([]Value, 0, combo.Len())
	combo.Range(func(_ string, v Value) bool {
		values = append(values, v)
		return true
	})
	return DeriveID(templateID, values)
}
