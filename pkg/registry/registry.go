// pkg/registry/registry.go
package registry

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"iq-bot/internal/common/validation"
)

//go:embed activities.json
var defaultActivities []byte

var (
	defaultOnce     sync.Once
	defaultRegistry *ActivityRegistry
	defaultErr      error
)

// Default returns the registry shipped with the binary.
func Default() (*ActivityRegistry, error) {
	defaultOnce.Do(func() {
		defaultRegistry, defaultErr = Parse(defaultActivities)
	})
	return defaultRegistry, defaultErr
}

func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*ActivityRegistry, error) {
	var reg ActivityRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse activity registry: %w", err)
	}
	return &reg, nil
}

// Find returns the activity bound to taskType.
func (r *ActivityRegistry) Find(taskType string) (Activity, bool) {
	for _, a := range r.Activities {
		if a.TaskType == taskType {
			return a, true
		}
	}
	return Activity{}, false
}

// InputValidator compiles the activity's input schema.
func (a Activity) InputValidator() (*validation.Schema, error) {
	if len(a.InputSchema) == 0 {
		return nil, fmt.Errorf("activity %s has no input schema", a.ID)
	}
	raw, err := json.Marshal(a.InputSchema)
	if err != nil {
		return nil, fmt.Errorf("encode input schema of %s: %w", a.ID, err)
	}
	return validation.CompileSchema(string(raw))
}

// MustInputValidator returns the input validator of a task type from the
// default registry, panicking when it is missing. Workers call it at package
// initialization.
func MustInputValidator(taskType string) *validation.Schema {
	reg, err := Default()
	if err != nil {
		panic(err)
	}
	a, ok := reg.Find(taskType)
	if !ok {
		panic(fmt.Sprintf("registry: no activity for task type %q", taskType))
	}
	s, err := a.InputValidator()
	if err != nil {
		panic(err)
	}
	return s
}
