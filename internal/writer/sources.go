package writer

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	apperrors "iq-bot/internal/common/errors"
	"iq-bot/internal/common/logger"
	"iq-bot/internal/prompt"
)

// DataSources holds the candidate values for template parameters, keyed by
// source name.
type DataSources map[string][]prompt.Value

// Lookup finds the candidates for a parameter: the source with the same name,
// else its plural (team is fed by teams).
func (d DataSources) Lookup(param string) ([]prompt.Value, bool) {
	if values, ok := d[param]; ok {
		return values, true
	}
	values, ok := d[param+"s"]
	return values, ok
}

// Merge copies other's sources into d, replacing sources of the same name.
func (d DataSources) Merge(other DataSources) {
	for name, values := range other {
		d[name] = values
	}
}

// AssignIDs gives structured items of the named sources an "id" copied from
// another field, so they contribute that field to prompt ids and cache keys.
// Items that already have an id, or lack the field, are left as they are.
func (d DataSources) AssignIDs(fields map[string]string) {
	for name, field := range fields {
		values, ok := d[name]
		if !ok || field == "" {
			continue
		}
		for i, v := range values {
			obj := v.Object()
			if obj == nil || obj.Has("id") {
				continue
			}
			idv, ok := obj.Get(field)
			if !ok {
				continue
			}
			withID := prompt.NewObject()
			withID.Set("id", idv)
			withID.Merge(obj)
			values[i] = prompt.Structured(withID)
		}
	}
}

func (d DataSources) Names() []string {
	names := make([]string, 0, len(d))
	for name := range d {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadDataSources reads a YAML file mapping source names to lists.
func LoadDataSources(path string) (DataSources, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewResourceMissingError(path, err)
	}
	defer f.Close()
	return ParseDataSources(f)
}

func ParseDataSources(r io.Reader) (DataSources, error) {
	var raw map[string]prompt.Value
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil && err != io.EOF {
		return nil, apperrors.NewConfigurationError("data sources are not valid YAML", err)
	}

	out := make(DataSources, len(raw))
	for name, v := range raw {
		if v.Kind() != prompt.KindList {
			return nil, apperrors.NewConfigurationError(fmt.Sprintf("data source %q must be a list", name), nil)
		}
		out[name] = v.List()
	}
	return out, nil
}

// GatherSources fills sources by calling enrichment operations, one per
// source name. Operations that fail or return something other than a list
// are logged and skipped.
func GatherSources(ctx context.Context, resolver ContextResolver, operations map[string]string, log logger.Logger) DataSources {
	out := make(DataSources, len(operations))
	names := make([]string, 0, len(operations))
	for name := range operations {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		op := operations[name]
		v, err := resolver.Resolve(ctx, op, prompt.NewObject())
		if err != nil {
			log.Warn("data source unavailable", map[string]interface{}{"source": name, "operation": op, "error": err.Error()})
			continue
		}
		if v.Kind() != prompt.KindList {
			log.Warn("data source did not return a list", map[string]interface{}{"source": name, "operation": op, "kind": v.Kind().String()})
			continue
		}
		out[name] = v.List()
		log.Debug("data source loaded", map[string]interface{}{"source": name, "count": len(v.List())})
	}
	return out
}
