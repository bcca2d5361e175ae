// Package enrichment resolves a template's context keys into data by calling
// named operations registered up front.
package enrichment

import (
	"context"
	"fmt"
	"sort"
	"strings"

	apperrors "iq-bot/internal/common/errors"
	"iq-bot/internal/common/logger"
	"iq-bot/internal/common/metrics"
	"iq-bot/internal/prompt"
)

// Args are the arguments bound for one call, keyed by parameter name.
type Args map[string]prompt.Value

// Strings renders every argument as text.
func (a Args) Strings() map[string]string {
	out := make(map[string]string, len(a))
	for k, v := range a {
		out[k] = v.String()
	}
	return out
}

// Object returns the arguments as an object sorted by name.
func (a Args) Object() *prompt.Object {
	names := make([]string, 0, len(a))
	for name := range a {
		names = append(names, name)
	}
	sort.Strings(names)
	o := prompt.NewObject()
	for _, name := range names {
		o.Set(name, a[name])
	}
	return o
}

// Operation is a named data lookup with its declared parameters.
type Operation struct {
	Name   string
	Params []string
	Call   func(ctx context.Context, args Args) (prompt.Value, error)
}

// Registry maps context keys to operations. It is immutable once built.
type Registry struct {
	ops    map[string]Operation
	logger logger.Logger
}

// NewRegistry builds a registry; names must be unique and non-empty.
func NewRegistry(log logger.Logger, ops ...Operation) (*Registry, error) {
	r := &Registry{
		ops:    make(map[string]Operation, len(ops)),
		logger: log.WithFields(map[string]interface{}{"component": "enrichment"}),
	}
	for _, op := range ops {
		if op.Name == "" || op.Call == nil {
			return nil, apperrors.NewConfigurationError("enrichment operation needs a name and a call", nil)
		}
		if _, dup := r.ops[op.Name]; dup {
			return nil, apperrors.NewConfigurationError(fmt.Sprintf("duplicate enrichment operation %q", op.Name), nil)
		}
		r.ops[op.Name] = op
	}
	return r, nil
}

// Names lists the registered operations in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.ops))
	for name := range r.ops {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) Has(name string) bool {
	_, ok := r.ops[name]
	return ok
}

// Resolve calls the operation named by key with arguments bound from params.
// Each declared parameter binds to the top-level entry of the same name, or
// failing that to the entry named without its _id suffix. Unbound parameters
// are left out.
func (r *Registry) Resolve(ctx context.Context, key string, params *prompt.Object) (prompt.Value, error) {
	op, ok := r.ops[key]
	if !ok {
		metrics.EnrichmentCalls.WithLabelValues(key, "unknown").Inc()
		return prompt.Value{}, apperrors.NewContextResolutionError(key, fmt.Errorf("no enrichment operation named %q", key))
	}

	args := Bind(op.Params, params)
	value, err := op.Call(ctx, args)
	if err != nil {
		metrics.EnrichmentCalls.WithLabelValues(key, "error").Inc()
		r.logger.Warn("enrichment call failed", map[string]interface{}{
			"operation": key,
			"error":     err.Error(),
		})
		return prompt.Value{}, apperrors.NewContextResolutionError(key, err)
	}

	metrics.EnrichmentCalls.WithLabelValues(key, "ok").Inc()
	return value, nil
}

// Bind selects the arguments for the declared parameters.
func Bind(declared []string, params *prompt.Object) Args {
	args := make(Args, len(declared))
	for _, name := range declared {
		if v, ok := params.Get(name); ok {
			args[name] = v
			continue
		}
		if short, cut := strings.CutSuffix(name, "_id"); cut {
			if v, ok := params.Get(short); ok {
				args[name] = v
			}
		}
	}
	return args
}
