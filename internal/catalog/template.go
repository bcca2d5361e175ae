package catalog

import (
	"time"

	"iq-bot/internal/prompt"
)

// DefaultTTLSeconds is the lifetime of records and responses of templates
// that do not set ttl_seconds.
const DefaultTTLSeconds = 3600

// Template is the definition from which prompt instantiations are produced.
type Template struct {
	ID          string   `yaml:"id" json:"id"`
	Topic       string   `yaml:"topic" json:"topic"`
	Title       string   `yaml:"title" json:"title"`
	CacheKey    string   `yaml:"cache_key" json:"cache_key,omitempty"`
	ContextKeys []string `yaml:"context_keys" json:"context_keys"`
	TTLSeconds  *int     `yaml:"ttl_seconds" json:"ttl_seconds,omitempty"`
	Enabled     *bool    `yaml:"enabled" json:"enabled,omitempty"`
}

// IsEnabled reports the enabled flag; templates without one are enabled.
func (t Template) IsEnabled() bool {
	return t.Enabled == nil || *t.Enabled
}

func (t Template) TTL() int {
	if t.TTLSeconds == nil {
		return DefaultTTLSeconds
	}
	return *t.TTLSeconds
}

func (t Template) TTLDuration() time.Duration {
	return time.Duration(t.TTL()) * time.Second
}

// Parameters are the names an instantiation must bind: the cache key's
// placeholders other than id.
func (t Template) Parameters() []string {
	var out []string
	for _, name := range prompt.Placeholders(t.CacheKey) {
		if name != "id" {
			out = append(out, name)
		}
	}
	return out
}

func (t Template) clone() Template {
	out := t
	out.ContextKeys = append([]string{}, t.ContextKeys...)
	if t.TTLSeconds != nil {
		ttl := *t.TTLSeconds
		out.TTLSeconds = &ttl
	}
	if t.Enabled != nil {
		enabled := *t.Enabled
		out.Enabled = &enabled
	}
	return out
}
