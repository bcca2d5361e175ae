package models

import (
	"encoding/json"
	"fmt"
	"time"

	"iq-bot/internal/prompt"
)

// DefaultTTLSeconds applies to records that do not carry a ttl_seconds.
const DefaultTTLSeconds = 3600

var reservedFields = map[string]bool{
	"id":                 true,
	"prompt_template_id": true,
	"title":              true,
	"topic":              true,
	"cache_key":          true,
	"context_keys":       true,
	"ttl_seconds":        true,
	"enabled":            true,
}

// GeneratedPrompt is one stored instantiation of a template. Its parameters
// are kept flattened: a structured parameter contributes <param>_<field>
// entries, a scalar one contributes <param>.
type GeneratedPrompt struct {
	ID          string
	TemplateID  string
	Title       string
	Topic       string
	CacheKey    string
	ContextKeys []string
	TTLSeconds  int
	Enabled     bool
	Params      *prompt.Object
}

// TTL returns the record lifetime, defaulting to one hour.
func (p *GeneratedPrompt) TTL() time.Duration {
	if p.TTLSeconds <= 0 {
		return DefaultTTLSeconds * time.Second
	}
	return time.Duration(p.TTLSeconds) * time.Second
}

// Context is the record's parameters plus its id, the lookup context used to
// format the cache key and the question.
func (p *GeneratedPrompt) Context() *prompt.Object {
	ctx := prompt.NewObject()
	ctx.Set("id", prompt.String(p.ID))
	if p.Params != nil {
		p.Params.Range(func(k string, v prompt.Value) bool {
			if k != "id" {
				ctx.Set(k, v)
			}
			return true
		})
	}
	return ctx
}

// Record builds the flat JSON object stored in the cache.
func (p *GeneratedPrompt) Record() *prompt.Object {
	keys := make([]prompt.Value, len(p.ContextKeys))
	for i, k := range p.ContextKeys {
		keys[i] = prompt.String(k)
	}

	rec := prompt.NewObject()
	rec.Set("id", prompt.String(p.ID))
	rec.Set("prompt_template_id", prompt.String(p.TemplateID))
	rec.Set("title", prompt.String(p.Title))
	rec.Set("topic", prompt.String(p.Topic))
	rec.Set("cache_key", prompt.String(p.CacheKey))
	rec.Set("context_keys", prompt.List(keys...))
	rec.Set("ttl_seconds", prompt.Scalar(p.TTLSeconds))
	rec.Set("enabled", prompt.Scalar(p.Enabled))
	if p.Params != nil {
		p.Params.Range(func(k string, v prompt.Value) bool {
			if !reservedFields[k] {
				rec.Set(k, v)
			}
			return true
		})
	}
	return rec
}

func (p *GeneratedPrompt) MarshalJSON() ([]byte, error) {
	return p.Record().MarshalJSON()
}

func (p *GeneratedPrompt) UnmarshalJSON(data []byte) error {
	rec := prompt.NewObject()
	if err := json.Unmarshal(data, rec); err != nil {
		return err
	}

	out := GeneratedPrompt{Params: prompt.NewObject(), Enabled: true}
	var err error
	rec.Range(func(k string, v prompt.Value) bool {
		switch k {
		case "id":
			out.ID = v.String()
		case "prompt_template_id":
			out.TemplateID = v.String()
		case "title":
			out.Title = v.String()
		case "topic":
			out.Topic = v.String()
		case "cache_key":
			out.CacheKey = v.String()
		case "context_keys":
			if v.Kind() != prompt.KindList {
				err = fmt.Errorf("context_keys must be a list")
				return false
			}
			out.ContextKeys = make([]string, 0, len(v.List()))
			for _, item := range v.List() {
				out.ContextKeys = append(out.ContextKeys, item.String())
			}
		case "ttl_seconds":
			var n int
			if _, scanErr := fmt.Sscan(v.String(), &n); scanErr != nil {
				err = fmt.Errorf("ttl_seconds: %w", scanErr)
				return false
			}
			out.TTLSeconds = n
		case "enabled":
			out.Enabled = v.String() != "false"
		default:
			out.Params.Set(k, v)
		}
		return true
	})
	if err != nil {
		return err
	}

	*p = out
	return nil
}

// MissingFields lists the required fields the record lacks, as reported for
// records that cannot be processed.
func (p *GeneratedPrompt) MissingFields() []string {
	var missing []string
	if p.Topic == "" {
		missing = append(missing, "topic")
	}
	if p.Title == "" {
		missing = append(missing, "title")
	}
	if p.ContextKeys == nil {
		missing = append(missing, "context_keys")
	}
	return missing
}
