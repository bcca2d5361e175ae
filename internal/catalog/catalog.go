// Package catalog loads prompt templates and the text resources used to build
// generation requests.
package catalog

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	apperrors "iq-bot/internal/common/errors"
	"iq-bot/internal/common/logger"
	"iq-bot/internal/common/validation"
)

const templateSchema = `{
  "type": "object",
  "required": ["id", "title", "context_keys"],
  "properties": {
    "id": {
      "type": "string",
      "pattern": "^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$"
    },
    "topic": {"type": "string", "minLength": 1},
    "title": {"type": "string", "minLength": 1},
    "cache_key": {"type": "string"},
    "context_keys": {"type": "array", "items": {"type": "string", "minLength": 1}},
    "ttl_seconds": {"type": "integer", "minimum": 0},
    "enabled": {"type": "boolean"}
  }
}`

var schema = validation.MustCompileSchema(templateSchema)

// InvalidEntry records a catalog entry that was skipped while loading.
type InvalidEntry struct {
	Topic  string `json:"topic"`
	Index  int    `json:"index"`
	ID     string `json:"id,omitempty"`
	Reason string `json:"reason"`
}

// Catalog is the read-only set of templates grouped by topic. It is built once
// and may be shared between goroutines.
type Catalog struct {
	topics  []string
	byTopic map[string][]Template
	byID    map[string]Template
	invalid []InvalidEntry
}

type document struct {
	Prompts yaml.Node `yaml:"prompts"`
}

// LoadFile reads a catalog file.
func LoadFile(path string, log logger.Logger) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewResourceMissingError(path, err)
	}
	defer f.Close()
	return Load(f, log)
}

// Load parses a catalog of the form
//
//	prompts:
//	  <topic>:
//	    - id: <uuid>
//	      title: ...
//
// Malformed topics and entries are skipped and reported by Invalid.
func Load(r io.Reader, log logger.Logger) (*Catalog, error) {
	log = log.WithFields(map[string]interface{}{"component": "catalog"})

	var doc document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && err != io.EOF {
		return nil, apperrors.NewConfigurationError("template catalog is not valid YAML", err)
	}

	c := &Catalog{
		byTopic: make(map[string][]Template),
		byID:    make(map[string]Template),
	}

	root := &doc.Prompts
	if root.Kind == 0 {
		log.Warn("template catalog has no prompts section", nil)
		return c, nil
	}
	if root.Kind != yaml.MappingNode {
		return nil, apperrors.NewConfigurationError(
			fmt.Sprintf("line %d: prompts must be a mapping of topic to templates", root.Line), nil)
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		topic := root.Content[i].Value
		entries := root.Content[i+1]
		if entries.Kind != yaml.SequenceNode {
			c.reject(log, InvalidEntry{Topic: topic, Index: -1, Reason: "topic must hold a list of templates"})
			continue
		}
		if _, dup := c.byTopic[topic]; !dup {
			c.topics = append(c.topics, topic)
			c.byTopic[topic] = nil
		}
		for idx, node := range entries.Content {
			c.addEntry(log, topic, idx, node)
		}
	}

	log.Info("template catalog loaded", map[string]interface{}{
		"topics":    len(c.topics),
		"templates": len(c.byID),
		"invalid":   len(c.invalid),
	})
	return c, nil
}

func (c *Catalog) addEntry(log logger.Logger, topic string, idx int, node *yaml.Node) {
	var raw map[string]interface{}
	if err := node.Decode(&raw); err != nil {
		c.reject(log, InvalidEntry{Topic: topic, Index: idx, Reason: err.Error()})
		return
	}
	id, _ := raw["id"].(string)

	if result := schema.Validate(raw); !result.Valid {
		c.reject(log, InvalidEntry{Topic: topic, Index: idx, ID: id, Reason: result.Error()})
		return
	}

	var tmpl Template
	if err := node.Decode(&tmpl); err != nil {
		c.reject(log, InvalidEntry{Topic: topic, Index: idx, ID: id, Reason: err.Error()})
		return
	}
	if tmpl.Topic == "" {
		tmpl.Topic = topic
	}
	if tmpl.ContextKeys == nil {
		tmpl.ContextKeys = []string{}
	}

	if _, dup := c.byID[tmpl.ID]; dup {
		c.reject(log, InvalidEntry{Topic: topic, Index: idx, ID: id, Reason: "duplicate template id"})
		return
	}

	c.byID[tmpl.ID] = tmpl
	c.byTopic[topic] = append(c.byTopic[topic], tmpl)
}

func (c *Catalog) reject(log logger.Logger, entry InvalidEntry) {
	c.invalid = append(c.invalid, entry)
	log.Warn("skipping invalid template entry", map[string]interface{}{
		"topic":  entry.Topic,
		"index":  entry.Index,
		"id":     entry.ID,
		"reason": entry.Reason,
	})
}

// Topics returns the topics in file order.
func (c *Catalog) Topics() []string {
	return append([]string(nil), c.topics...)
}

// Templates returns the templates of one topic in file order.
func (c *Catalog) Templates(topic string) []Template {
	src := c.byTopic[topic]
	out := make([]Template, len(src))
	for i, t := range src {
		out[i] = t.clone()
	}
	return out
}

// All returns every valid template, topic by topic.
func (c *Catalog) All() []Template {
	var out []Template
	for _, topic := range c.topics {
		out = append(out, c.Templates(topic)...)
	}
	return out
}

// Template looks a template up by id.
func (c *Catalog) Template(id string) (Template, error) {
	t, ok := c.byID[id]
	if !ok {
		return Template{}, apperrors.NewTemplateNotFoundError(id)
	}
	return t.clone(), nil
}

// Invalid lists the entries skipped while loading.
func (c *Catalog) Invalid() []InvalidEntry {
	return append([]InvalidEntry(nil), c.invalid...)
}
