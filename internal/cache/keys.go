package cache

import (
	"sort"
	"strings"
	"time"
)

const (
	KeyPrefix             = "iq:"
	PromptResponsePrefix  = KeyPrefix + "prompt-response"
	GeneratedPromptPrefix = KeyPrefix + "generated-prompt"
	APICachePrefix        = KeyPrefix + "api"
)

const (
	TTLHour  = time.Hour
	TTLDay   = 24 * time.Hour
	TTLWeek  = 7 * TTLDay
	TTLMonth = 30 * TTLDay

	DefaultTTL = TTLHour
)

// GeneratedPromptKey is the record key of one instantiation.
func GeneratedPromptKey(templateID, promptID string) string {
	return GeneratedPromptPrefix + ":" + templateID + ":" + promptID
}

// GeneratedPromptPattern matches every record of a template, or of all
// templates when templateID is empty.
func GeneratedPromptPattern(templateID string) string {
	if templateID == "" {
		return GeneratedPromptPrefix + ":*"
	}
	return GeneratedPromptPrefix + ":" + templateID + ":*"
}

// PromptIDPattern matches the record of promptID under any template.
func PromptIDPattern(promptID string) string {
	return GeneratedPromptPrefix + ":*:" + promptID
}

// ParseGeneratedPromptKey splits a record key into template and prompt ids.
func ParseGeneratedPromptKey(key string) (templateID, promptID string, ok bool) {
	rest, found := strings.CutPrefix(key, GeneratedPromptPrefix+":")
	if !found {
		return "", "", false
	}
	templateID, promptID, found = strings.Cut(rest, ":")
	if !found || templateID == "" || promptID == "" || strings.Contains(promptID, ":") {
		return "", "", false
	}
	return templateID, promptID, true
}

// APIKey is the cache key of an upstream data call: the endpoint name followed
// by its arguments sorted by name.
func APIKey(endpoint string, args map[string]string) string {
	names := make([]string, 0, len(args))
	for name := range args {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(APICachePrefix)
	b.WriteByte(':')
	b.WriteString(endpoint)
	for _, name := range names {
		b.WriteByte(':')
		b.WriteString(name)
		b.WriteByte(':')
		b.WriteString(args[name])
	}
	return b.String()
}
