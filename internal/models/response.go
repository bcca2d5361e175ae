package models

import "iq-bot/internal/prompt"

// GeneratedResponse is the text produced for one prompt instantiation.
type GeneratedResponse struct {
	Response    string         `json:"response"`
	PromptID    string         `json:"prompt_id"`
	TemplateID  string         `json:"template_id"`
	Topic       string         `json:"topic"`
	CacheKey    string         `json:"cache_key,omitempty"`
	ContextKeys []string       `json:"context_keys"`
	Cached      bool           `json:"cached"`
	ContextData *prompt.Object `json:"context_data,omitempty"`
}

// ResponseResult is the per-record outcome of a batch over a template.
type ResponseResult struct {
	PromptKey string             `json:"prompt_key"`
	PromptID  string             `json:"prompt_id"`
	Response  *GeneratedResponse `json:"response,omitempty"`
	Error     string             `json:"error,omitempty"`
	ErrorCode string             `json:"error_code,omitempty"`
}

// InitSummary counts the outcome of prompt initialization.
type InitSummary struct {
	Templates int `json:"templates"`
	Skipped   int `json:"skipped"`
	Stored    int `json:"stored"`
	Failed    int `json:"failed"`
}

// Add accumulates other into s.
func (s *InitSummary) Add(other InitSummary) {
	s.Templates += other.Templates
	s.Skipped += other.Skipped
	s.Stored += other.Stored
	s.Failed += other.Failed
}

// BatchSummary counts the outcome of a full writer run.
type BatchSummary struct {
	Init      InitSummary `json:"init"`
	Generated int         `json:"generated"`
	Cached    int         `json:"cached"`
	Failed    int         `json:"failed"`
}
