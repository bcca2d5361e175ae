// Package writer produces prompt instantiations from templates and generates,
// caches and serves their responses.
package writer

import (
	"context"
	"time"

	"iq-bot/internal/catalog"
	"iq-bot/internal/prompt"
)

// TemplateSource is the read side of the template catalog.
type TemplateSource interface {
	All() []catalog.Template
	Template(id string) (catalog.Template, error)
}

// ContextResolver turns a context key into data for the given parameters.
type ContextResolver interface {
	Resolve(ctx context.Context, key string, params *prompt.Object) (prompt.Value, error)
}

// ContentSource provides the text a generation request is built from.
type ContentSource interface {
	ContentTemplate(topic string) (string, error)
	SystemTemplate() (string, error)
	StyleGuide() string
}

// Recorder receives batch-level measurements.
type Recorder interface {
	RecordPromptsInitialized(ctx context.Context, stored, failed int)
	RecordResponse(ctx context.Context, status string)
	RecordBatchDuration(ctx context.Context, d time.Duration)
}

type noopRecorder struct{}

func (noopRecorder) RecordPromptsInitialized(context.Context, int, int) {}
func (noopRecorder) RecordResponse(context.Context, string)             {}
func (noopRecorder) RecordBatchDuration(context.Context, time.Duration) {}
