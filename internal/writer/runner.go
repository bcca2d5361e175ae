package writer

import (
	"context"
	"time"

	"iq-bot/internal/common/logger"
	"iq-bot/internal/models"
)

// Runner drives a full writer pass: expand every enabled template into
// records, then generate responses for the records of each template.
type Runner struct {
	templates    TemplateSource
	prompts      *PromptService
	orchestrator *Orchestrator
	recorder     Recorder
	concurrency  int
	logger       logger.Logger
}

func NewRunner(templates TemplateSource, prompts *PromptService, orchestrator *Orchestrator, recorder Recorder, concurrency int, log logger.Logger) *Runner {
	if recorder == nil {
		recorder = noopRecorder{}
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Runner{
		templates:    templates,
		prompts:      prompts,
		orchestrator: orchestrator,
		recorder:     recorder,
		concurrency:  concurrency,
		logger:       log.WithFields(map[string]interface{}{"component": "runner"}),
	}
}

// Run initializes prompts from sources and generates responses for them.
// Templates named in templateIDs restrict the pass; none means all.
func (r *Runner) Run(ctx context.Context, sources DataSources, templateIDs ...string) models.BatchSummary {
	start := time.Now()
	defer func() { r.recorder.RecordBatchDuration(ctx, time.Since(start)) }()

	var summary models.BatchSummary
	summary.Init = r.prompts.InitializePrompts(ctx, sources, templateIDs...)
	r.recorder.RecordPromptsInitialized(ctx, summary.Init.Stored, summary.Init.Failed)

	wanted := make(map[string]bool, len(templateIDs))
	for _, id := range templateIDs {
		wanted[id] = true
	}

	for _, tmpl := range r.templates.All() {
		if !tmpl.IsEnabled() || (len(wanted) > 0 && !wanted[tmpl.ID]) {
			continue
		}
		if ctx.Err() != nil {
			break
		}

		for _, res := range r.orchestrator.GenerateResponsesByTemplate(ctx, tmpl.ID, r.concurrency) {
			switch {
			case res.Error != "":
				summary.Failed++
				r.recorder.RecordResponse(ctx, "failed")
			case res.Response != nil && res.Response.Cached:
				summary.Cached++
				r.recorder.RecordResponse(ctx, "cached")
			default:
				summary.Generated++
				r.recorder.RecordResponse(ctx, "generated")
			}
		}
	}

	r.logger.Info("writer run finished", map[string]interface{}{
		"stored":    summary.Init.Stored,
		"generated": summary.Generated,
		"cached":    summary.Cached,
		"failed":    summary.Failed,
		"duration":  time.Since(start).String(),
	})
	return summary
}
