package writer

import (
	"context"
	"encoding/json"

	"iq-bot/internal/cache"
	"iq-bot/internal/catalog"
	apperrors "iq-bot/internal/common/errors"
	"iq-bot/internal/common/logger"
	"iq-bot/internal/common/metrics"
	"iq-bot/internal/models"
	"iq-bot/internal/prompt"
)

// PromptService expands templates into stored prompt records.
type PromptService struct {
	templates TemplateSource
	store     cache.Store
	logger    logger.Logger
}

func NewPromptService(templates TemplateSource, store cache.Store, log logger.Logger) *PromptService {
	return &PromptService{
		templates: templates,
		store:     store,
		logger:    log.WithFields(map[string]interface{}{"component": "prompt-service"}),
	}
}

// InitializePrompts stores one record per combination of every enabled
// template. When templateIDs are given only those templates are expanded.
// Failures are counted and never stop the run.
func (s *PromptService) InitializePrompts(ctx context.Context, sources DataSources, templateIDs ...string) models.InitSummary {
	wanted := make(map[string]bool, len(templateIDs))
	for _, id := range templateIDs {
		wanted[id] = true
	}

	var summary models.InitSummary
	for _, tmpl := range s.templates.All() {
		if len(wanted) > 0 && !wanted[tmpl.ID] {
			continue
		}
		if ctx.Err() != nil {
			s.logger.Warn("prompt initialization interrupted", map[string]interface{}{"error": ctx.Err().Error()})
			break
		}
		summary.Templates++

		if !tmpl.IsEnabled() {
			summary.Skipped++
			s.logger.Debug("skipping disabled template", map[string]interface{}{"templateId": tmpl.ID})
			continue
		}

		prompts, failed, err := s.GeneratePromptsFromTemplate(tmpl, sources)
		summary.Failed += failed
		if err != nil {
			summary.Skipped++
			s.logger.Error("template cannot be expanded", map[string]interface{}{
				"templateId": tmpl.ID,
				"error":      err.Error(),
			})
			continue
		}

		for _, p := range prompts {
			if s.storePrompt(ctx, p) {
				summary.Stored++
			} else {
				summary.Failed++
			}
		}
	}

	s.logger.Info("prompt initialization finished", map[string]interface{}{
		"templates": summary.Templates,
		"skipped":   summary.Skipped,
		"stored":    summary.Stored,
		"failed":    summary.Failed,
	})
	return summary
}

// GeneratePromptsFromTemplate builds the records for every combination of the
// template's parameters without storing them. It returns the records, the
// number of combinations that could not be built, and an error when the
// template as a whole is unusable.
func (s *PromptService) GeneratePromptsFromTemplate(tmpl catalog.Template, sources DataSources) ([]*models.GeneratedPrompt, int, error) {
	log := s.logger.WithFields(map[string]interface{}{"templateId": tmpl.ID, "topic": tmpl.Topic})

	var srcs []prompt.Source
	for _, name := range tmpl.Parameters() {
		values, ok := sources.Lookup(name)
		if !ok {
			log.Warn("no data source for template parameter", map[string]interface{}{"parameter": name})
			continue
		}
		srcs = append(srcs, prompt.Source{Name: name, Values: values})
	}

	combos := prompt.Combinations(srcs)
	out := make([]*models.GeneratedPrompt, 0, len(combos))
	failed := 0
	for _, combo := range combos {
		p, err := buildPrompt(tmpl, combo)
		if err != nil {
			if apperrors.IsCode(err, apperrors.ErrCodeTemplateInvalid) {
				return nil, failed, err
			}
			failed++
			log.Warn("skipping prompt instantiation", map[string]interface{}{"error": err.Error()})
			continue
		}
		out = append(out, p)
	}
	return out, failed, nil
}

func buildPrompt(tmpl catalog.Template, combo *prompt.Object) (*models.GeneratedPrompt, error) {
	id, err := prompt.DeriveIDFromObject(tmpl.ID, combo)
	if err != nil {
		return nil, err
	}

	flat := prompt.Flatten(combo)

	titleCtx := prompt.NewObject()
	titleCtx.Set("id", prompt.String(id))
	titleCtx.Merge(combo)
	titleCtx.Merge(flat)
	title, err := prompt.Format(tmpl.Title, titleCtx)
	if err != nil {
		return nil, err
	}

	var cacheKey string
	if tmpl.CacheKey != "" {
		keyCtx := prompt.NewObject()
		keyCtx.Set("id", prompt.String(id))
		combo.Range(func(k string, v prompt.Value) bool {
			keyCtx.Set(k, prompt.String(v.Identity()))
			return true
		})
		if cacheKey, err = prompt.Format(tmpl.CacheKey, keyCtx); err != nil {
			return nil, err
		}
	}

	return &models.GeneratedPrompt{
		ID:          id,
		TemplateID:  tmpl.ID,
		Title:       title,
		Topic:       tmpl.Topic,
		CacheKey:    cacheKey,
		ContextKeys: append([]string{}, tmpl.ContextKeys...),
		TTLSeconds:  tmpl.TTL(),
		Enabled:     true,
		Params:      flat,
	}, nil
}

func (s *PromptService) storePrompt(ctx context.Context, p *models.GeneratedPrompt) bool {
	data, err := json.Marshal(p)
	if err != nil {
		s.logger.Error("prompt record cannot be encoded", map[string]interface{}{"promptId": p.ID, "error": err.Error()})
		return false
	}
	if !s.store.Set(ctx, cache.GeneratedPromptKey(p.TemplateID, p.ID), data, p.TTL()) {
		return false
	}
	metrics.PromptsStored.WithLabelValues(p.Topic).Inc()
	return true
}
