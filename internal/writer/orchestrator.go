package writer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"iq-bot/internal/cache"
	apperrors "iq-bot/internal/common/errors"
	"iq-bot/internal/common/logger"
	"iq-bot/internal/common/metrics"
	"iq-bot/internal/generation"
	"iq-bot/internal/models"
	"iq-bot/internal/prompt"
)

const tracerName = "iq-bot/writer"

// Orchestrator turns a stored prompt record into a response: cache check,
// enrichment, request building, generation and cache write.
type Orchestrator struct {
	store     cache.Store
	resolver  ContextResolver
	resources ContentSource
	generator generation.Generator
	tracer    trace.Tracer
	logger    logger.Logger
}

func NewOrchestrator(store cache.Store, resolver ContextResolver, resources ContentSource, generator generation.Generator, log logger.Logger) *Orchestrator {
	return &Orchestrator{
		store:     store,
		resolver:  resolver,
		resources: resources,
		generator: generator,
		tracer:    otel.Tracer(tracerName),
		logger:    log.WithFields(map[string]interface{}{"component": "orchestrator"}),
	}
}

// GeneratePromptResponse loads the record of promptID under templateID and
// processes it.
func (o *Orchestrator) GeneratePromptResponse(ctx context.Context, templateID, promptID string) (*models.GeneratedResponse, error) {
	p, err := o.loadPrompt(ctx, templateID, promptID)
	if err != nil {
		metrics.ResponseFailures.WithLabelValues(string(apperrors.CodeOf(err))).Inc()
		return nil, err
	}
	return o.Process(ctx, p)
}

func (o *Orchestrator) loadPrompt(ctx context.Context, templateID, promptID string) (*models.GeneratedPrompt, error) {
	body, ok := o.store.Get(ctx, cache.GeneratedPromptKey(templateID, promptID))
	if !ok {
		return nil, apperrors.NewPromptNotFoundError(promptID)
	}

	var p models.GeneratedPrompt
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, apperrors.NewPromptInvalidError(promptID, err.Error())
	}
	if missing := p.MissingFields(); len(missing) > 0 {
		return nil, apperrors.NewPromptInvalidError(promptID, "missing fields: "+strings.Join(missing, ", "))
	}
	if p.ID == "" {
		p.ID = promptID
	}
	if p.TemplateID == "" {
		p.TemplateID = templateID
	}
	return &p, nil
}

// Process runs the generation flow for one record. A cache hit returns the
// stored text without enrichment or generation. Any failure aborts before
// anything is written.
func (o *Orchestrator) Process(ctx context.Context, p *models.GeneratedPrompt) (*models.GeneratedResponse, error) {
	ctx, span := o.tracer.Start(ctx, "writer.Process", trace.WithAttributes(
		attribute.String("prompt.id", p.ID),
		attribute.String("prompt.template_id", p.TemplateID),
		attribute.String("prompt.topic", p.Topic),
	))
	defer span.End()

	resp, err := o.process(ctx, span, p)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(apperrors.CodeOf(err)))
		metrics.ResponseFailures.WithLabelValues(string(apperrors.CodeOf(err))).Inc()
		o.logger.Error("response generation failed", map[string]interface{}{
			"promptId":   p.ID,
			"templateId": p.TemplateID,
			"errorCode":  string(apperrors.CodeOf(err)),
			"error":      err.Error(),
		})
		return nil, err
	}
	return resp, nil
}

func (o *Orchestrator) process(ctx context.Context, span trace.Span, p *models.GeneratedPrompt) (*models.GeneratedResponse, error) {
	params := p.Context()
	resp := &models.GeneratedResponse{
		PromptID:    p.ID,
		TemplateID:  p.TemplateID,
		Topic:       p.Topic,
		ContextKeys: append([]string{}, p.ContextKeys...),
		CacheKey:    p.CacheKey,
	}

	// cache check
	if resp.CacheKey != "" {
		if body, ok := o.store.Get(ctx, resp.CacheKey); ok {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			metrics.ResponsesGenerated.WithLabelValues(p.Topic, "cache").Inc()
			resp.Response = string(body)
			resp.Cached = true
			return resp, nil
		}
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	// enrichment
	contextData := params.Clone()
	for _, key := range p.ContextKeys {
		v, err := o.resolver.Resolve(ctx, key, params)
		if err != nil {
			return nil, err
		}
		contextData.Set(key, v)
	}

	// request building
	content, instructions, err := o.buildRequest(p, contextData)
	if err != nil {
		return nil, err
	}

	// generation
	text, err := o.generator.Generate(ctx, content, instructions)
	if err != nil {
		if _, ok := apperrors.AsStandard(err); !ok {
			err = apperrors.NewGenerationFailedError(err)
		}
		return nil, err
	}

	// cache store
	if resp.CacheKey != "" && !o.store.Set(ctx, resp.CacheKey, []byte(text), p.TTL()) {
		o.logger.Warn("response not cached", map[string]interface{}{"promptId": p.ID, "cacheKey": resp.CacheKey})
	}

	metrics.ResponsesGenerated.WithLabelValues(p.Topic, "generated").Inc()
	resp.Response = text
	resp.ContextData = contextData
	return resp, nil
}

func (o *Orchestrator) buildRequest(p *models.GeneratedPrompt, contextData *prompt.Object) (string, string, error) {
	contentTmpl, err := o.resources.ContentTemplate(p.Topic)
	if err != nil {
		return "", "", err
	}
	content, err := prompt.Format(contentTmpl, prompt.Prefixed(contextData, "f"))
	if err != nil {
		return "", "", fmt.Errorf("content for topic %s: %w", p.Topic, err)
	}

	systemTmpl, err := o.resources.SystemTemplate()
	if err != nil {
		return "", "", err
	}
	instructions, err := prompt.Format(systemTmpl, prompt.ObjectOf(
		"fprompt", p.Title,
		"fstyle_guide", o.resources.StyleGuide(),
	))
	if err != nil {
		return "", "", fmt.Errorf("instructions: %w", err)
	}
	return content, instructions, nil
}

// GenerateResponsesByTemplate processes every stored record of a template,
// at most concurrency at a time. One result is returned per record key, in
// scan order; a failing record does not affect the others.
func (o *Orchestrator) GenerateResponsesByTemplate(ctx context.Context, templateID string, concurrency int) []models.ResponseResult {
	keys := o.store.Scan(ctx, cache.GeneratedPromptPattern(templateID))
	results := make([]models.ResponseResult, len(keys))

	if concurrency <= 0 {
		concurrency = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, key := range keys {
		i, key := i, key
		g.Go(func() error {
			results[i] = o.processKey(gctx, key)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (o *Orchestrator) processKey(ctx context.Context, key string) models.ResponseResult {
	result := models.ResponseResult{PromptKey: key}

	templateID, promptID, ok := cache.ParseGeneratedPromptKey(key)
	if !ok {
		result.Error = "malformed prompt key"
		result.ErrorCode = string(apperrors.ErrCodePromptInvalid)
		return result
	}
	result.PromptID = promptID

	if err := ctx.Err(); err != nil {
		result.Error = err.Error()
		result.ErrorCode = string(apperrors.ErrCodeInternal)
		return result
	}

	resp, err := o.GeneratePromptResponse(ctx, templateID, promptID)
	if err != nil {
		result.Error = err.Error()
		result.ErrorCode = string(apperrors.CodeOf(err))
		return result
	}
	result.Response = resp
	return result
}
