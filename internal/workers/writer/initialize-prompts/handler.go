// internal/workers/writer/initialize-prompts/handler.go
package initializeprompts

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "iq-bot/internal/common/errors"
	"iq-bot/internal/common/logger"
	"iq-bot/internal/common/metrics"
	"iq-bot/internal/models"
	"iq-bot/internal/writer"
	"iq-bot/pkg/registry"
)

const (
	TaskType = "initialize-prompts"
)

var inputSchema = registry.MustInputValidator(TaskType)

type PromptInitializer interface {
	InitializePrompts(ctx context.Context, sources writer.DataSources, templateIDs ...string) models.InitSummary
}

// SourceLoader produces the data sources for one initialization run.
type SourceLoader func(ctx context.Context) (writer.DataSources, error)

type Handler struct {
	config       *Config
	initializer  PromptInitializer
	loadSources  SourceLoader
	errorHandler *apperrors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, initializer PromptInitializer, loadSources SourceLoader, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		initializer:  initializer,
		loadSources:  loadSources,
		errorHandler: apperrors.NewErrorHandler(log),
		logger:       log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	defer func() {
		metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	}()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if job.Variables != "" {
		if err := decodeInput(job.Variables, &input); err != nil {
			h.fail(ctx, client, job, err)
			return
		}
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.fail(ctx, client, job, err)
		return
	}

	h.completeJob(ctx, client, job, output)
}

func decodeInput(variables string, input *Input) error {
	var doc map[string]interface{}
	if err := json.Unmarshal([]byte(variables), &doc); err != nil {
		return apperrors.NewConfigurationError(fmt.Sprintf("parse input: %v", err), err)
	}
	if res := inputSchema.Validate(doc); !res.Valid {
		return apperrors.NewConfigurationError("invalid input: "+res.Error(), nil)
	}
	if err := json.Unmarshal([]byte(variables), input); err != nil {
		return apperrors.NewConfigurationError(fmt.Sprintf("parse input: %v", err), err)
	}
	return nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	sources, err := h.loadSources(ctx)
	if err != nil {
		return nil, err
	}

	summary := h.initializer.InitializePrompts(ctx, sources, input.TemplateIDs...)
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("initialization interrupted: %w", err))
	}

	return &Output{Summary: summary, Sources: sources.Names()}, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err = cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(apperrors.CodeOf(err))).Inc()
	h.errorHandler.HandleJobError(ctx, client, job, err)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
