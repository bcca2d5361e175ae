// internal/workers/writer/generate-prompt-response/handler.go
package generatepromptresponse

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
	"iq-bot/pkg/registry"
)

const (
	TaskType = "generate-prompt-response"
)

var inputSchema = registry.MustInputValidator(TaskType)

// ResponseGenerator is the part of the writer orchestrator the worker drives.
type ResponseGenerator interface {
	GeneratePromptResponse(ctx context.Context, templateID, promptID string) (*models.GeneratedResponse, error)
	GenerateResponsesByTemplate(ctx context.Context, templateID string, concurrency int) []models.ResponseResult
}

type Handler struct {
	config       *Config
	generator    ResponseGenerator
	errorHandler *apperrors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, generator ResponseGenerator, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		generator:    generator,
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
	if err := decodeInput(job.Variables, &input); err != nil {
		h.fail(ctx, client, job, err)
		return
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
		return apperrors.NewPromptInvalidError("", fmt.Sprintf("parse input: %v", err))
	}
	if res := inputSchema.Validate(doc); !res.Valid {
		return apperrors.NewPromptInvalidError("", "invalid input: "+res.Error())
	}
	if err := json.Unmarshal([]byte(variables), input); err != nil {
		return apperrors.NewPromptInvalidError("", fmt.Sprintf("parse input: %v", err))
	}
	return nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.TemplateID == "" {
		return nil, apperrors.NewPromptInvalidError(input.PromptID, "templateId is required")
	}

	if input.PromptID != "" {
		resp, err := h.generator.GeneratePromptResponse(ctx, input.TemplateID, input.PromptID)
		if err != nil {
			return nil, err
		}
		out := &Output{Response: resp}
		if resp.Cached {
			out.Cached = 1
		} else {
			out.Generated = 1
		}
		return out, nil
	}

	results := h.generator.GenerateResponsesByTemplate(ctx, input.TemplateID, h.config.Concurrency)
	out := &Output{Results: results}
	for _, res := range results {
		switch {
		case res.Error != "":
			out.Failed++
		case res.Response != nil && res.Response.Cached:
			out.Cached++
		default:
			out.Generated++
		}
	}
	return out, nil
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
