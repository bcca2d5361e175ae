package generation

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"

	apperrors "iq-bot/internal/common/errors"
	"iq-bot/internal/common/logger"
	"iq-bot/internal/common/metrics"
)

// OpenAIConfig selects the model and request limits.
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	Timeout     time.Duration
	MaxRetries  int
}

// OpenAIGenerator sends the instructions as the system message and the
// content as the user message of a chat completion.
type OpenAIGenerator struct {
	client openai.Client
	config OpenAIConfig
	logger logger.Logger
}

var _ Generator = (*OpenAIGenerator)(nil)

func NewOpenAIGenerator(cfg OpenAIConfig, log logger.Logger) (*OpenAIGenerator, error) {
	if cfg.APIKey == "" {
		return nil, apperrors.NewConfigurationError("apis.openai.api_key (or OPENAI_API_KEY) is required", nil)
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4.1-nano"
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAIGenerator{
		client: openai.NewClient(opts...),
		config: cfg,
		logger: log.WithFields(map[string]interface{}{"component": "generation", "model": cfg.Model}),
	}, nil
}

func (g *OpenAIGenerator) Generate(ctx context.Context, content, instructions string) (string, error) {
	if g.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.config.Timeout)
		defer cancel()
	}

	start := time.Now()
	completion, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: shared.ChatModel(g.config.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(instructions),
			openai.UserMessage(content),
		},
		Temperature: openai.Float(g.config.Temperature),
	})
	metrics.GenerationDuration.WithLabelValues(g.config.Model).Observe(time.Since(start).Seconds())

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", apperrors.NewGenerationTimeoutError(g.config.Timeout)
		}
		return "", apperrors.NewGenerationFailedError(err)
	}

	if len(completion.Choices) == 0 {
		return "", apperrors.NewGenerationFailedError(errors.New("completion returned no choices"))
	}
	text := strings.TrimSpace(completion.Choices[0].Message.Content)
	if text == "" {
		return "", apperrors.NewGenerationFailedError(errors.New("completion returned empty content"))
	}

	g.logger.Debug("completion received", map[string]interface{}{
		"durationMs":       time.Since(start).Milliseconds(),
		"completionTokens": completion.Usage.CompletionTokens,
	})
	return text, nil
}
