package generation

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "iq-bot/internal/common/errors"
	"iq-bot/internal/common/logger"
)

const completionBody = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1700000000,
  "model": "gpt-4.1-nano",
  "choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "  The Eagles lead the table.  "}}],
  "usage": {"prompt_tokens": 10, "completion_tokens": 6, "total_tokens": 16}
}`

func newTestGenerator(t *testing.T, handler http.HandlerFunc, timeout time.Duration) *OpenAIGenerator {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	g, err := NewOpenAIGenerator(OpenAIConfig{
		APIKey:      "sk-test",
		BaseURL:     server.URL + "/v1/",
		Model:       "gpt-4.1-nano",
		Temperature: 0.4,
		Timeout:     timeout,
		MaxRetries:  0,
	}, logger.NewTestLogger(t))
	require.NoError(t, err)
	return g
}

func TestOpenAIGeneratorSendsSystemThenUser(t *testing.T) {
	g := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		raw, err := io.ReadAll(r.Body)
		if !assert.NoError(t, err) {
			return
		}
		var req struct {
			Model       string  `json:"model"`
			Temperature float64 `json:"temperature"`
			Messages    []struct {
				Role    string          `json:"role"`
				Content json.RawMessage `json:"content"`
			} `json:"messages"`
		}
		if !assert.NoError(t, json.Unmarshal(raw, &req)) {
			return
		}

		assert.Equal(t, "gpt-4.1-nano", req.Model)
		assert.Equal(t, 0.4, req.Temperature)
		if !assert.Len(t, req.Messages, 2) {
			return
		}
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Contains(t, string(req.Messages[0].Content), "Be concise")
		assert.Equal(t, "user", req.Messages[1].Role)
		assert.Contains(t, string(req.Messages[1].Content), "Team stats")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionBody))
	}, time.Second)

	text, err := g.Generate(context.Background(), "Team stats: 10 wins", "Be concise")
	require.NoError(t, err)
	assert.Equal(t, "The Eagles lead the table.", text)
}

func TestOpenAIGeneratorUpstreamError(t *testing.T) {
	g := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": {"message": "bad model", "type": "invalid_request_error"}}`))
	}, time.Second)

	_, err := g.Generate(context.Background(), "content", "instructions")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeGenerationFailed))
}

func TestOpenAIGeneratorEmptyChoices(t *testing.T) {
	g := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "x", "object": "chat.completion", "created": 1, "model": "gpt-4.1-nano", "choices": []}`))
	}, time.Second)

	_, err := g.Generate(context.Background(), "content", "instructions")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeGenerationFailed))
}

func TestOpenAIGeneratorTimeout(t *testing.T) {
	g := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	}, 50*time.Millisecond)

	_, err := g.Generate(context.Background(), "content", "instructions")
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindUpstream))
}

func TestNewOpenAIGeneratorRequiresKey(t *testing.T) {
	_, err := NewOpenAIGenerator(OpenAIConfig{}, logger.NewNoOpLogger())
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindConfiguration))
}
