package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParameterMissingErrorNamesParameter(t *testing.T) {
	err := NewParameterMissingError("compared_team")

	assert.Contains(t, err.Error(), "compared_team")
	assert.Equal(t, ErrCodeTemplateParameterMissing, err.Code)
	assert.Equal(t, KindValidation, err.Kind())
	assert.Equal(t, "compared_team", err.Metadata["parameter"])
	assert.False(t, err.Retryable)
}

func TestCodeOfThroughWrapping(t *testing.T) {
	cause := stderrors.New("connection refused")
	wrapped := fmt.Errorf("resolve players: %w", NewContextResolutionError("get_players", cause))

	assert.Equal(t, ErrCodeContextResolutionFailed, CodeOf(wrapped))
	assert.Equal(t, KindUpstream, KindOf(wrapped))
	assert.True(t, IsCode(wrapped, ErrCodeContextResolutionFailed))
	assert.True(t, IsKind(wrapped, KindUpstream))
	assert.True(t, stderrors.Is(wrapped, cause))
}

func TestCodeOfForeignError(t *testing.T) {
	err := stderrors.New("boom")

	assert.Equal(t, ErrCodeInternal, CodeOf(err))
	assert.Equal(t, KindInternal, KindOf(err))
	assert.False(t, IsKind(err, KindUpstream))

	normalized := Normalize(err)
	require.NotNil(t, normalized)
	assert.Equal(t, ErrCodeInternal, normalized.Code)
	assert.Equal(t, "boom", normalized.Details)
}

func TestGetErrorCategory(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want Kind
	}{
		{ErrCodeTemplateNotFound, KindConfiguration},
		{ErrCodeResourceMissing, KindConfiguration},
		{ErrCodeTemplateParameterMissing, KindValidation},
		{ErrCodePromptNotFound, KindNotFound},
		{ErrCodeGenerationFailed, KindUpstream},
		{ErrCodeCacheUnavailable, KindCacheIO},
		{ErrorCode("SOMETHING_ELSE"), KindInternal},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, GetErrorCategory(tt.code))
		})
	}
}

func TestConvertToBPMNError(t *testing.T) {
	t.Run("retryable upstream error keeps its budget", func(t *testing.T) {
		bpmn := ConvertToBPMNError(NewGenerationFailedError(stderrors.New("503")))

		assert.Equal(t, "GENERATION_FAILED", bpmn.Code)
		assert.Equal(t, 3, bpmn.Retries)
		assert.True(t, bpmn.Retryable)
		assert.Equal(t, "UPSTREAM", bpmn.ErrorVariables["errorKind"])
	})

	t.Run("not found error is thrown without retries", func(t *testing.T) {
		bpmn := ConvertToBPMNError(NewPromptNotFoundError("p-1"))

		assert.Equal(t, 0, bpmn.Retries)
		assert.Equal(t, "p-1", bpmn.ErrorVariables["promptId"])

		vars := bpmn.ToErrorVariables()
		assert.Equal(t, "PROMPT_NOT_FOUND", vars["errorCode"])
		assert.Equal(t, "No template or prompt found with ID: p-1", vars["errorMessage"])
	})
}
