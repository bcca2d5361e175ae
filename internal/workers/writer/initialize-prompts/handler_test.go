package initializeprompts

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "iq-bot/internal/common/errors"
	"iq-bot/internal/common/logger"
	"iq-bot/internal/models"
	"iq-bot/internal/prompt"
	"iq-bot/internal/writer"
)

type stubInitializer struct {
	templateIDs []string
	sources     writer.DataSources
}

func (s *stubInitializer) InitializePrompts(_ context.Context, sources writer.DataSources, templateIDs ...string) models.InitSummary {
	s.sources = sources
	s.templateIDs = templateIDs
	return models.InitSummary{Templates: 1, Stored: 3}
}

func staticSources(ctx context.Context) (writer.DataSources, error) {
	return writer.DataSources{
		"houses": {prompt.String("Gryffindor"), prompt.String("Ravenclaw")},
		"books":  {prompt.String("1")},
	}, nil
}

func TestHandler_Execute_Success(t *testing.T) {
	initializer := &stubInitializer{}
	h := NewHandler(LoadConfig(), initializer, staticSources, logger.NewTestLogger(t))

	out, err := h.Execute(context.Background(), &Input{TemplateIDs: []string{"t1"}})
	require.NoError(t, err)
	assert.Equal(t, 3, out.Summary.Stored)
	assert.Equal(t, []string{"books", "houses"}, out.Sources)
	assert.Equal(t, []string{"t1"}, initializer.templateIDs)
	assert.Len(t, initializer.sources["houses"], 2)
}

func TestHandler_Execute_SourceFailure(t *testing.T) {
	h := NewHandler(LoadConfig(), &stubInitializer{}, func(context.Context) (writer.DataSources, error) {
		return nil, apperrors.NewResourceMissingError("resources/data-sources.yaml", errors.New("no such file"))
	}, logger.NewTestLogger(t))

	_, err := h.Execute(context.Background(), &Input{})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeResourceMissing))
}

func TestHandler_Execute_Cancelled(t *testing.T) {
	h := NewHandler(LoadConfig(), &stubInitializer{}, staticSources, logger.NewTestLogger(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.Execute(ctx, &Input{})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindInternal))
}

func TestDecodeInput(t *testing.T) {
	var input Input
	require.NoError(t, decodeInput(`{"templateIds":["a","b"]}`, &input))
	assert.Equal(t, []string{"a", "b"}, input.TemplateIDs)

	err := decodeInput(`{"templateIds":"a"}`, &Input{})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindConfiguration))
}
