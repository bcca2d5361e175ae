package observability

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"iq-bot/internal/common/logger"
)

func TestObservabilityExportsWriterMetrics(t *testing.T) {
	reg := promclient.NewRegistry()
	obs := New("iq-writer-test", reg, logger.NewTestLogger(t))
	t.Cleanup(obs.Shutdown)

	ctx := context.Background()
	obs.RecordPromptsInitialized(ctx, 3, 1)
	obs.RecordResponse(ctx, "generated")
	obs.RecordResponse(ctx, "cached")
	obs.RecordBatchDuration(ctx, 250*time.Millisecond)

	families, err := reg.Gather()
	require.NoError(t, err)

	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "writer_prompts_initialized_total")
	assert.Contains(t, names, "writer_responses_total")

	joined := strings.Join(names, " ")
	assert.Contains(t, joined, "writer_batch_duration")
	assert.NotContains(t, joined, "writer.")
}

func TestObservabilityZeroValueIsSafe(t *testing.T) {
	obs := &Observability{logger: logger.NewNoOpLogger()}
	ctx := context.Background()

	assert.NotPanics(t, func() {
		obs.RecordPromptsInitialized(ctx, 1, 0)
		obs.RecordResponse(ctx, "failed")
		obs.RecordBatchDuration(ctx, time.Second)
		obs.Shutdown()
	})
}

func TestEnableTracingWritesSpans(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	var buf bytes.Buffer
	obs := &Observability{logger: logger.NewTestLogger(t)}
	require.NoError(t, obs.EnableTracing(&buf))

	_, span := otel.Tracer("test").Start(context.Background(), "writer.Process")
	span.End()
	obs.Shutdown()

	assert.Contains(t, buf.String(), "writer.Process")
}
