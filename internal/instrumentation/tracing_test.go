package instrumentation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func newTestProvider(t *testing.T) (context.Context, *Provider) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	provider, err := NewProvider(ctx, Config{
		ServiceName:     "test-service",
		ServiceVersion:  "1.0.0",
		Enabled:         true,
		MetricsExporter: ExporterPrometheus,
		TracingExporter: ExporterNone,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = provider.Shutdown(ctx) })
	return ctx, provider
}

func TestSpanHelpers(t *testing.T) {
	ctx, _ := newTestProvider(t)

	tests := []struct {
		name  string
		start func() (context.Context, trace.Span)
	}{
		{"plain", func() (context.Context, trace.Span) {
			c, s := StartSpan(ctx, "test-span")
			return c, s
		}},
		{"tool", func() (context.Context, trace.Span) {
			c, s := StartToolSpan(ctx, "inbox_ranked_emails")
			return c, s
		}},
		{"google", func() (context.Context, trace.Span) {
			c, s := StartGoogleAPISpan(ctx, ServiceGmail, OperationListMessages)
			return c, s
		}},
		{"llm", func() (context.Context, trace.Span) {
			c, s := StartLLMSpan(ctx, OperationChat, "gpt-4o")
			return c, s
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spanCtx, span := tt.start()
			assert.NotNil(t, spanCtx)
			assert.NotNil(t, span)
			span.End()
		})
	}
}

func TestSetSpanStatus(t *testing.T) {
	ctx, _ := newTestProvider(t)

	_, span := StartSpan(ctx, "test-span")
	SetSpanError(span, errors.New("test error"))
	SetSpanError(span, nil)
	SetSpanSuccess(span)
	span.End()
}

func TestGetTraceID_NoSpan(t *testing.T) {
	assert.Empty(t, GetTraceID(context.Background()))
}
