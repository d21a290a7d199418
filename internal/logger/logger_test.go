package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"institute-service/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func TestJSONLoggerAddsTraceContext(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter("prod", &buf)

	traceID, err := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("0102030405060708")
	require.NoError(t, err)
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	log.InfoContext(ctx, "course created", "id", 1)

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "course created", record["msg"])
	assert.Equal(t, "0102030405060708090a0b0c0d0e0f10", record["trace_id"])
	assert.Equal(t, "0102030405060708", record["span_id"])
}

func TestTextLoggerColoursErrors(t *testing.T) {
	t.Setenv("KUBERNETES_SERVICE_HOST", "")

	var buf bytes.Buffer
	log := logger.NewWithWriter("local", &buf)

	log.Error("store unavailable")
	assert.Contains(t, buf.String(), "\x1b[31mstore unavailable\x1b[0m")

	buf.Reset()
	log.Info("ready")
	assert.NotContains(t, buf.String(), "\x1b[31m")
}
