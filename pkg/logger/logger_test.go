package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func Test_ContextHandler_Handle(t *testing.T) {
	traceID, _ := trace.TraceIDFromHex("0af7651916cd43dd8448eb211c80319c")
	spanID, _ := trace.SpanIDFromHex("b7ad6b7169203331")
	spanCtx := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})

	testCases := []struct {
		name      string
		ctx       context.Context
		requestID any
		traceID   any
		spanID    any
	}{
		{name: "no context values", ctx: context.Background()},
		{
			name:      "request id only",
			ctx:       context.WithValue(context.Background(), middleware.RequestIDKey, "abc"),
			requestID: "abc",
		},
		{
			name:    "trace only",
			ctx:     trace.ContextWithSpanContext(context.Background(), spanCtx),
			traceID: "0af7651916cd43dd8448eb211c80319c",
			spanID:  "b7ad6b7169203331",
		},
		{
			name:      "request id and trace",
			ctx:       trace.ContextWithSpanContext(context.WithValue(context.Background(), middleware.RequestIDKey, "abc"), spanCtx),
			requestID: "abc",
			traceID:   "0af7651916cd43dd8448eb211c80319c",
			spanID:    "b7ad6b7169203331",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			var buf bytes.Buffer
			log := slog.New(NewContextHandler(slog.NewJSONHandler(&buf, nil))).With("component", "test")

			// when
			log.InfoContext(tc.ctx, "hello")

			// then
			var record map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
			assert.Equal(t, "test", record["component"])
			assert.Equal(t, tc.requestID, record["request_id"])
			assert.Equal(t, tc.traceID, record["trace_id"])
			assert.Equal(t, tc.spanID, record["span_id"])
		})
	}
}
