package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecom-dashboard/internal/config"
)

func TestNewLogger_LevelAndFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(config.LoggerConfig{Level: "warn", Format: "json"}, &buf)

	logger.Info("dropped")
	logger.Warn("kept", "k", 1)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "kept", rec["msg"])
	assert.Equal(t, "WARN", rec["level"])
}

func TestNewLogger_Text(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(config.LoggerConfig{Level: "debug", Format: "text"}, &buf)

	logger.Debug("hello")
	assert.Contains(t, buf.String(), "msg=hello")
}

func TestLogger_RequestIDFromContext(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(config.LoggerConfig{Level: "info", Format: "json"}, &buf).With("component", "test")

	ctx := WithRequestID(context.Background(), "req-42")
	logger.InfoContext(ctx, "served")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "req-42", rec["request_id"])
	assert.Equal(t, "test", rec["component"])
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLogLevel(in), in)
	}
}

func TestGetRequestID_Empty(t *testing.T) {
	assert.Empty(t, GetRequestID(context.Background()))
}

func TestTracing_Disabled(t *testing.T) {
	tr, err := NewTracing(config.TelemetryConfig{ServiceName: "svc"}, nil, slog.Default())
	require.NoError(t, err)

	_, span := tr.Tracer().Start(context.Background(), "op")
	assert.False(t, span.SpanContext().IsValid())
	span.End()
	assert.NoError(t, tr.Shutdown(context.Background()))
}

func TestTracing_EnabledWritesSpans(t *testing.T) {
	var buf bytes.Buffer
	tr, err := NewTracing(config.TelemetryConfig{ServiceName: "svc", TracingEnabled: true}, &buf, slog.Default())
	require.NoError(t, err)

	_, span := StartSpan(context.Background(), "compute")
	assert.True(t, span.SpanContext().IsValid())
	EndSpan(span, assert.AnError)

	require.NoError(t, tr.Shutdown(context.Background()))
	assert.Contains(t, buf.String(), `"Name":"compute"`)
}

func TestMetrics_Collects(t *testing.T) {
	m := NewMetrics()

	m.ObserveRequest(http.MethodGet, "/api/kpis", http.StatusOK, 5*time.Millisecond)
	m.ObserveCompute(12, time.Millisecond)
	m.SetDatasetRows(100)
	m.ObserveExport("csv")
	m.ObserveExport("csv")

	families, err := m.Registry().Gather()
	require.NoError(t, err)

	values := map[string]float64{}
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			switch {
			case metric.GetCounter() != nil:
				values[mf.GetName()] += metric.GetCounter().GetValue()
			case metric.GetGauge() != nil:
				values[mf.GetName()] = metric.GetGauge().GetValue()
			}
		}
	}

	assert.Equal(t, 1.0, values["ecom_dashboard_http_requests_total"])
	assert.Equal(t, 1.0, values["ecom_dashboard_computations_total"])
	assert.Equal(t, 12.0, values["ecom_dashboard_filtered_rows"])
	assert.Equal(t, 100.0, values["ecom_dashboard_dataset_rows"])
	assert.Equal(t, 2.0, values["ecom_dashboard_exports_total"])
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics()
	m.SetDatasetRows(3)

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "ecom_dashboard_dataset_rows 3")
}

func TestMetrics_NilIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRequest(http.MethodGet, "/", http.StatusOK, time.Millisecond)
		m.ObserveCompute(1, time.Millisecond)
		m.SetDatasetRows(1)
		m.ObserveExport("xlsx")
	})
}
