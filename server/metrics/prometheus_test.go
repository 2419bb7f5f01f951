package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusExporter(t *testing.T) {
	exporter := NewPrometheusExporter(DefaultConfig())

	exporter.RecordFormatRequest("babel", OutcomeOK)
	exporter.RecordFormatRequest("babel", OutcomeOK)
	exporter.RecordFormatRequest("typescript", OutcomeFormatFailure)
	exporter.RecordFormatLatency("babel", 20*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(exporter.formatRequests.WithLabelValues("babel", OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(exporter.formatRequests.WithLabelValues("typescript", OutcomeFormatFailure)))

	done := exporter.TrackInFlight()
	assert.Equal(t, 1.0, testutil.ToFloat64(exporter.formatInFlight))
	done()
	assert.Equal(t, 0.0, testutil.ToFloat64(exporter.formatInFlight))
}

func TestPrometheusExporter_Handler(t *testing.T) {
	exporter := NewPrometheusExporter(Config{})
	exporter.RecordFormatRequest("babel", OutcomeMissingInput)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	exporter.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `codepolish_format_requests_total{outcome="missing_input",parser="babel"} 1`), body)
	assert.Contains(t, body, "codepolish_format_in_flight 0")
}
