package observability

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "debug", "json")

	logger.Debug("geocode resolved", "provider", "nominatim")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "geocode resolved", line["msg"])
	assert.Equal(t, "nominatim", line["provider"])
	assert.Equal(t, "DEBUG", line["level"])
}

func TestNewLogger_TextFiltersLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "warn", "TEXT")

	logger.Info("hidden")
	logger.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLevel(" error "))
	assert.Equal(t, slog.LevelInfo, parseLevel("verbose"))
}

func TestNewMetricsForTesting_Independent(t *testing.T) {
	a := NewMetricsForTesting()
	b := NewMetricsForTesting()

	a.CacheLookups.WithLabelValues("geo", "hit").Inc()

	assert.InDelta(t, 1, testutil.ToFloat64(a.CacheLookups.WithLabelValues("geo", "hit")), 1e-9)
	assert.InDelta(t, 0, testutil.ToFloat64(b.CacheLookups.WithLabelValues("geo", "hit")), 1e-9)

	reg := prometheus.NewRegistry()
	assert.NotPanics(t, func() { reg.MustRegister(a.collectors()...) })
}
