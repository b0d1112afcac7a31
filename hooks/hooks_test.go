package hooks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skryldev/webtools/core"
	apperrors "github.com/Skryldev/webtools/errors"
)

func TestMetricsHook_RecordsDurationAndErrors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPrometheusMetrics(reg)
	hook := NewMetricsHook(m)

	img := &core.ImageData{}
	hook.AfterStep(context.Background(), "decode", img, 10*time.Millisecond, nil)
	hook.AfterStep(context.Background(), "decode", nil, time.Millisecond,
		apperrors.Corrupt("decode", errors.New("bad header")))

	assert.Equal(t, 1, testutil.CollectAndCount(m.stepDuration))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.stepErrors.WithLabelValues("decode", "decode")))
}

func TestPrometheusMetrics_ResultsAndBytes(t *testing.T) {
	m := NewPrometheusMetrics(prometheus.NewRegistry())

	m.RecordResult(core.FormatWebP, "ok")
	m.RecordResult(core.FormatWebP, "ok")
	m.RecordThroughput("in", 1000)
	m.RecordThroughput("out", 0)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.results.WithLabelValues("webp", "ok")))
	assert.Equal(t, float64(1000), testutil.ToFloat64(m.bytes.WithLabelValues("in")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.bytes))
}

func TestLoggingHook(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlogLogger(NewSlog(&buf, "debug", "json"))
	hook := NewLoggingHook(logger)

	img := &core.ImageData{Format: core.FormatPNG, Meta: core.Metadata{Width: 10, Height: 5}}
	hook.BeforeStep(context.Background(), "fit", img)
	hook.AfterStep(context.Background(), "fit", img, time.Millisecond, nil)

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[1], &entry))
	assert.Equal(t, "pipeline.step.done", entry["msg"])
	assert.Equal(t, "10x5 png 0B", entry["output"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("nonsense"))
}
