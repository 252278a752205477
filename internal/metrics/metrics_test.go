package metrics

import (
	"bytes"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingObserver struct{ n int }

func (c *countingObserver) Observe(string, time.Duration) { c.n++ }

func TestMulti(t *testing.T) {
	a, b := &countingObserver{}, &countingObserver{}
	Multi{a, b}.Observe("decode", time.Millisecond)
	assert.Equal(t, 1, a.n)
	assert.Equal(t, 1, b.n)
}

func TestLogObserver(t *testing.T) {
	var buf bytes.Buffer
	LogObserver{Logger: zerolog.New(&buf).Level(zerolog.DebugLevel)}.Observe("resize", 1500*time.Microsecond)
	assert.Contains(t, buf.String(), `"stage":"resize"`)
	assert.Contains(t, buf.String(), `"took":1.5`)
}

func TestPrometheus(t *testing.T) {
	p := NewPrometheus()

	p.Observe("decode", 2*time.Millisecond)
	p.Observe("decode", 3*time.Millisecond)
	p.Observe("encode", time.Millisecond)
	p.WritebackFailed("k", errors.New("x"))
	p.Response(200)
	p.Response(500)
	p.Response(500)

	assert.Equal(t, 2, testutil.CollectAndCount(p.stages))
	assert.Equal(t, float64(1), testutil.ToFloat64(p.failures))
	assert.Equal(t, float64(2), testutil.ToFloat64(p.responses.WithLabelValues("500")))

	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `imgtransform_stage_duration_seconds_count{stage="decode"} 2`)
	assert.Contains(t, string(body), "imgtransform_writeback_failures_total 1")
}
