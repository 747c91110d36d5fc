package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/querydoctor/querydoctor/pkg/models"
)

func TestSummarize_Empty(t *testing.T) {
	assert.Equal(t, models.CorpusSummary{}, Summarize(nil))
	assert.Equal(t, models.CorpusSummary{}, Summarize([]float64{}))
}

func TestSummarize_SingleValue(t *testing.T) {
	got := Summarize([]float64{250})
	assert.Equal(t, 1, got.TotalQueries)
	assert.Equal(t, float64(250), got.AvgDurationMS)
	assert.Equal(t, float64(250), got.MaxDurationMS)
	assert.Equal(t, float64(250), got.P95DurationMS)
	assert.Equal(t, float64(250), got.P99DurationMS)
	assert.Equal(t, float64(250), got.TotalTimeMS)
}

func TestSummarize_KnownCorpus(t *testing.T) {
	got := Summarize([]float64{100, 200, 300, 400, 500})

	assert.Equal(t, 5, got.TotalQueries)
	assert.Equal(t, float64(300), got.AvgDurationMS)
	assert.Equal(t, float64(500), got.MaxDurationMS)
	assert.InDelta(t, 480, got.P95DurationMS, 1e-9)
	assert.InDelta(t, 496, got.P99DurationMS, 1e-9)
	assert.Equal(t, float64(1500), got.TotalTimeMS)

	// The distinct-pattern count is stamped later by the pipeline.
	assert.Zero(t, got.UniqueQueries)
}

func TestPercentile_Interpolation(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5}

	assert.Equal(t, 3.0, Percentile(values, 0.50))
	assert.Equal(t, 2.0, Percentile(values, 0.25))
	assert.InDelta(t, 1.4, Percentile(values, 0.10), 1e-9)
	assert.Equal(t, 1.0, Percentile(values, 0))
	assert.Equal(t, 5.0, Percentile(values, 1))
}

func TestPercentile_Empty(t *testing.T) {
	assert.Equal(t, 0.0, Percentile(nil, 0.95))
}

func TestPercentile_SingleValue(t *testing.T) {
	assert.Equal(t, 10.0, Percentile([]float64{10}, 0))
	assert.Equal(t, 10.0, Percentile([]float64{10}, 0.5))
	assert.Equal(t, 10.0, Percentile([]float64{10}, 1))
}

func TestPercentile_ClampsP(t *testing.T) {
	values := []float64{1, 2}
	assert.Equal(t, 1.0, Percentile(values, -0.5))
	assert.Equal(t, 2.0, Percentile(values, 1.5))
}

func TestPercentile_DoesNotModifyInput(t *testing.T) {
	values := []float64{5, 1, 3}
	assert.Equal(t, 3.0, Percentile(values, 0.5))
	assert.Equal(t, []float64{5, 1, 3}, values)
}
