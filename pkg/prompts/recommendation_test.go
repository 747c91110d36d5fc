package prompts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildRecommendationPrompt(t *testing.T) {
	stats := QueryStats{
		Query:         "SELECT * FROM orders WHERE customer_id = 42",
		AvgDurationMS: 156.789,
		MaxDurationMS: 412.5,
		Frequency:     17,
		ImpactScore:   2665.41,
	}

	prompt := BuildRecommendationPrompt(stats)

	assert.Contains(t, prompt, "SELECT * FROM orders WHERE customer_id = 42")
	assert.Contains(t, prompt, "Average Duration: 156.79 ms")
	assert.Contains(t, prompt, "Execution Frequency: 17 times")
	assert.Contains(t, prompt, "Max Duration: 412.50 ms")
	assert.Contains(t, prompt, "Impact Score: 2665.41")
	assert.Contains(t, prompt, "root cause")
	assert.Contains(t, prompt, "under 150 words")
}

func TestBuildRecommendationPrompt_OmitsZeroOptionalStats(t *testing.T) {
	stats := QueryStats{
		Query:         "DELETE FROM sessions WHERE expires_at < now()",
		AvgDurationMS: 88.2,
		Frequency:     3,
	}

	prompt := BuildRecommendationPrompt(stats)

	assert.Contains(t, prompt, "Average Duration: 88.20 ms")
	assert.Contains(t, prompt, "Execution Frequency: 3 times")
	assert.NotContains(t, prompt, "Max Duration")
	assert.NotContains(t, prompt, "Impact Score")
}

func TestBuildRecommendationPrompt_StatsOrderIsStable(t *testing.T) {
	stats := QueryStats{
		Query:         "SELECT 1",
		AvgDurationMS: 10,
		MaxDurationMS: 20,
		Frequency:     2,
		ImpactScore:   20,
	}

	prompt := BuildRecommendationPrompt(stats)

	avgIdx := strings.Index(prompt, "Average Duration")
	freqIdx := strings.Index(prompt, "Execution Frequency")
	maxIdx := strings.Index(prompt, "Max Duration")
	impactIdx := strings.Index(prompt, "Impact Score")

	assert.True(t, avgIdx < freqIdx)
	assert.True(t, freqIdx < maxIdx)
	assert.True(t, maxIdx < impactIdx)
}
