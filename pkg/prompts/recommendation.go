// Package prompts builds the prompts sent to the recommendation generator.
package prompts

import (
	"fmt"
	"strings"
)

// RecommendationSystemMessage frames every recommendation call.
const RecommendationSystemMessage = "You are a PostgreSQL performance optimization expert."

// QueryStats carries the per-pattern statistics included in the prompt.
// Query is the raw example text: literals and casing give the model context
// that normalized placeholders would hide. Optional fields (MaxDurationMS,
// ImpactScore) are omitted from the prompt when zero.
type QueryStats struct {
	Query         string
	AvgDurationMS float64
	MaxDurationMS float64
	Frequency     int
	ImpactScore   float64
}

// BuildRecommendationPrompt creates the user prompt for one slow-query
// pattern: the statement, its execution statistics, and the requested
// response structure.
func BuildRecommendationPrompt(stats QueryStats) string {
	statLines := []string{
		fmt.Sprintf("Average Duration: %.2f ms", stats.AvgDurationMS),
		fmt.Sprintf("Execution Frequency: %d times", stats.Frequency),
	}
	if stats.MaxDurationMS > 0 {
		statLines = append(statLines, fmt.Sprintf("Max Duration: %.2f ms", stats.MaxDurationMS))
	}
	if stats.ImpactScore > 0 {
		statLines = append(statLines, fmt.Sprintf("Impact Score: %.2f", stats.ImpactScore))
	}

	var prompt strings.Builder
	prompt.WriteString("You are a PostgreSQL database performance expert.\n\n")
	prompt.WriteString("Analyze this slow-running query:\n\n")
	prompt.WriteString(fmt.Sprintf("Query: %s\n\n", stats.Query))
	prompt.WriteString("Statistics:\n")
	prompt.WriteString(strings.Join(statLines, "\n"))
	prompt.WriteString("\n\nProvide:\n")
	prompt.WriteString("1. Most likely root cause of slowness\n")
	prompt.WriteString("2. Specific, actionable optimization recommendation (e.g., add index, rewrite query)\n")
	prompt.WriteString("3. Estimated performance impact (e.g., \"30-50% faster\")\n\n")
	prompt.WriteString("Keep response concise and under 150 words.")

	return prompt.String()
}
