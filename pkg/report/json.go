package report

import (
	"fmt"

	json "github.com/goccy/go-json"

	"github.com/querydoctor/querydoctor/pkg/models"
)

// JSONRenderer serializes the full analysis result for machine consumers.
// Field order is fixed by the struct tags, so output is deterministic for a
// given result.
type JSONRenderer struct{}

var _ Renderer = (*JSONRenderer)(nil)

// NewJSONRenderer creates a JSON renderer.
func NewJSONRenderer() *JSONRenderer {
	return &JSONRenderer{}
}

// Render implements Renderer.
func (r *JSONRenderer) Render(result *models.AnalysisResult) ([]byte, error) {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal analysis result: %w", err)
	}
	return append(data, '\n'), nil
}
