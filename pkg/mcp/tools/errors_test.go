package tools

import (
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func errorResultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "error result content should be text")
	return text.Text
}

func TestNewErrorResult(t *testing.T) {
	result := NewErrorResult("log_not_found", "no such file")

	assert.True(t, result.IsError)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal([]byte(errorResultText(t, result)), &resp))
	assert.True(t, resp.Error)
	assert.Equal(t, "log_not_found", resp.Code)
	assert.Equal(t, "no such file", resp.Message)
	assert.Nil(t, resp.Details)
}

func TestNewErrorResultWithDetails(t *testing.T) {
	result := NewErrorResultWithDetails("invalid_parameters", "unknown log format",
		map[string]any{"accepted_formats": []string{"plain", "delimited"}})

	assert.True(t, result.IsError)

	text := errorResultText(t, result)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal([]byte(text), &resp))
	assert.Equal(t, "invalid_parameters", resp.Code)

	details, ok := resp.Details.(map[string]any)
	require.True(t, ok)
	assert.Contains(t, details, "accepted_formats")
	assert.Contains(t, text, "plain")
}

func TestErrorResponse_OmitsEmptyDetails(t *testing.T) {
	data, err := json.Marshal(ErrorResponse{Error: true, Code: "x", Message: "y"})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "details")
}
