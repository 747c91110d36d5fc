package mcp

import (
	"context"
	"sync"
	"time"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

// CallLogger records tool invocations through mcp-go hooks: one log line per
// completed call with its outcome and duration. Tool arguments are never
// logged; they can carry full query text.
type CallLogger struct {
	logger *zap.Logger

	// startTimes tracks when tool calls begin, keyed by request ID.
	startTimes sync.Map
}

// NewCallLogger creates a CallLogger writing to the given logger.
func NewCallLogger(logger *zap.Logger) *CallLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CallLogger{logger: logger.Named("calls")}
}

// Hooks returns mcp-go Hooks configured to capture tool call events.
func (c *CallLogger) Hooks() *server.Hooks {
	hooks := &server.Hooks{}
	hooks.AddBeforeCallTool(c.beforeCallTool)
	hooks.AddAfterCallTool(c.afterCallTool)
	hooks.AddOnError(c.onError)
	return hooks
}

func (c *CallLogger) beforeCallTool(_ context.Context, id any, _ *mcplib.CallToolRequest) {
	c.startTimes.Store(id, time.Now())
}

func (c *CallLogger) afterCallTool(_ context.Context, id any, req *mcplib.CallToolRequest, result *mcplib.CallToolResult) {
	start, _ := c.loadAndDeleteStart(id)

	fields := []zap.Field{
		zap.String("tool", req.Params.Name),
		zap.Duration("elapsed", time.Since(start)),
	}
	if result != nil && result.IsError {
		c.logger.Warn("tool call returned error result", fields...)
		return
	}
	c.logger.Info("tool call completed", fields...)
}

func (c *CallLogger) onError(_ context.Context, id any, method mcplib.MCPMethod, message any, err error) {
	if method != mcplib.MethodToolsCall {
		return
	}

	req, ok := message.(*mcplib.CallToolRequest)
	if !ok {
		return
	}

	start, _ := c.loadAndDeleteStart(id)
	c.logger.Error("tool call failed",
		zap.String("tool", req.Params.Name),
		zap.Duration("elapsed", time.Since(start)),
		zap.Error(err))
}

func (c *CallLogger) loadAndDeleteStart(id any) (time.Time, bool) {
	if v, ok := c.startTimes.LoadAndDelete(id); ok {
		return v.(time.Time), true
	}
	return time.Now(), false
}
