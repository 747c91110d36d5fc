// Package mcp exposes the analyzer to agent clients over the Model Context
// Protocol. The server speaks stdio; tools live in the tools subpackage.
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

// Server wraps the mcp-go MCPServer with querydoctor's call logging.
type Server struct {
	mcp    *server.MCPServer
	logger *zap.Logger
}

// NewServer builds a stdio MCP server that logs every tool call.
// A nil logger disables logging.
func NewServer(name, version string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("mcp")

	mcpServer := server.NewMCPServer(
		name,
		version,
		server.WithToolCapabilities(true),
		server.WithHooks(NewCallLogger(logger).Hooks()),
	)

	return &Server{
		mcp:    mcpServer,
		logger: logger,
	}
}

// MCP exposes the wrapped server so tool packages can register against it.
func (s *Server) MCP() *server.MCPServer {
	return s.mcp
}

// RegisterTool adds one tool with its handler.
func (s *Server) RegisterTool(tool mcp.Tool, handler server.ToolHandlerFunc) {
	s.mcp.AddTool(tool, handler)
}

// ServeStdio blocks serving the MCP protocol on stdin/stdout until the
// client disconnects.
func (s *Server) ServeStdio() error {
	s.logger.Info("serving MCP on stdio")
	return server.ServeStdio(s.mcp)
}
