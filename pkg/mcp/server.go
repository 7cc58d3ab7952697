// Package mcp exposes dataset tools over the Model Context Protocol.
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-insights/pkg/mcp/tools"
	"github.com/ekaya-inc/ekaya-insights/pkg/services"
)

// ServerName is the MCP implementation name reported to clients.
const ServerName = "ekaya-insights"

// Deps are the services backing the MCP tools.
type Deps struct {
	DatasetService services.DatasetService
	// AIProvider is reported by the health tool.
	AIProvider string
}

// Server wraps the mcp-go MCPServer with the dataset tools registered.
type Server struct {
	mcp    *server.MCPServer
	logger *zap.Logger
}

// NewServer creates an MCP server with the health, list_datasets and
// get_dataset tools registered.
func NewServer(version string, deps Deps, logger *zap.Logger) *Server {
	mcpServer := server.NewMCPServer(
		ServerName,
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	s := &Server{
		mcp:    mcpServer,
		logger: logger.Named("mcp"),
	}

	tools.RegisterHealthTool(mcpServer, version, deps.AIProvider)
	if deps.DatasetService != nil {
		tools.RegisterDatasetTools(mcpServer, &tools.DatasetToolDeps{
			DatasetService: deps.DatasetService,
			Logger:         s.logger,
		})
	}

	return s
}

// MCP returns the underlying MCPServer.
func (s *Server) MCP() *server.MCPServer {
	return s.mcp
}

// NewStreamableHTTPServer creates an HTTP transport server wrapping this MCP server.
// The HTTP mux handles routing to /mcp, so no endpoint path is configured here.
func (s *Server) NewStreamableHTTPServer() *server.StreamableHTTPServer {
	return server.NewStreamableHTTPServer(
		s.mcp,
		server.WithStateLess(true),
	)
}

// RegisterTool is a convenience wrapper for registering a tool.
func (s *Server) RegisterTool(tool mcp.Tool, handler server.ToolHandlerFunc) {
	s.mcp.AddTool(tool, handler)
}
