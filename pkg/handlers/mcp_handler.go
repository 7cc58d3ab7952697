package handlers

import (
	"net/http"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-insights/pkg/auth"
	"github.com/ekaya-inc/ekaya-insights/pkg/mcp"
	"github.com/ekaya-inc/ekaya-insights/pkg/middleware"
)

// MCPHandler handles MCP protocol requests over HTTP.
type MCPHandler struct {
	httpServer *server.StreamableHTTPServer
	logger     *zap.Logger
}

// NewMCPHandler creates a new MCP handler from an MCP server.
func NewMCPHandler(mcpServer *mcp.Server, logger *zap.Logger) *MCPHandler {
	return &MCPHandler{
		httpServer: mcpServer.NewStreamableHTTPServer(),
		logger:     logger,
	}
}

// RegisterRoutes registers the MCP endpoint behind authentication.
// Layers from outermost: method check, auth, database scope, JSON-RPC logging.
func (h *MCPHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware, scope func(http.HandlerFunc) http.HandlerFunc) {
	loggedHandler := middleware.MCPRequestLogger(h.logger)(h.httpServer)
	scopedHandler := scope(loggedHandler.ServeHTTP)
	authHandler := authMiddleware.RequireAuth(scopedHandler)
	mux.Handle("/mcp", h.requirePOST(authHandler))
}

// requirePOST returns 405 Method Not Allowed for non-POST requests.
// MCP over HTTP Streaming requires POST for JSON-RPC requests.
func (h *MCPHandler) requirePOST(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", "POST")
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		next(w, r)
	})
}
