// Package tools provides the MCP tools exposed by ekaya-insights.
package tools

import (
	"encoding/json"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ekaya-inc/ekaya-insights/pkg/apperrors"
)

// ErrorResponse represents a structured error in tool results.
// It is returned as a successful tool result so the client sees the details
// instead of a bare protocol error.
type ErrorResponse struct {
	Error   bool   `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// NewErrorResult creates a tool result containing a structured error.
// Use this for errors the caller can act on (bad parameters, unknown ids).
// System failures should still return Go errors.
func NewErrorResult(code, message string) *mcp.CallToolResult {
	return NewErrorResultWithDetails(code, message, nil)
}

// NewErrorResultWithDetails creates an error result with additional context.
//
// Example:
//
//	return NewErrorResultWithDetails(
//	    "dataset_not_found",
//	    "no dataset with that id",
//	    map[string]any{"id": id},
//	), nil
func NewErrorResultWithDetails(code, message string, details any) *mcp.CallToolResult {
	resp := ErrorResponse{
		Error:   true,
		Code:    code,
		Message: message,
		Details: details,
	}
	jsonBytes, _ := json.Marshal(resp)
	result := mcp.NewToolResultText(string(jsonBytes))
	result.IsError = true
	return result
}

// DomainErrorResult converts a known domain error into a tool error result.
// It returns nil for errors that are not actionable by the caller.
func DomainErrorResult(err error, details any) *mcp.CallToolResult {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		return NewErrorResultWithDetails("not_found", "Dataset not found", details)
	case errors.Is(err, apperrors.ErrForbidden):
		return NewErrorResultWithDetails("forbidden", "Access denied", details)
	case errors.Is(err, apperrors.ErrMissingOwner):
		return NewErrorResult("unauthorized", "Authentication required")
	default:
		return nil
	}
}
