package tools

import "github.com/mark3labs/mcp-go/mcp"

// getOptionalInt returns an integer argument, or 0 when it is absent or not a
// number. JSON numbers arrive as float64.
func getOptionalInt(req mcp.CallToolRequest, key string) int {
	args, ok := req.Params.Arguments.(map[string]any)
	if !ok {
		return 0
	}
	val, ok := args[key].(float64)
	if !ok {
		return 0
	}
	return int(val)
}
