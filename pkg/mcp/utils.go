package mcp

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// stringArg returns the trimmed string argument name, or "" when it is
// absent or not a string.
func stringArg(request mcp.CallToolRequest, name string) string {
	value, ok := request.Params.Arguments[name].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(value)
}

// jsonResult serializes v as the text of a tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to serialize result to JSON: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
