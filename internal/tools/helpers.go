// Package tools exposes insight to assistants as MCP tools.
//
// Each tool is a struct with its dependencies injected via constructor,
// a Definition that returns the mcp.Tool schema and a Handle that serves
// the call. Tool failures are reported as error results, never as Go errors,
// so the assistant sees the message.
package tools

import (
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/motivaitor/insight/internal/activity"
)

// intArg extracts an integer argument, returning defaultVal if the key is
// missing or not a number (JSON numbers are float64).
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

func boolArg(req mcp.CallToolRequest, key string, defaultVal bool) bool {
	v, ok := req.GetArguments()[key].(bool)
	if !ok {
		return defaultVal
	}
	return v
}

func ownerArg(req mcp.CallToolRequest) activity.OwnerID {
	return activity.OwnerID(strings.TrimSpace(req.GetString("owner_id", "")))
}
