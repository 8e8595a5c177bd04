package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/motivaitor/insight/internal/retrieval"
)

// ContextTool handles the get_context MCP tool.
type ContextTool struct {
	gateway *retrieval.Gateway
}

// NewContextTool creates a ContextTool.
func NewContextTool(gateway *retrieval.Gateway) *ContextTool {
	return &ContextTool{gateway: gateway}
}

// Definition returns the MCP tool definition for get_context.
func (t *ContextTool) Definition() mcp.Tool {
	return mcp.NewTool("get_context",
		mcp.WithDescription(
			"Retrieve the user's own tasks, workouts, health logs and notes most related to a query, "+
				"formatted one per line for prompt construction.",
		),
		mcp.WithString("owner_id",
			mcp.Required(),
			mcp.Description("User whose documents are searched"),
		),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Natural language query"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Max documents (default: 3)"),
		),
	)
}

// Handle processes the get_context tool call.
func (t *ContextTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	owner := ownerArg(req)
	if !owner.Valid() {
		return mcp.NewToolResultError("'owner_id' is required"), nil
	}
	query := req.GetString("query", "")
	if query == "" {
		return mcp.NewToolResultError("'query' is required"), nil
	}

	return mcp.NewToolResultText(t.gateway.GetContext(ctx, owner, query, intArg(req, "limit", 0))), nil
}
