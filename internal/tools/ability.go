package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/motivaitor/insight/internal/ability"
)

// AbilityTool handles the ability_scores MCP tool.
type AbilityTool struct {
	engine *ability.Engine
	states ability.StateStore
	now    func() time.Time
}

// NewAbilityTool creates an AbilityTool.
func NewAbilityTool(engine *ability.Engine, states ability.StateStore) *AbilityTool {
	return &AbilityTool{engine: engine, states: states, now: time.Now}
}

// Definition returns the MCP tool definition for ability_scores.
func (t *AbilityTool) Definition() mcp.Tool {
	return mcp.NewTool("ability_scores",
		mcp.WithDescription(
			"Return the user's willpower, health and strength scores (0-100). "+
				"Set recompute to refresh them from recent activity first.",
		),
		mcp.WithString("owner_id",
			mcp.Required(),
			mcp.Description("User whose scores are returned"),
		),
		mcp.WithBoolean("recompute",
			mcp.Description("Recompute before returning (default: false)"),
		),
	)
}

// Handle processes the ability_scores tool call.
func (t *AbilityTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	owner := ownerArg(req)
	if !owner.Valid() {
		return mcp.NewToolResultError("'owner_id' is required"), nil
	}

	var (
		state ability.State
		err   error
	)
	if boolArg(req, "recompute", false) {
		state, err = t.engine.Recompute(ctx, owner, t.now())
	} else {
		state, err = t.states.GetAbilities(ctx, owner)
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("ability scores failed: %v", err)), nil
	}

	state = state.Rounded()
	computed := "never"
	if !state.ComputedAt.IsZero() {
		computed = state.ComputedAt.UTC().Format(time.RFC3339)
	}
	return mcp.NewToolResultText(fmt.Sprintf(
		"Willpower: %.1f\nHealth: %.1f\nStrength: %.1f\nComputed: %s\n",
		state.Willpower, state.Health, state.Strength, computed,
	)), nil
}
