package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/motivaitor/insight/internal/activity"
	"github.com/motivaitor/insight/internal/momentum"
)

// MomentumTool handles the project_momentum MCP tool.
type MomentumTool struct {
	reader activity.Reader
	calc   momentum.Calculator
	now    func() time.Time
}

// NewMomentumTool creates a MomentumTool.
func NewMomentumTool(reader activity.Reader, calc momentum.Calculator) *MomentumTool {
	return &MomentumTool{reader: reader, calc: calc, now: time.Now}
}

// Definition returns the MCP tool definition for project_momentum.
func (t *MomentumTool) Definition() mcp.Tool {
	return mcp.NewTool("project_momentum",
		mcp.WithDescription(
			"List the user's projects with completion percentage, pomodoro count, last activity "+
				"and whether the project is rusting.",
		),
		mcp.WithString("owner_id",
			mcp.Required(),
			mcp.Description("User whose projects are listed"),
		),
	)
}

// Handle processes the project_momentum tool call.
func (t *MomentumTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	owner := ownerArg(req)
	if !owner.Valid() {
		return mcp.NewToolResultError("'owner_id' is required"), nil
	}

	projects, err := t.calc.ProjectsWithStats(ctx, t.reader, owner, t.now())
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("momentum failed: %v", err)), nil
	}
	if len(projects) == 0 {
		return mcp.NewToolResultText("No projects found."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d projects:\n\n", len(projects))
	for _, p := range projects {
		last := "never"
		if p.Stats.LastActivity != nil {
			last = p.Stats.LastActivity.Format(time.DateOnly)
		}
		state := "active"
		if p.Stats.IsRusting {
			state = "rusting"
		}
		fmt.Fprintf(&b, "- %s: %d%% done, %d pomodoros, last activity %s (%s)\n",
			p.Project.Name, p.Stats.ProgressPct, p.Stats.TotalPomodoros, last, state)
	}
	return mcp.NewToolResultText(b.String()), nil
}
