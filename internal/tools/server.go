package tools

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/motivaitor/insight/internal/ability"
	"github.com/motivaitor/insight/internal/activity"
	"github.com/motivaitor/insight/internal/momentum"
	"github.com/motivaitor/insight/internal/retrieval"
)

// Deps are the services the MCP tools call into.
type Deps struct {
	Reader   activity.Reader
	States   ability.StateStore
	Engine   *ability.Engine
	Momentum momentum.Calculator
	Gateway  *retrieval.Gateway
}

// NewServer creates an MCP server with every insight tool registered.
func NewServer(deps Deps, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"insight",
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	contextTool := NewContextTool(deps.Gateway)
	s.AddTool(contextTool.Definition(), contextTool.Handle)

	momentumTool := NewMomentumTool(deps.Reader, deps.Momentum)
	s.AddTool(momentumTool.Definition(), momentumTool.Handle)

	abilityTool := NewAbilityTool(deps.Engine, deps.States)
	s.AddTool(abilityTool.Definition(), abilityTool.Handle)

	return s
}
