package cli

import (
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/motivaitor/insight/internal/tools"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve insight tools over MCP stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		s := tools.NewServer(tools.Deps{
			Reader:   a.db,
			States:   a.db,
			Engine:   a.abilities,
			Momentum: a.momentum,
			Gateway:  a.gateway,
		}, VersionString())
		return server.ServeStdio(s)
	},
}
