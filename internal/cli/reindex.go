package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/motivaitor/insight/internal/activity"
)

var reindexOwner string

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Re-embed documents stored with a different embedder",
	Long: "Rewrite the vectors of documents embedded by another model than the configured one, " +
		"for one owner or for every owner with indexed documents.",
	RunE: runReindex,
}

func init() {
	reindexCmd.Flags().StringVar(&reindexOwner, "owner", "", "owner id (default: all owners)")
}

func runReindex(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	owners := []activity.OwnerID{activity.OwnerID(reindexOwner)}
	if reindexOwner == "" {
		if owners, err = a.db.DocumentOwners(ctx); err != nil {
			return err
		}
	}

	total := 0
	for _, owner := range owners {
		n, err := a.index.Reembed(ctx, owner)
		total += n
		if err != nil {
			return fmt.Errorf("reindex %s: %w", owner, err)
		}
		slog.Debug("owner reindexed", "owner", owner, "documents", n)
	}
	fmt.Printf("re-embedded %d documents across %d owners\n", total, len(owners))
	return nil
}
