package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/motivaitor/insight/internal/activity"
	"github.com/motivaitor/insight/internal/scheduler"
)

var recomputeOwner string

var recomputeCmd = &cobra.Command{
	Use:   "recompute",
	Short: "Recompute ability scores",
	Long:  "Recompute ability scores for one owner, or for every known owner when --owner is omitted.",
	RunE:  runRecompute,
}

func init() {
	recomputeCmd.Flags().StringVar(&recomputeOwner, "owner", "", "owner id (default: all owners)")
}

func runRecompute(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	now := time.Now()
	if recomputeOwner != "" {
		state, err := a.abilities.Recompute(ctx, activity.OwnerID(recomputeOwner), now)
		if err != nil {
			return fmt.Errorf("recompute %s: %w", recomputeOwner, err)
		}
		state = state.Rounded()
		fmt.Printf("%s  willpower %.1f  health %.1f  strength %.1f\n",
			recomputeOwner, state.Willpower, state.Health, state.Strength)
		return nil
	}

	sched, err := scheduler.New(a.db, a.abilities, cfg.Scheduler.Cron, cfg.Scheduler.Concurrency)
	if err != nil {
		return err
	}
	res, err := sched.RunOnce(ctx, now)
	if err != nil {
		return err
	}
	fmt.Printf("recomputed %d owners (%d failed)\n", res.Owners, res.Failed)
	if res.Failed > 0 {
		return fmt.Errorf("%d recomputes failed", res.Failed)
	}
	return nil
}
