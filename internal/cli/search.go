package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/motivaitor/insight/internal/activity"
)

var (
	searchOwner string
	searchQuery string
	searchLimit int
	searchRaw   bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search an owner's indexed documents",
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().StringVar(&searchOwner, "owner", "", "owner id")
	searchCmd.Flags().StringVarP(&searchQuery, "query", "q", "", "search query")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "maximum number of results (default from config)")
	searchCmd.Flags().BoolVar(&searchRaw, "raw", false, "print scores instead of the context block")
	_ = searchCmd.MarkFlagRequired("owner")
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := searchQuery
	if query == "" {
		query = strings.Join(args, " ")
	}
	if query == "" {
		return fmt.Errorf("query required: use -q or pass it as arguments")
	}

	ctx := cmd.Context()
	a, err := openApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	limit := searchLimit
	if limit <= 0 {
		limit = cfg.Retrieval.Limit
	}
	owner := activity.OwnerID(searchOwner)

	if !searchRaw {
		fmt.Print(a.gateway.GetContext(ctx, owner, query, limit))
		return nil
	}

	results := a.gateway.Documents(ctx, owner, query, limit)
	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}
	for i, r := range results {
		fmt.Printf("%d. [%.3f] %s (%s, %s)\n   %s\n", i+1, r.Relevance, r.Document.ID,
			r.Document.Type(), r.Document.Date(), r.Document.Text)
	}
	return nil
}
