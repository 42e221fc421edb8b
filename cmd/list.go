package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kojohq/topicscope/internal/utils"
	"github.com/kojohq/topicscope/pkg/review"
	"github.com/kojohq/topicscope/pkg/topic"
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List topic candidates with their latest scores",
	RunE: func(cmd *cobra.Command, args []string) error {
		status, _ := cmd.Flags().GetString("status")
		limit, _ := cmd.Flags().GetInt("limit")
		page, _ := cmd.Flags().GetInt("page")
		if page < 1 {
			page = 1
		}

		st := topic.Status(status)
		if !st.Valid() {
			return fmt.Errorf("unknown status %q (available: pending, approved, rejected, deferred)", status)
		}

		db, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		opts := review.BatchOptions{Status: st, Limit: limit * page}
		if cmd.Flags().Changed("min-score") {
			v, _ := cmd.Flags().GetFloat64("min-score")
			opts.MinScore = &v
		}
		items, err := review.FetchBatch(cmd.Context(), db, opts)
		if err != nil {
			return err
		}

		start := (page - 1) * limit
		if start > len(items) {
			start = len(items)
		}
		items = items[start:]
		if len(items) == 0 {
			fmt.Printf("No %s topics on page %d.\n", st, page)
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "RANK\tSCORE\tPLATFORM\tCLUSTER\tTITLE\tID")
		for _, it := range items {
			score := "-"
			if it.Score != nil {
				score = fmt.Sprintf("%.3f", it.Score.Score)
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
				it.Rank, score, it.Topic.Platform, it.Topic.Cluster,
				utils.TruncateText(it.Topic.Title, 60), it.Topic.ID)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().StringP("status", "", "pending", "Status to list: pending, approved, rejected, deferred")
	listCmd.Flags().IntP("limit", "n", 20, "Topics per page")
	listCmd.Flags().IntP("page", "p", 1, "Page number")
	listCmd.Flags().Float64P("min-score", "m", 0, "Hide topics scoring below this value")
}
