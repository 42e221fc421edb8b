package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kojohq/topicscope/internal/utils"
	"github.com/kojohq/topicscope/pkg/jobs"
	"github.com/kojohq/topicscope/pkg/sources"
	"github.com/kojohq/topicscope/pkg/whttp"
)

// ingestCmd represents the ingest command
var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Fetch new topic candidates from Reddit, Hacker News, and RSS feeds",
	Long: `Fetches topic candidates from the configured sources, deduplicates
them against recently stored candidates, and stores new ones as
pending for review.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sourceList, _ := cmd.Flags().GetString("source")
		limit, _ := cmd.Flags().GetInt("limit")

		client := whttp.NewClient()
		var srcs []sources.Source
		for _, name := range strings.Split(sourceList, ",") {
			switch strings.TrimSpace(strings.ToLower(name)) {
			case "reddit":
				srcs = append(srcs, sources.NewRedditSource(client))
			case "hackernews", "hn":
				srcs = append(srcs, sources.NewHackerNewsSource(client))
			case "rss":
				srcs = append(srcs, sources.NewRSSSource(client))
			case "":
			default:
				return fmt.Errorf("unknown source %q (available: reddit, hackernews, rss)", name)
			}
		}
		if len(srcs) == 0 {
			return fmt.Errorf("no sources selected")
		}

		db, unlock, err := openLockedStore(cmd)
		if err != nil {
			return err
		}
		defer unlock()

		tracker := jobs.NewTracker(db)
		jobRun, err := tracker.Start(cmd.Context(), "ingest")
		if err != nil {
			utils.Log.Warnf("could not record job run: %v", err)
		}

		result, err := sources.NewIngestor(db, srcs...).Run(cmd.Context(), limit)
		if err != nil {
			if jobRun != nil {
				_ = tracker.Fail(cmd.Context(), jobRun, err)
			}
			return err
		}
		if jobRun != nil {
			counters := map[string]int{
				"fetched":    result.Fetched,
				"stored":     result.Stored,
				"duplicates": result.Duplicates,
				"errors":     len(result.Errors),
			}
			if err := tracker.Complete(cmd.Context(), jobRun, counters); err != nil {
				utils.Log.Warnf("could not finish job run record: %v", err)
			}
		}

		fmt.Printf("Fetched %d topics: %d stored, %d duplicates\n",
			result.Fetched, result.Stored, result.Duplicates)
		if len(result.Errors) > 0 {
			fmt.Printf("%d source errors (see log)\n", len(result.Errors))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().StringP("source", "", "reddit,hackernews,rss", "Comma-separated sources to fetch from")
	ingestCmd.Flags().IntP("limit", "n", 25, "Maximum topics to fetch per source")
}
