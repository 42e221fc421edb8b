package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kojohq/topicscope/internal/utils"
	"github.com/kojohq/topicscope/pkg/jobs"
)

// jobsCmd represents the jobs command
var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Show recent ingestion and scoring runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		job, _ := cmd.Flags().GetString("job")
		limit, _ := cmd.Flags().GetInt("limit")

		db, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		runs, err := jobs.NewTracker(db).ListRecent(cmd.Context(), job, limit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("No recorded runs.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "STARTED\tJOB\tSTATUS\tDURATION\tCOUNTERS")
		for _, run := range runs {
			duration := "-"
			if run.FinishedAt != nil {
				duration = fmt.Sprintf("%.1fs", run.DurationSeconds)
			}
			detail := ""
			for k, v := range run.Counters {
				detail += fmt.Sprintf("%s=%d ", k, v)
			}
			if run.Error != "" {
				detail = utils.TruncateText(run.Error, 50)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				run.StartedAt.Format("2006-01-02 15:04"),
				run.Job, run.Status, duration, detail)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(jobsCmd)
	jobsCmd.Flags().StringP("job", "", "", "Filter by job name (ingest, score)")
	jobsCmd.Flags().IntP("limit", "n", 10, "Maximum runs to show")
}
