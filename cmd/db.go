package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kojohq/topicscope/pkg/store"
	"github.com/kojohq/topicscope/pkg/topic"
)

// dbCmd represents the db command
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Interact with the topicscope store",
}

// shellCmd represents the shell command
var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start an interactive shell to the store",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := storePath(cmd)
		if err != nil {
			return err
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return fmt.Errorf("store file not found: %s", path)
		}

		// Check if sqlite3 is in PATH
		sqlitePath, err := exec.LookPath("sqlite3")
		if err != nil {
			return fmt.Errorf("sqlite3 command not found in your PATH. Please install it to use the db shell")
		}

		// Print schema first
		fmt.Println("--> Store schema:")
		schemaCmd := exec.Command(sqlitePath, path, ".schema")
		schemaCmd.Stdout = os.Stdout
		schemaCmd.Stderr = os.Stderr
		if err := schemaCmd.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: couldn't retrieve schema: %v\n", err)
		}
		fmt.Println("\n--> Starting interactive shell... (Ctrl+D to exit)")

		c := exec.Command(sqlitePath, path)
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr

		return c.Run()
	},
}

// dbStatsCmd represents the stats command
var dbStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Prints counts of candidates, scores, audit events, and job runs.",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer db.Close()
		ctx := cmd.Context()

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.AlignRight)
		fmt.Fprintln(w, "COLLECTION\tDOCUMENTS\t")

		total := 0
		collections := []string{
			topic.CandidatesCollection,
			topic.ScoresCollection,
			topic.AuditCollection,
			topic.JobRunsCollection,
		}
		for _, coll := range collections {
			n, err := db.Count(ctx, coll, nil)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%s\t%d\t\n", coll, n)
			total += n
		}

		fmt.Fprintln(w, " \t \t")
		fmt.Fprintf(w, "TOTAL\t%d\t\n", total)
		w.Flush()

		fmt.Println()
		byStatus := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.AlignRight)
		fmt.Fprintln(byStatus, "STATUS\tCANDIDATES\t")
		for _, st := range []topic.Status{topic.StatusPending, topic.StatusApproved, topic.StatusRejected, topic.StatusDeferred} {
			n, err := db.Count(ctx, topic.CandidatesCollection,
				[]store.Filter{store.Where("status", store.OpEq, string(st))})
			if err != nil {
				return err
			}
			fmt.Fprintf(byStatus, "%s\t%d\t\n", st, n)
		}
		return byStatus.Flush()
	},
}

func init() {
	rootCmd.AddCommand(dbCmd)
	dbCmd.AddCommand(shellCmd)
	dbCmd.AddCommand(dbStatsCmd)
}
