package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kojohq/topicscope/internal/utils"
	"github.com/kojohq/topicscope/pkg/audit"
)

// auditCmd represents the audit command
var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Show recent review decisions from the audit trail",
	RunE: func(cmd *cobra.Command, args []string) error {
		stage, _ := cmd.Flags().GetString("stage")
		actor, _ := cmd.Flags().GetString("actor")
		limit, _ := cmd.Flags().GetInt("limit")

		db, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		events, err := audit.NewTrail(db).ListRecent(cmd.Context(), audit.Stage(stage), actor, limit)
		if err != nil {
			return err
		}
		if len(events) == 0 {
			fmt.Println("No audit events.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "WHEN\tSTAGE\tACTOR\tDECISION\tREASON\tNOTES")
		for _, e := range events {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				e.CreatedAt.Format("2006-01-02 15:04"),
				e.Stage, e.Actor, describeAction(e.HumanAction),
				e.HumanAction.ReasonCode,
				utils.TruncateText(e.HumanAction.Notes, 40))
		}
		return w.Flush()
	},
}

func describeAction(a audit.HumanAction) string {
	var parts []string
	if len(a.SelectedIDs) > 0 {
		parts = append(parts, "approved "+strings.Join(a.SelectedIDs, ","))
	}
	if len(a.RejectedIDs) > 0 {
		parts = append(parts, "rejected "+strings.Join(a.RejectedIDs, ","))
	}
	if len(a.DeferredIDs) > 0 {
		parts = append(parts, "deferred "+strings.Join(a.DeferredIDs, ","))
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, "; ")
}

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.Flags().StringP("stage", "", "", "Filter by stage (topic_selection, option_selection, ethics_review)")
	auditCmd.Flags().StringP("actor", "", "", "Filter by actor")
	auditCmd.Flags().IntP("limit", "n", 20, "Maximum events to show")
}
