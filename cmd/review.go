package cmd

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kojohq/topicscope/internal/utils"
	"github.com/kojohq/topicscope/pkg/audit"
	"github.com/kojohq/topicscope/pkg/review"
	"github.com/kojohq/topicscope/pkg/topic"
)

// reviewCmd represents the review command
var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Review scored topic candidates interactively",
	Long: `Walks through pending candidates ranked by score, one at a time.
Each topic can be approved, rejected (with a reason code), deferred,
or skipped. Progress is saved so an interrupted review resumes where
it left off.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		resume, _ := cmd.Flags().GetBool("resume")
		sessionFile, _ := cmd.Flags().GetString("session-file")

		var minScore *float64
		if cmd.Flags().Changed("min-score") {
			v, _ := cmd.Flags().GetFloat64("min-score")
			minScore = &v
		}

		db, unlock, err := openLockedStore(cmd)
		if err != nil {
			return err
		}
		defer unlock()

		session := review.NewSession(sessionFile)
		if resume {
			session, err = review.LoadSession(sessionFile)
			if err != nil {
				return fmt.Errorf("could not resume session: %w", err)
			}
		}

		items, err := review.FetchBatch(cmd.Context(), db, review.BatchOptions{
			Limit:    limit,
			MinScore: minScore,
		})
		if err != nil {
			return err
		}
		if len(items) == 0 {
			fmt.Println("No pending topics to review. Run 'topicscope ingest' and 'topicscope score' first.")
			return nil
		}

		reader := bufio.NewReader(os.Stdin)
		machine := review.NewMachine(db, audit.NewTrail(db), viper.GetString("review.actor"))
		machine.Confirm = func(prompt string) bool {
			fmt.Printf("%s [y/N]: ", prompt)
			answer, _ := reader.ReadString('\n')
			return strings.HasPrefix(strings.TrimSpace(strings.ToLower(answer)), "y")
		}

		remaining := 0
		for _, it := range items {
			if !session.Processed(it.Topic.ID) {
				remaining++
			}
		}
		fmt.Printf("Reviewing %d topics (%d already handled this session)\n\n",
			remaining, len(items)-remaining)

		// Save progress if the operator interrupts mid-review.
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt)
		defer signal.Stop(sigCh)
		go func() {
			<-sigCh
			if err := session.Save(); err != nil {
				utils.Log.Warnf("could not save session: %v", err)
			}
			fmt.Println("\nSession saved. Resume with 'topicscope review --resume'.")
			os.Exit(130)
		}()

		// presented tracks display order for the back action; revisit
		// bypasses the processed-skip for one showing.
		var presented []int
		revisit := map[int]bool{}

		for i := 0; i < len(items); i++ {
			it := items[i]
			if !revisit[i] && session.Processed(it.Topic.ID) {
				continue
			}
			delete(revisit, i)
			if len(presented) == 0 || presented[len(presented)-1] != i {
				presented = append(presented, i)
			}

			printItem(it)
			choice := promptChoice(reader)

			switch choice {
			case "a":
				if err := applyDecision(cmd, machine, session, it, topic.StatusApproved, reader); err != nil {
					return err
				}
			case "r":
				if err := applyDecision(cmd, machine, session, it, topic.StatusRejected, reader); err != nil {
					return err
				}
			case "d":
				if err := applyDecision(cmd, machine, session, it, topic.StatusDeferred, reader); err != nil {
					return err
				}
			case "s":
				session.RecordSkip()
			case "b":
				if len(presented) < 2 {
					fmt.Println("No previous topic.")
					i--
					continue
				}
				prev := presented[len(presented)-2]
				presented = presented[:len(presented)-2]
				revisit[prev] = true
				i = prev - 1
				continue
			case "u":
				action := session.UndoLast()
				if action == nil {
					fmt.Println("Nothing to undo.")
				} else if err := machine.Undo(cmd.Context(), action); err != nil {
					utils.Log.Errorf("undo failed: %v", err)
				} else {
					fmt.Printf("Reverted %s to %s.\n", action.TopicID, action.OldStatus)
				}
				// Re-present the current topic.
				i--
				continue
			case "q":
				if err := session.Save(); err != nil {
					utils.Log.Warnf("could not save session: %v", err)
				}
				printStats(session)
				fmt.Println("Session saved. Resume with 'topicscope review --resume'.")
				return nil
			default:
				fmt.Println("Unknown choice.")
				i--
				continue
			}
		}

		printStats(session)
		session.Remove()
		fmt.Println("Review complete.")
		return nil
	},
}

func printItem(it review.Item) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "#%d\t%s\n", it.Rank, utils.TruncateText(it.Topic.Title, 90))
	fmt.Fprintf(w, "\tplatform: %s\tcluster: %s\n", it.Topic.Platform, it.Topic.Cluster)
	if it.Topic.SourceURL != "" {
		fmt.Fprintf(w, "\turl: %s\n", it.Topic.SourceURL)
	}
	if it.Score != nil {
		fmt.Fprintf(w, "\tscore: %.3f\t(run %s)\n", it.Score.Score, it.Score.RunID)
		for _, comp := range []string{topic.ComponentRecency, topic.ComponentVelocity, topic.ComponentAudience, topic.ComponentIntegrity} {
			if reason, ok := it.Score.Reasoning[comp]; ok {
				fmt.Fprintf(w, "\t  %s: %.2f\t%s\n", comp, it.Score.Components[comp], utils.TruncateText(reason, 70))
			}
		}
	} else {
		fmt.Fprintf(w, "\tscore: unscored\n")
	}
	w.Flush()
}

func promptChoice(reader *bufio.Reader) string {
	fmt.Print("\n[A]pprove  [R]eject  [D]efer  [S]kip  [B]ack  [U]ndo  [Q]uit > ")
	answer, _ := reader.ReadString('\n')
	return strings.TrimSpace(strings.ToLower(answer))
}

func applyDecision(cmd *cobra.Command, machine *review.Machine, session *review.Session, it review.Item, status topic.Status, reader *bufio.Reader) error {
	var reason topic.ReasonCode
	if status == topic.StatusRejected {
		reason = promptReason(reader)
	}

	fmt.Print("Notes (enter to skip): ")
	notes, _ := reader.ReadString('\n')
	notes = strings.TrimSpace(notes)

	action, err := machine.Apply(cmd.Context(), it.Topic.ID, status, reason, notes)
	if err != nil {
		return err
	}
	if action == nil {
		fmt.Println("Decision not applied.")
		return nil
	}
	session.RecordAction(action)
	fmt.Printf("Topic %s.\n\n", status)
	return nil
}

func promptReason(reader *bufio.Reader) topic.ReasonCode {
	fmt.Println("Reason:")
	fmt.Println("  0) none")
	for i, code := range topic.ReasonCodes {
		fmt.Printf("  %d) %s\n", i+1, code)
	}
	fmt.Print("> ")

	answer, _ := reader.ReadString('\n')
	n, err := strconv.Atoi(strings.TrimSpace(answer))
	if err != nil || n < 1 || n > len(topic.ReasonCodes) {
		return ""
	}
	return topic.ReasonCodes[n-1]
}

func printStats(session *review.Session) {
	fmt.Printf("\nApproved: %d  Rejected: %d  Deferred: %d  Skipped: %d\n",
		session.Stats["approved"], session.Stats["rejected"],
		session.Stats["deferred"], session.Stats["skipped"])
}

func init() {
	rootCmd.AddCommand(reviewCmd)
	reviewCmd.Flags().IntP("limit", "n", 20, "Maximum topics to review")
	reviewCmd.Flags().Float64P("min-score", "m", 0, "Hide topics scoring below this value")
	reviewCmd.Flags().BoolP("resume", "r", false, "Resume the previous review session")
	reviewCmd.Flags().StringP("session-file", "", review.DefaultSessionFile, "Where review progress is saved")
}
