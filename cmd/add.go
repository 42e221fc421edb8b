package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kojohq/topicscope/pkg/sources"
	"github.com/kojohq/topicscope/pkg/whttp"
)

// addCmd represents the add command
var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a topic candidate manually",
	Long: `Stores a manually entered topic candidate. When only a URL is given,
the page title is fetched and used as the topic title.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		title, _ := cmd.Flags().GetString("title")
		url, _ := cmd.Flags().GetString("url")
		notes, _ := cmd.Flags().GetString("notes")

		rt, err := sources.NewManualTopic(cmd.Context(), whttp.NewClient(), title, url, notes)
		if err != nil {
			return err
		}

		db, unlock, err := openLockedStore(cmd)
		if err != nil {
			return err
		}
		defer unlock()

		cand, created, err := sources.NewIngestor(db).IngestOne(cmd.Context(), rt)
		if err != nil {
			return err
		}
		if !created {
			fmt.Printf("Topic already exists: %s (%s)\n", cand.Title, cand.ID)
			return nil
		}
		fmt.Printf("Added topic %s: %s [%s]\n", cand.ID, cand.Title, cand.Cluster)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(addCmd)
	addCmd.Flags().StringP("title", "t", "", "Topic title")
	addCmd.Flags().StringP("url", "u", "", "Source URL")
	addCmd.Flags().StringP("notes", "", "", "Free-form notes stored with the topic")
}
