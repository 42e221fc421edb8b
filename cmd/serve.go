package cmd

import (
	"github.com/spf13/cobra"

	"github.com/kojohq/topicscope/internal/server"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a read-only JSON API over the topic store",
	Long: `Starts an HTTP server exposing candidates with their latest scores,
the audit trail, and job run history as JSON. Optional basic auth via
--user and --pass.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		user, _ := cmd.Flags().GetString("user")
		pass, _ := cmd.Flags().GetString("pass")

		db, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		return server.New(db, user, pass).Start(addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", "127.0.0.1:8377", "Address to listen on")
	serveCmd.Flags().StringP("user", "", "", "Basic auth username")
	serveCmd.Flags().StringP("pass", "", "", "Basic auth password")
}
