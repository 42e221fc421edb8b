package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kojohq/topicscope/internal/utils"
	"github.com/kojohq/topicscope/pkg/llm"
	"github.com/kojohq/topicscope/pkg/scoring"
)

// scoreCmd represents the score command
var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score pending topic candidates",
	Long: `Scores pending candidates on recency, engagement velocity, and
audience fit. With --llm, audience fit and integrity checks are
delegated to the configured OpenAI model, capped by --budget; without
it, keyword heuristics are used and scoring is free.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		budget, _ := cmd.Flags().GetFloat64("budget")
		useLLM, _ := cmd.Flags().GetBool("llm")
		if !cmd.Flags().Changed("llm") {
			useLLM = viper.GetBool("scoring.llm_enabled")
		}
		if !cmd.Flags().Changed("budget") {
			budget = viper.GetFloat64("scoring.max_llm_cost_per_run")
		}

		var client *llm.Client
		if useLLM {
			apiKey := viper.GetString("openai.api_key")
			if apiKey == "" {
				apiKey = os.Getenv("OPENAI_API_KEY")
			}
			var err error
			client, err = llm.NewClient(llm.Config{
				APIKey: apiKey,
				Model:  viper.GetString("openai.model"),
			})
			if err != nil {
				return err
			}
			utils.Log.Infof("llm scoring enabled with model %s, budget $%.2f", client.Model(), budget)
		}

		db, unlock, err := openLockedStore(cmd)
		if err != nil {
			return err
		}
		defer unlock()

		runner := scoring.NewRunner(db, scoring.NewEngine(client))
		result, err := runner.Run(cmd.Context(), limit, useLLM, budget)
		if err != nil {
			return err
		}

		fmt.Printf("Run %s: %d topics scored", result.RunID, result.Scored)
		if result.SpentUSD > 0 {
			fmt.Printf(", $%.4f spent", result.SpentUSD)
		}
		fmt.Println()
		if result.BudgetExceeded {
			fmt.Printf("Budget reached: run stopped early, %d topics left unscored.\n", result.Remaining)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scoreCmd)
	scoreCmd.Flags().IntP("limit", "n", 50, "Maximum pending topics to score")
	scoreCmd.Flags().BoolP("llm", "", false, "Use the LLM for audience fit and integrity scoring")
	scoreCmd.Flags().Float64P("budget", "b", 0.50, "Maximum LLM spend for this run in USD")
}
