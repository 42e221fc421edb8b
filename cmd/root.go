package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kojohq/topicscope/internal/utils"
	"github.com/kojohq/topicscope/pkg/store"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

var cfgFile string

const (
	LOGO = `  _              _
 | |_ ___  _ __ (_) ___ ___  ___ ___  _ __   ___
 | __/ _ \| '_ \| |/ __/ __|/ __/ _ \| '_ \ / _ \
 | || (_) | |_) | | (__\__ \ (_| (_) | |_) |  __/
  \__\___/| .__/|_|\___|___/\___\___/| .__/ \___|
          |_|                        |_|

`
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "topicscope",
	Short: "A content topic scout with scoring and human review.",
	Long: LOGO + `topicscope discovers content topic candidates from Reddit, Hacker News,
and RSS feeds, scores them on recency, engagement velocity, and audience
fit, and walks you through reviewing the best ones, right from your
command line.`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.topicscope.yaml)")

	// Global flags
	rootCmd.PersistentFlags().StringP("store", "s", "", "Path to the SQLite store (default is $HOME/.config/topicscope/topicscope.sqlite)")
	rootCmd.PersistentFlags().StringP("loglevel", "l", "info", "Set log level. Available: debug, info, warn, error, fatal")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".topicscope")
		viper.SetConfigType("yaml")
	}

	viper.AutomaticEnv()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; create it with defaults.
			home, _ := homedir.Dir()
			configPath := home + "/.topicscope.yaml"
			if err := viper.SafeWriteConfigAs(configPath); err != nil {
				fmt.Printf("Error creating config file: %s", err)
			}
		}
	}

	// Set default empty values for all keys
	viper.SetDefault("openai.api_key", "")
	viper.SetDefault("openai.model", "")
	viper.SetDefault("scoring.llm_enabled", false)
	viper.SetDefault("scoring.max_llm_cost_per_run", 0.50)
	viper.SetDefault("store.path", "")
	viper.SetDefault("review.actor", "cli-user")

	// Init log library
	levelString, _ := rootCmd.PersistentFlags().GetString("loglevel")
	utils.SetLogLevel(levelString)
}

// storePath resolves the store location from the flag or config file.
func storePath(cmd *cobra.Command) (string, error) {
	path, _ := cmd.Flags().GetString("store")
	if path == "" {
		path = viper.GetString("store.path")
	}
	return utils.GetAbsStorePath(path)
}

// openStore opens the SQLite store for read-only commands.
func openStore(cmd *cobra.Command) (*store.DB, error) {
	path, err := storePath(cmd)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return store.Open(path)
}

// openLockedStore opens the store holding the cross-process write lock.
// The caller must call the returned unlock function.
func openLockedStore(cmd *cobra.Command) (*store.DB, func(), error) {
	path, err := storePath(cmd)
	if err != nil {
		return nil, nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, err
	}

	lock, err := utils.NewStoreLock(path)
	if err != nil {
		return nil, nil, err
	}
	if err := lock.Lock(); err != nil {
		return nil, nil, err
	}

	db, err := store.Open(path)
	if err != nil {
		_ = lock.Unlock()
		return nil, nil, err
	}

	unlock := func() {
		db.Close()
		if err := lock.Unlock(); err != nil {
			utils.Log.Warnf("could not release store lock: %v", err)
		}
	}
	return db, unlock, nil
}
