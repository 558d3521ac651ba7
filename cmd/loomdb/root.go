package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/loomdb/loomdb/internal/engine/store"
	"github.com/loomdb/loomdb/internal/logging"
	"github.com/loomdb/loomdb/internal/persistence"
	"github.com/loomdb/loomdb/pkg/config"
)

var (
	// Version is set during build
	Version = "0.1.0"

	// Global flags
	dataPath string
	logLevel string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "loomdb",
	Short: "In-memory SQL engine with hash and B+ tree primary indexes",
	Long: `loomdb is a small single-process relational database engine. It keeps
typed tables in memory, maintains a hash index and a B+ tree over each
table's primary key, and executes SELECT statements with joins,
filtering, ordering and paging.

Examples:
  loomdb query "SELECT * FROM users WHERE id = 2" --data db.json
  loomdb repl --data db.json
  loomdb serve
  loomdb import-sqlite legacy.db products --data db.json`,
	Version: Version,
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataPath, "data", "", "store document path (overrides config)")
	rootCmd.PersistentFlags().String("config", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log_level", "", "log level (debug, info, warn, error)")
}

// loadConfig loads configuration and applies global flag overrides.
func loadConfig() *config.Config {
	var cfg *config.Config
	var err error
	if path, _ := rootCmd.PersistentFlags().GetString("config"); path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if dataPath != "" {
		cfg.Persistence.Path = dataPath
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: "stderr",
	})
	return cfg
}

// openStore loads the store document at the configured path, or
// returns an empty store when the file does not exist yet.
func openStore(cfg *config.Config) *store.Store {
	if _, err := os.Stat(cfg.Persistence.Path); os.IsNotExist(err) {
		return store.New()
	}
	s, err := persistence.LoadStoreFile(cfg.Persistence.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading store: %v\n", err)
		os.Exit(1)
	}
	return s
}
