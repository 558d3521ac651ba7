package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/loomdb/loomdb/internal/importer"
	"github.com/loomdb/loomdb/internal/persistence"
)

// saveCmd represents the save command
var saveCmd = &cobra.Command{
	Use:   "save <file>",
	Short: "Write the store document to a file",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runSave(args[0])
	},
}

// loadCmd represents the load command
var loadCmd = &cobra.Command{
	Use:   "load <file>",
	Short: "Read a store document and make it the configured store",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runLoad(args[0])
	},
}

// importSQLiteCmd represents the import-sqlite command
var importSQLiteCmd = &cobra.Command{
	Use:   "import-sqlite <dsn> <table>",
	Short: "Replay a SQLite table into the store",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		runImportSQLite(args[0], args[1])
	},
}

func init() {
	rootCmd.AddCommand(saveCmd)
	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(importSQLiteCmd)
}

func runSave(path string) {
	cfg := loadConfig()
	s := openStore(cfg)

	if err := persistence.SaveStoreFile(s, path); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Saved %d tables to %s\n", len(s.Names()), path)
}

func runLoad(path string) {
	cfg := loadConfig()

	s, err := persistence.LoadStoreFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.EnsureConfigDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := persistence.SaveStoreFile(s, cfg.Persistence.Path); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Loaded %d tables into %s\n", len(s.Names()), cfg.Persistence.Path)
}

func runImportSQLite(dsn, tableName string) {
	cfg := loadConfig()
	s := openStore(cfg)

	t, err := importer.ImportTable(dsn, tableName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := s.Add(t); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.EnsureConfigDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := persistence.SaveStoreFile(s, cfg.Persistence.Path); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Imported %s (%d rows) into %s\n", tableName, t.RowCount(), cfg.Persistence.Path)
}
