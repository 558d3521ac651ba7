package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/loomdb/loomdb/internal/cli"
	"github.com/loomdb/loomdb/internal/engine/executor"
)

// queryCmd represents the query command
var queryCmd = &cobra.Command{
	Use:   "query <statement>",
	Short: "Execute one SELECT statement against the store",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runQuery(args[0])
	},
}

// replCmd represents the repl command
var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive query shell",
	Run: func(cmd *cobra.Command, args []string) {
		runREPL()
	},
}

func init() {
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(replCmd)
}

func runQuery(statement string) {
	cfg := loadConfig()
	s := openStore(cfg)

	result, err := executor.Run(s, statement)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	cli.WriteTable(os.Stdout, result)
}

func runREPL() {
	cfg := loadConfig()
	s := openStore(cfg)

	repl := cli.NewREPL(s, os.Stdin, os.Stdout)
	if err := repl.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
