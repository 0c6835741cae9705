package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "forma",
	Short: "Forma - template execution engine",
	Long: `Forma executes template trees against pluggable datasources.

Commands:
  run      - Execute a JSON-encoded template tree
  eval     - Evaluate a single expression
  version  - Show version information

Datasource kinds:
  sql             - SQLite queries (--db)
  cache           - In-memory key-value store
  http-rest       - HTTP/REST endpoints
  llm             - Text generation via Ollama
  knowledge-base  - Semantic search over local documents (--kb)`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (TOML or YAML)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
}

func printError(msg string, err error) {
	fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
}
