package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/formalang/forma/foundation/ftl/ast"
	"github.com/formalang/forma/foundation/ftl/expr"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run [tree.json]",
	Short: "Execute a JSON-encoded template tree",
	Long: `Executes a template tree stored as JSON.

Examples:
  forma run page.json
  forma run --var user=alice --var limit=10 page.json
  forma run --db app.db --session web-42 report.json
  forma run --kb ./docs answer.json`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&sessionID, "session", "", "Session ID for shared session state")
	runCmd.Flags().BoolVar(&strictCache, "strict", false, "Hash file contents for staleness checks")
	runCmd.Flags().StringArrayVar(&varFlags, "var", nil, "Preset variable as key=value (repeatable)")
	runCmd.Flags().StringVar(&dbPath, "db", "", "SQLite database for the sql datasource")
	runCmd.Flags().StringVar(&ollamaURL, "ollama", "", "Ollama server URL for the llm datasource")
	runCmd.Flags().StringVar(&llmModel, "model", "", "Default model for the llm datasource")
	runCmd.Flags().StringVar(&kbDir, "kb", "", "Document directory for the knowledge-base datasource")
}

func runRun(cmd *cobra.Command, args []string) error {
	engine, err := newEngine()
	if err != nil {
		printError("engine setup failed", err)
		return err
	}

	ec := engine.NewContext(sessionID)
	if err := applyVars(ec); err != nil {
		return err
	}

	outcome, err := engine.ExecuteFile(context.Background(), args[0], parseTreeFile, ec)
	if err != nil {
		printError("execution failed", err)
		return err
	}

	fmt.Print(outcome.Output)
	if outcome.Returned != nil {
		fmt.Println(expr.ToString(outcome.Returned))
	}

	if verbose {
		stats := engine.Stats()
		fmt.Fprintf(os.Stderr, "\nExpressions: %d cached (%d hits, %d misses)\n",
			stats.Expressions.Entries, stats.Expressions.Hits, stats.Expressions.Misses)
	}
	return nil
}

func parseTreeFile(path string) (ast.Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ast.DecodeTree(data)
}
