package cmd

import (
	"fmt"
	"strings"

	"github.com/formalang/forma/foundation/ftl/expr"
	"github.com/spf13/cobra"
)

var evalCmd = &cobra.Command{
	Use:   "eval [expression]",
	Short: "Evaluate a single expression",
	Long: `Evaluates one expression and prints the result.

Examples:
  forma eval "1 + 2 * 3"
  forma eval --var price=9.5 --var qty=3 "price * qty"
  forma eval "upper(trim('  hello  '))"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runEval,
}

func init() {
	rootCmd.AddCommand(evalCmd)

	evalCmd.Flags().StringArrayVar(&varFlags, "var", nil, "Preset variable as key=value (repeatable)")
}

func runEval(cmd *cobra.Command, args []string) error {
	engine, err := newEngine()
	if err != nil {
		printError("engine setup failed", err)
		return err
	}

	ec := engine.NewContext("")
	if err := applyVars(ec); err != nil {
		return err
	}

	value, err := engine.EvaluateExpression(strings.Join(args, " "), ec)
	if err != nil {
		printError("evaluation failed", err)
		return err
	}

	fmt.Println(expr.ToString(value))
	return nil
}
