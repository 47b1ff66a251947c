package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "cascadewatch",
	Short: "Per-symbol liquidation cascade detector",
	Long: `cascadewatch scores liquidation cascades per symbol from a stream of
ticks, maps the score to a traffic light and gates automated entries.

Examples:
  cascadewatch serve --config configs/config.yaml
  cascadewatch replay --file ticks.jsonl --symbol BTCUSDT`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
