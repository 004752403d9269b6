package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "smellcheck",
	Short: "LLM code-smell review from the command line",
	Long: `smellcheck sends source code to an LLM completion endpoint and prints a
structured code-smell report along with a refactored version of the input.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
