package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ralph",
	Short: "Ralph - spec review and decomposition assistant",
	Long: `Ralph runs a battery of AI review prompts against specification
documents, deduplicates the findings, and reports one aggregated verdict.

Workflow:
  ralph review prd-auth.md        Review a spec with every applicable prompt
  ralph history                   List recent review runs
  ralph engines                   List available AI engines

Each review fans out independent prompts (completeness, security, scope, ...)
concurrently, merges overlapping findings through an aggregation agent, and
falls back to deterministic aggregation when the agent fails.

Exit codes for 'review':
  0  verdict PASS
  1  verdict FAIL, NEEDS_IMPROVEMENT, or SPLIT_RECOMMENDED
  2  operational error, or timeout with zero completed prompts`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Operational errors map to exit code 2;
// review verdict exit codes are handled inside the review command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Stderr.WriteString("Error: " + err.Error() + "\n")
		os.Exit(2)
	}
}
