package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/ralphlabs/ralph/internal/engine"
	"github.com/ralphlabs/ralph/internal/history"
	"github.com/ralphlabs/ralph/internal/workspace"
	"github.com/spf13/cobra"
)

var (
	historyProjectFlag string
	historyLimitFlag   int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent review runs",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().StringVar(&historyProjectFlag, "project", ".", "Project directory holding the .ralph workspace")
	historyCmd.Flags().IntVar(&historyLimitFlag, "limit", 20, "Maximum number of runs to list")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	layout := workspace.Resolve(historyProjectFlag)
	if _, err := os.Stat(layout.History); err != nil {
		fmt.Println("No review runs recorded yet.")
		return nil
	}

	store, err := history.Open(layout.History)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.Recent(historyLimitFlag)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No review runs recorded yet.")
		return nil
	}

	for _, run := range runs {
		verdict := engine.VerdictStyle(run.Verdict).Render(run.Verdict)
		fmt.Printf("%s  %-18s %s  %s\n",
			run.Timestamp.Local().Format("2006-01-02 15:04"),
			verdict,
			run.SpecPath,
			(time.Duration(run.DurationMs) * time.Millisecond).Round(time.Second))
	}
	return nil
}
