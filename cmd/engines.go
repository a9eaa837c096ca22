package cmd

import (
	"fmt"
	"sort"

	"github.com/ralphlabs/ralph/internal/config"
	"github.com/ralphlabs/ralph/internal/engine"
	"github.com/spf13/cobra"

	// Register available engines.
	_ "github.com/ralphlabs/ralph/internal/engine/claude"
	_ "github.com/ralphlabs/ralph/internal/engine/codex"
)

// newEngine creates an engine by name, applying model settings from
// .ralph/config.yaml.
func newEngine(name, projectDir string) (engine.Invoker, error) {
	cfg, err := config.Load(projectDir)
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = cfg.Engine
	}
	return engine.New(name, engine.Config{Model: cfg.Model})
}

var enginesCmd = &cobra.Command{
	Use:   "engines",
	Short: "List available AI engines",
	Run: func(cmd *cobra.Command, args []string) {
		names := engine.Available()
		sort.Strings(names)
		for _, name := range names {
			fmt.Println(name)
		}
	},
}

func init() {
	rootCmd.AddCommand(enginesCmd)
}
