// Command focus-pilot runs the productivity dashboard server and its
// maintenance commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

var configPath string

var rootCmd = &cobra.Command{
	Use:     "focus-pilot",
	Short:   "Goals, tasks and weekly focus in one dashboard",
	Version: version,
	Long: `focus-pilot serves a single-user productivity dashboard: goals with key
results, tasks on a kanban board and Eisenhower matrix, a daily planner and AI
advice. State is persisted locally and mirrored to an optional remote backend.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "focus-pilot.yaml", "path to the YAML config file")
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(pushCmd())
	rootCmd.AddCommand(pullCmd())
	rootCmd.AddCommand(restoreCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(hashPasswordCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
