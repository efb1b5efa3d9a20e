package main

import (
	"os"

	"github.com/spf13/cobra"
)

var logFile string

var rootCmd = &cobra.Command{
	Use:   "agentflow",
	Short: "Multi-agent task orchestrator",
	Long: `agentflow breaks a goal into ordered sub-tasks, hands each one to a
specialised agent (researcher, analyst, writer) with the results of the
previous steps as context, and compiles everything into a final report.

With no arguments, launches the interactive TUI where you can type a goal
and watch the agents work through it.

Configuration is read from ~/.config/agentflow/config.yaml, a project
.agentflow.yaml and ANTHROPIC_API_KEY / AGENTFLOW_* environment variables.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInteractive("")
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write the debug log to this file (overrides log.path)")

	// Add subcommands
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
