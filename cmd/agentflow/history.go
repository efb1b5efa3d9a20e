package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/ShayCichocki/agentflow/internal/config"
	"github.com/ShayCichocki/agentflow/internal/state"
	"github.com/ShayCichocki/agentflow/pkg/models"
)

var (
	historyLimit     int
	historyFormat    string
	historyOlderThan time.Duration
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past runs",
	Long: `List runs recorded in the history journal, newest first.

Runs are journaled when state.enabled is true (the default). Use
'agentflow history show <id>' to export one; an unambiguous ID prefix
is enough.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withHistory(func(store state.RunStore) error {
			runs, err := store.ListRuns(historyLimit)
			if err != nil {
				return err
			}
			printRunList(cmd.OutOrStdout(), runs)
			return nil
		})
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Export one run as yaml, json or markdown",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withHistory(func(store state.RunStore) error {
			snap, err := store.GetRun(args[0])
			if err != nil {
				return err
			}
			if snap == nil {
				return fmt.Errorf("run not found: %s", args[0])
			}
			out, err := formatRun(*snap, historyFormat)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		})
	},
}

var historyRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete one run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withHistory(func(store state.RunStore) error {
			snap, err := store.GetRun(args[0])
			if err != nil {
				return err
			}
			if snap == nil {
				return fmt.Errorf("run not found: %s", args[0])
			}
			if err := store.DeleteRun(snap.RunID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted run %s\n", snap.RunID)
			return nil
		})
	},
}

var historyPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete runs older than --older-than",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withHistory(func(store state.RunStore) error {
			n, err := store.PurgeOldRuns(historyOlderThan)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Purged %d runs older than %s\n", n, historyOlderThan)
			return nil
		})
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of runs to list (0 for all)")
	historyShowCmd.Flags().StringVarP(&historyFormat, "format", "f", "markdown", "Output format: yaml, json or markdown")
	historyPurgeCmd.Flags().DurationVar(&historyOlderThan, "older-than", 30*24*time.Hour, "Purge runs started before this age")

	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyRmCmd)
	historyCmd.AddCommand(historyPurgeCmd)
}

// withHistory opens the configured journal for the duration of fn.
func withHistory(fn func(store state.RunStore) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	db, err := openHistory(cfg)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer db.Close()
	return fn(db)
}

func printRunList(out io.Writer, runs []state.RunSummary) {
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded yet.")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTAGE\tTASKS\tSTARTED\tGOAL")
	for _, r := range runs {
		stage := color.GreenString(string(r.Stage))
		if r.Stage == models.StageFailed {
			stage = color.RedString(string(r.Stage))
		}
		fmt.Fprintf(w, "%s\t%s\t%d/%d\t%s\t%s\n",
			shortID(r.ID), stage, r.Completed, r.SubTasks,
			r.StartedAt.Local().Format("2006-01-02 15:04"), truncateGoal(r.Goal, 60))
	}
	w.Flush()
}

// formatRun renders a run snapshot in the requested export format.
func formatRun(snap models.Snapshot, format string) (string, error) {
	switch strings.ToLower(format) {
	case "yaml", "yml":
		data, err := yaml.Marshal(snap)
		if err != nil {
			return "", fmt.Errorf("marshal yaml: %w", err)
		}
		return string(data), nil
	case "json":
		data, err := json.MarshalIndent(snap, "", "  ")
		if err != nil {
			return "", fmt.Errorf("marshal json: %w", err)
		}
		return string(data) + "\n", nil
	case "markdown", "md", "":
		return runMarkdown(snap), nil
	default:
		return "", fmt.Errorf("unknown format %q (want yaml, json or markdown)", format)
	}
}

func runMarkdown(snap models.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", snap.Goal)
	fmt.Fprintf(&b, "- **Run:** %s\n", snap.RunID)
	fmt.Fprintf(&b, "- **Stage:** %s\n", snap.Stage)
	fmt.Fprintf(&b, "- **Started:** %s\n", snap.StartedAt.Format(time.RFC3339))
	if snap.FinishedAt != nil {
		fmt.Fprintf(&b, "- **Duration:** %s\n", snap.Duration().Round(time.Second))
	}
	fmt.Fprintf(&b, "- **Tokens:** %d input / %d output\n", snap.InputTokens, snap.OutputTokens)

	b.WriteString("\n## Sub-tasks\n\n")
	for _, t := range snap.SubTasks {
		fmt.Fprintf(&b, "%d. %s (%s)\n", t.ID, describeTask(t), t.Status)
		if t.Error != "" {
			fmt.Fprintf(&b, "   - error: %s\n", t.Error)
		}
	}

	if snap.Error != "" {
		fmt.Fprintf(&b, "\n## Error\n\n%s\n", snap.Error)
	}
	if snap.Report != "" {
		fmt.Fprintf(&b, "\n---\n\n%s\n", strings.TrimSpace(snap.Report))
	}
	return b.String()
}

func truncateGoal(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
