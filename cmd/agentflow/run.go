package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/agentflow/internal/api"
	"github.com/ShayCichocki/agentflow/internal/orchestrator"
	"github.com/ShayCichocki/agentflow/pkg/models"
)

var runHeadless bool

var runCmd = &cobra.Command{
	Use:   "run <goal>",
	Short: "Run a goal through the planner, agents and finalizer",
	Long: `Run a goal end to end.

The planner decomposes the goal into ordered sub-tasks, each sub-task is
executed by its agent with the results of earlier sub-tasks as context,
and the finalizer compiles everything into a report.

By default the run is shown in the TUI. Use --headless to print progress
and the final report to stdout instead.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGoal,
}

func init() {
	runCmd.Flags().BoolVar(&runHeadless, "headless", false, "Run without TUI (headless mode)")
}

func runGoal(cmd *cobra.Command, args []string) (retErr error) {
	// Recover from panics and report them
	defer func() {
		if r := recover(); r != nil {
			retErr = fmt.Errorf("PANIC in runGoal: %v", r)
		}
	}()

	goal := strings.Join(args, " ")
	if debugEnabled() {
		fmt.Printf("[DEBUG] Goal: %s\n", goal)
		fmt.Printf("[DEBUG] Headless: %v\n", runHeadless)
	}

	if !runHeadless {
		return runInteractive(goal)
	}
	return runHeadlessGoal(goal, cmd.OutOrStdout())
}

func runHeadlessGoal(goal string, out io.Writer) error {
	rt, err := newRunEnv()
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			fmt.Fprintln(out, "\nInterrupted, cancelling run...")
			cancel()
		case <-ctx.Done():
		}
	}()

	unsubscribe := rt.orch.Subscribe(progressPrinter(out))
	defer unsubscribe()

	snap, err := rt.orch.Run(ctx, goal)
	if err != nil {
		return err
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, snap.Report)
	fmt.Fprintln(out)
	printUsage(out, snap, rt.client.Tracker())
	return nil
}

// progressPrinter renders transitions as colored status lines.
func progressPrinter(out io.Writer) orchestrator.Listener {
	return func(ev orchestrator.Event) {
		snap := ev.Snapshot
		switch ev.Type {
		case orchestrator.EventRunStarted:
			printLine(out, "▶", fmt.Sprintf("Planning: %s", snap.Goal), color.FgCyan)
		case orchestrator.EventPlanned:
			printLine(out, "✓", fmt.Sprintf("Planned %d sub-tasks", len(snap.SubTasks)), color.FgGreen)
			for _, t := range snap.SubTasks {
				fmt.Fprintf(out, "    %d. %s\n", t.ID, describeTask(t))
			}
		case orchestrator.EventTaskStarted:
			if t, ok := taskByID(snap, ev.TaskID); ok {
				printLine(out, "◐", fmt.Sprintf("[%d/%d] %s", t.ID, len(snap.SubTasks), describeTask(t)), color.FgYellow)
			}
		case orchestrator.EventTaskCompleted:
			printLine(out, "✓", fmt.Sprintf("Sub-task %d completed", ev.TaskID), color.FgGreen)
		case orchestrator.EventTaskFailed:
			printLine(out, "✗", fmt.Sprintf("Sub-task %d failed", ev.TaskID), color.FgRed)
		case orchestrator.EventRunDone:
			printLine(out, "✓", fmt.Sprintf("Report compiled in %s", snap.Duration().Round(time.Millisecond)), color.FgGreen)
		case orchestrator.EventRunFailed:
			printLine(out, "✗", fmt.Sprintf("Run failed: %s", snap.Error), color.FgRed)
		}
	}
}

// printLine prints a status line with a colored symbol.
func printLine(out io.Writer, symbol, message string, colorAttr color.Attribute) {
	c := color.New(colorAttr)
	fmt.Fprintf(out, "%s %s\n", c.Sprint(symbol), message)
}

func printUsage(out io.Writer, snap models.Snapshot, tracker *api.TokenTracker) {
	dim := color.New(color.Faint)
	dim.Fprintf(out, "run %s · %d calls · %d input / %d output tokens · ~$%.4f\n",
		shortID(snap.RunID), tracker.Calls(), snap.InputTokens, snap.OutputTokens, tracker.Cost())
}

func describeTask(t models.SubTask) string {
	if t.Role == "" {
		return t.Description
	}
	return fmt.Sprintf("[%s] %s", t.Role.Title(), t.Description)
}

func taskByID(snap models.Snapshot, id int) (models.SubTask, bool) {
	if id < 1 || id > len(snap.SubTasks) {
		return models.SubTask{}, false
	}
	return snap.SubTasks[id-1], true
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
