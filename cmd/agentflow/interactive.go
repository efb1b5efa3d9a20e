package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ShayCichocki/agentflow/internal/orchestrator"
	"github.com/ShayCichocki/agentflow/internal/tui"
)

// shutdownGrace bounds how long we wait for a cancelled run to settle so
// its failure can still be journaled.
const shutdownGrace = 5 * time.Second

// runInteractive launches the TUI. A non-empty goal is started right away.
func runInteractive(goal string) (retErr error) {
	// Recover from panics
	defer func() {
		if r := recover(); r != nil {
			retErr = fmt.Errorf("PANIC in runInteractive: %v", r)
		}
	}()

	rt, err := newRunEnv()
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			rt.logger.Log("[interactive] received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
	}()

	emitter := orchestrator.NewEventEmitter(256)
	unsubscribe := rt.orch.Subscribe(emitter.Listener())

	if goal != "" {
		if err := rt.orch.Start(ctx, goal); err != nil {
			unsubscribe()
			emitter.Close()
			return err
		}
	}

	// Suppress log output while TUI is active (it corrupts the display)
	originalOutput := log.Writer()
	log.SetOutput(io.Discard)

	program, _ := tui.NewProgram(ctx, rt.orch, emitter.Events())
	_, err = program.Run()

	log.SetOutput(originalOutput)
	unsubscribe()
	emitter.Close()

	// Quitting mid-run cancels it; give the pipeline a moment to record the failure.
	cancel()
	waitCtx, waitCancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer waitCancel()
	if _, werr := rt.orch.Wait(waitCtx); werr != nil {
		rt.logger.Log("[interactive] run ended with: %v", werr)
	}

	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("TUI: %w", err)
	}
	if n := emitter.DroppedCount(); n > 0 && debugEnabled() {
		fmt.Printf("[DEBUG] %d events dropped\n", n)
	}
	return nil
}
