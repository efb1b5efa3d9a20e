package tui

import (
	"fmt"

	"github.com/ShayCichocki/agentflow/pkg/models"
	"github.com/charmbracelet/lipgloss"
)

// Footer renders the status line and keyboard hints.
type Footer struct {
	stage   models.Stage
	message string
	tokens  int64
	width   int

	// Styles
	successStyle   lipgloss.Style
	errorStyle     lipgloss.Style
	activeStyle    lipgloss.Style
	hintStyle      lipgloss.Style
	separatorStyle lipgloss.Style
}

// NewFooter creates a new Footer instance.
func NewFooter() *Footer {
	return &Footer{
		stage: models.StageIdle,

		successStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("28")).
			Bold(true),

		errorStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true),

		activeStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")),

		hintStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")),

		separatorStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("236")),
	}
}

// SetState updates the footer from a snapshot.
func (f *Footer) SetState(snap models.Snapshot) {
	f.stage = snap.Stage
	f.message = snap.Error
	f.tokens = snap.InputTokens + snap.OutputTokens
}

// SetWidth sets the footer width.
func (f *Footer) SetWidth(width int) {
	f.width = width
}

// View renders the footer.
func (f *Footer) View() string {
	sep := f.separatorStyle.Render(" │ ")

	var status string
	switch f.stage {
	case models.StageDone:
		status = f.successStyle.Render("✓ Done")
	case models.StageFailed:
		status = f.errorStyle.Render("✗ Failed")
		if f.message != "" {
			status += " " + f.errorStyle.Render(truncate(f.message, f.width/2))
		}
	case models.StageIdle:
		status = f.hintStyle.Render("Ready")
	default:
		status = f.activeStyle.Render(stageLabel(f.stage))
	}

	if f.tokens > 0 {
		status += sep + f.hintStyle.Render(fmt.Sprintf("%d tokens", f.tokens))
	}

	return status + sep + f.hintStyle.Render(hintsFor(f.stage))
}

func stageLabel(stage models.Stage) string {
	switch stage {
	case models.StageDecomposing:
		return "Planning sub-tasks..."
	case models.StageExecuting:
		return "Executing sub-tasks..."
	case models.StageSummarizing:
		return "Compiling report..."
	default:
		return string(stage)
	}
}

func hintsFor(stage models.Stage) string {
	switch {
	case stage == models.StageIdle:
		return "enter: start  ctrl+c: quit"
	case stage.Terminal():
		return "r: new goal  ↑/↓: scroll report  q: quit"
	default:
		return "q: quit"
	}
}
