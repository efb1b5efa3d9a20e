package tui

import (
	"fmt"
	"strings"

	"github.com/ShayCichocki/agentflow/pkg/models"
	"github.com/charmbracelet/lipgloss"
)

// TasksPanel displays the ordered sub-tasks with status indicators.
type TasksPanel struct {
	tasks  []models.SubTask
	width  int
	height int

	// Styles
	titleStyle   lipgloss.Style
	borderStyle  lipgloss.Style
	normalStyle  lipgloss.Style
	roleStyle    lipgloss.Style
	resultStyle  lipgloss.Style
	pendingStyle lipgloss.Style
	runningStyle lipgloss.Style
	doneStyle    lipgloss.Style
	failedStyle  lipgloss.Style
}

// NewTasksPanel creates a new TasksPanel instance.
func NewTasksPanel() *TasksPanel {
	return &TasksPanel{
		width:  80,
		height: 10,

		titleStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Padding(0, 1),

		borderStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")),

		normalStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")),

		roleStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("75")), // Light blue

		resultStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")).
			Italic(true),

		pendingStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("244")), // Gray

		runningStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("34")), // Green

		doneStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("28")), // Dark green

		failedStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")), // Red
	}
}

// SetTasks updates the list of sub-tasks.
func (p *TasksPanel) SetTasks(tasks []models.SubTask) {
	p.tasks = tasks
}

// SetSize updates the panel dimensions.
func (p *TasksPanel) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// statusIcon returns the indicator and style for a status.
func (p *TasksPanel) statusIcon(status models.SubTaskStatus) (string, lipgloss.Style) {
	switch status {
	case models.SubTaskInProgress:
		return "◐", p.runningStyle
	case models.SubTaskCompleted:
		return "✓", p.doneStyle
	case models.SubTaskFailed:
		return "✗", p.failedStyle
	default:
		return "○", p.pendingStyle
	}
}

// View renders the tasks panel.
func (p *TasksPanel) View() string {
	var b strings.Builder

	done := 0
	for _, t := range p.tasks {
		if t.Status == models.SubTaskCompleted {
			done++
		}
	}
	title := "Sub-tasks"
	if len(p.tasks) > 0 {
		title = fmt.Sprintf("Sub-tasks (%d/%d)", done, len(p.tasks))
	}
	b.WriteString(p.titleStyle.Render(title))
	b.WriteString("\n")

	if len(p.tasks) == 0 {
		b.WriteString(p.normalStyle.Render("  No sub-tasks yet"))
	}

	inner := p.width - 8
	if inner < 10 {
		inner = 10
	}
	for _, t := range p.tasks {
		icon, style := p.statusIcon(t.Status)
		line := fmt.Sprintf("  %s %d. ", style.Render(icon), t.ID)
		if t.Role != "" {
			line += p.roleStyle.Render("["+t.Role.Title()+"]") + " "
		}
		line += p.normalStyle.Render(truncate(t.Description, inner))
		b.WriteString(line)
		b.WriteString("\n")

		switch t.Status {
		case models.SubTaskCompleted:
			b.WriteString("      " + p.resultStyle.Render(truncate(firstLine(t.Result), inner-4)))
			b.WriteString("\n")
		case models.SubTaskFailed:
			b.WriteString("      " + p.failedStyle.Render(truncate(t.Error, inner-4)))
			b.WriteString("\n")
		}
	}

	return p.borderStyle.Width(p.width - 2).Render(strings.TrimRight(b.String(), "\n"))
}

// truncate shortens s to max runes with an ellipsis.
func truncate(s string, max int) string {
	r := []rune(s)
	if max <= 0 || len(r) <= max {
		return s
	}
	if max <= 1 {
		return string(r[:max])
	}
	return string(r[:max-1]) + "…"
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
