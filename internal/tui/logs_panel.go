package tui

import (
	"strings"

	"github.com/ShayCichocki/agentflow/pkg/models"
	"github.com/charmbracelet/lipgloss"
)

// LogsPanel displays the most recent activity log entries.
type LogsPanel struct {
	entries []models.LogEntry
	width   int
	height  int

	// Styles
	titleStyle   lipgloss.Style
	borderStyle  lipgloss.Style
	timeStyle    lipgloss.Style
	agentStyle   lipgloss.Style
	messageStyle lipgloss.Style
	detailStyle  lipgloss.Style
	errorStyle   lipgloss.Style
}

// NewLogsPanel creates a new LogsPanel instance.
func NewLogsPanel() *LogsPanel {
	return &LogsPanel{
		width:  80,
		height: 8,

		titleStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Padding(0, 1),

		borderStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")),

		timeStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")),

		agentStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true),

		messageStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")),

		detailStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("28")),

		errorStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")),
	}
}

// SetEntries replaces the displayed entries.
func (p *LogsPanel) SetEntries(entries []models.LogEntry) {
	p.entries = entries
}

// SetSize updates the panel dimensions.
func (p *LogsPanel) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// View renders the newest entries that fit, oldest first.
func (p *LogsPanel) View() string {
	var b strings.Builder
	b.WriteString(p.titleStyle.Render("Activity"))
	b.WriteString("\n")

	rows := p.height - 3 // title and borders
	if rows < 1 {
		rows = 1
	}
	start := 0
	if len(p.entries) > rows {
		start = len(p.entries) - rows
	}

	inner := p.width - 30
	if inner < 10 {
		inner = 10
	}
	for _, e := range p.entries[start:] {
		line := "  " + p.timeStyle.Render(e.Timestamp.Format("15:04:05")) + " " +
			p.agentStyle.Render(e.Agent) + " " +
			p.messageStyle.Render(truncate(e.Message, inner))
		switch {
		case e.Error != "":
			line += " " + p.errorStyle.Render("✗ "+truncate(e.Error, inner/2))
		case e.Status == models.SubTaskCompleted && e.Detail != "":
			line += " " + p.detailStyle.Render("✓ "+e.Detail)
		case e.Status == models.SubTaskInProgress:
			line += " " + p.timeStyle.Render("…")
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	return p.borderStyle.Width(p.width - 2).Render(strings.TrimRight(b.String(), "\n"))
}
