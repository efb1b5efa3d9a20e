package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Header renders the title bar.
type Header struct {
	width int
}

// NewHeader creates a new Header.
func NewHeader() *Header {
	return &Header{
		width: 80,
	}
}

// SetWidth sets the header width.
func (h *Header) SetWidth(width int) {
	h.width = width
}

// View renders the header.
func (h *Header) View() string {
	// Gradient colors for the title letters
	colors := []string{"#FF6B6B", "#FF8E53", "#FFC857", "#4ECDC4", "#45B7D1", "#96E6A1"}

	var title string
	for i, r := range "agentflow" {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(colors[i%len(colors)])).Bold(true)
		title += style.Render(string(r))
	}

	subtitle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("243")).
		Italic(true).
		Render("plan · execute · report")

	style := lipgloss.NewStyle().
		Width(h.width).
		Align(lipgloss.Center)

	return style.Render(lipgloss.JoinVertical(lipgloss.Center, title, subtitle))
}

// Height returns the header height in lines.
func (h *Header) Height() int {
	return 2
}
