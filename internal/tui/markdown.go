package tui

import (
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var boldRegex = regexp.MustCompile(`\*\*(.+?)\*\*`)

// MarkdownRenderer renders the small markdown vocabulary used in reports:
// #/##/### headings, "* " or "- " bullets, **bold** and --- rules.
type MarkdownRenderer struct {
	h1Style     lipgloss.Style
	h2Style     lipgloss.Style
	h3Style     lipgloss.Style
	bulletStyle lipgloss.Style
	boldStyle   lipgloss.Style
	ruleStyle   lipgloss.Style
	textStyle   lipgloss.Style
}

// NewMarkdownRenderer creates a MarkdownRenderer.
func NewMarkdownRenderer() *MarkdownRenderer {
	return &MarkdownRenderer{
		h1Style: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			MarginBottom(1),

		h2Style: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("75")),

		h3Style: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("252")),

		bulletStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")),

		boldStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")),

		ruleStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")),

		textStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")),
	}
}

// Render converts text to styled terminal output. Width bounds horizontal
// rules; zero means 40 columns.
func (r *MarkdownRenderer) Render(text string, width int) string {
	if width <= 0 {
		width = 40
	}

	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "### "):
			out = append(out, r.h3Style.Render(stripBold(trimmed[4:])))
		case strings.HasPrefix(trimmed, "## "):
			out = append(out, "", r.h2Style.Render(stripBold(trimmed[3:])))
		case strings.HasPrefix(trimmed, "# "):
			out = append(out, r.h1Style.Render(stripBold(trimmed[2:])))
		case strings.HasPrefix(trimmed, "* "), strings.HasPrefix(trimmed, "- "):
			indent := strings.Repeat(" ", leadingSpaces(line)/2*2)
			out = append(out, indent+"  "+r.bulletStyle.Render("•")+" "+r.inline(strings.TrimSpace(trimmed[2:])))
		case isRule(trimmed):
			out = append(out, r.ruleStyle.Render(strings.Repeat("─", width)))
		case trimmed == "":
			out = append(out, "")
		default:
			out = append(out, r.inline(trimmed))
		}
	}
	return strings.Join(out, "\n")
}

// inline styles **bold** spans within a line.
func (r *MarkdownRenderer) inline(s string) string {
	var b strings.Builder
	last := 0
	for _, m := range boldRegex.FindAllStringSubmatchIndex(s, -1) {
		b.WriteString(r.textStyle.Render(s[last:m[0]]))
		b.WriteString(r.boldStyle.Render(s[m[2]:m[3]]))
		last = m[1]
	}
	b.WriteString(r.textStyle.Render(s[last:]))
	return b.String()
}

// stripBold drops ** markers inside headings, which are already bold.
func stripBold(s string) string {
	return boldRegex.ReplaceAllString(s, "$1")
}

func isRule(s string) bool {
	if len(s) < 3 {
		return false
	}
	return strings.Trim(s, "-") == "" || strings.Trim(s, "*") == "" || strings.Trim(s, "_") == ""
}

func leadingSpaces(s string) int {
	return len(s) - len(strings.TrimLeft(s, " "))
}
