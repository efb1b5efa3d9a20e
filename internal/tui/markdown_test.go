package tui

import (
	"strings"
	"testing"
)

func TestMarkdownRenderer_Render(t *testing.T) {
	r := NewMarkdownRenderer()

	tests := []struct {
		name    string
		input   string
		want    []string
		notWant []string
	}{
		{
			name:    "heading strips markers",
			input:   "# Final Report",
			want:    []string{"Final Report"},
			notWant: []string{"#"},
		},
		{
			name:    "nested headings",
			input:   "## Findings\n### Details",
			want:    []string{"Findings", "Details"},
			notWant: []string{"##"},
		},
		{
			name:    "star bullet",
			input:   "* first point",
			want:    []string{"•", "first point"},
			notWant: []string{"* "},
		},
		{
			name:  "dash bullet",
			input: "- second point",
			want:  []string{"•", "second point"},
		},
		{
			name:    "inline bold",
			input:   "This is **important** text",
			want:    []string{"This is", "important", "text"},
			notWant: []string{"**"},
		},
		{
			name:    "rule",
			input:   "---",
			want:    []string{"─"},
			notWant: []string{"---"},
		},
		{
			name:  "plain text unchanged",
			input: "Just a paragraph.",
			want:  []string{"Just a paragraph."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Render(tt.input, 60)
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("Render(%q) = %q, want it to contain %q", tt.input, got, w)
				}
			}
			for _, nw := range tt.notWant {
				if strings.Contains(got, nw) {
					t.Errorf("Render(%q) = %q, should not contain %q", tt.input, got, nw)
				}
			}
		})
	}
}

func TestMarkdownRenderer_PreservesLineOrder(t *testing.T) {
	r := NewMarkdownRenderer()

	got := r.Render("# Title\n\nalpha\n* beta\ngamma", 60)

	a := strings.Index(got, "alpha")
	b := strings.Index(got, "beta")
	c := strings.Index(got, "gamma")
	if a < 0 || b < 0 || c < 0 || !(a < b && b < c) {
		t.Errorf("lines out of order in %q", got)
	}
}

func TestMarkdownRenderer_Empty(t *testing.T) {
	r := NewMarkdownRenderer()
	if got := strings.TrimSpace(r.Render("", 40)); got != "" {
		t.Errorf("Render(\"\") = %q, want empty", got)
	}
}
