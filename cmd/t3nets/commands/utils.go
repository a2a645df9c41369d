// ABOUTME: Shared output helpers for CLI commands
// ABOUTME: Truncation, relative times, JSON output, lipgloss styles and glamour rendering
package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/WildEllie/t3nets/internal/models"
)

var (
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	titleStyle = lipgloss.NewStyle().Bold(true)

	routeStyles = map[models.Route]lipgloss.Style{
		models.RouteConversational: lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		models.RouteRule:           lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		models.RouteAI:             lipgloss.NewStyle().Foreground(lipgloss.Color("213")),
	}
)

// truncate shortens a string to maxLen, adding "..." if truncated
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// formatTime formats a time for display
func formatTime(t time.Time) string {
	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	}
	return t.Format("2006-01-02")
}

// routeBadge renders "[route skill/action]" for a reply footer
func routeBadge(route models.Route, skill, action string, tokens int) string {
	label := string(route)
	if skill != "" {
		label += " " + skill
		if action != "" {
			label += "/" + action
		}
	}
	style, ok := routeStyles[route]
	if !ok {
		style = mutedStyle
	}
	return style.Render("["+label+"]") + mutedStyle.Render(fmt.Sprintf(" %d tokens", tokens))
}

// renderMarkdown renders model output for the terminal, falling back to the plain text
func renderMarkdown(text string, width int) string {
	opts := []glamour.TermRendererOption{glamour.WithAutoStyle()}
	if width > 0 {
		opts = append(opts, glamour.WithWordWrap(width))
	}
	renderer, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return text
	}
	out, err := renderer.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}

// writeJSON prints v as indented JSON
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// parseAssignments turns ["key=value", ...] into a map
func parseAssignments(args []string) (map[string]string, error) {
	out := make(map[string]string, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("expected key=value, got %q", arg)
		}
		out[key] = value
	}
	return out, nil
}
