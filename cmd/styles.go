package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	successColor = lipgloss.AdaptiveColor{Light: "#2E7D32", Dark: "#7CCB7F"}
	warnColor    = lipgloss.AdaptiveColor{Light: "#B26A00", Dark: "#E5C07B"}
	mutedColor   = lipgloss.AdaptiveColor{Light: "#6B6B6B", Dark: "#8A8A8A"}
	deleteColor  = lipgloss.AdaptiveColor{Light: "#C62828", Dark: "#E06C75"}

	successStyle = lipgloss.NewStyle().Foreground(successColor).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(warnColor).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(mutedColor)
	addedStyle   = lipgloss.NewStyle().Foreground(successColor)
	deletedStyle = lipgloss.NewStyle().Foreground(deleteColor)
)

func printSuccess(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintln(w, successStyle.Render("✓")+" "+fmt.Sprintf(format, args...))
}

func printWarn(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintln(w, warnStyle.Render("!")+" "+fmt.Sprintf(format, args...))
}

func printMuted(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf(format, args...)))
}

// printDiff colours the "-" and "+" lines of a site.LineDiff result.
func printDiff(w io.Writer, diff string) {
	for line := range strings.Lines(diff) {
		line = strings.TrimSuffix(line, "\n")
		switch {
		case strings.HasPrefix(line, "-"):
			_, _ = fmt.Fprintln(w, "    "+deletedStyle.Render(line))
		case strings.HasPrefix(line, "+"):
			_, _ = fmt.Fprintln(w, "    "+addedStyle.Render(line))
		default:
			_, _ = fmt.Fprintln(w, "    "+line)
		}
	}
}
