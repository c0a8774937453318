// Package report renders the end-of-run summary for the terminal.
package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/EINDEX/plex-cleaner/internal/cleaner"
	"github.com/EINDEX/plex-cleaner/internal/domain"
)

// Color palette
var (
	plexOrange = lipgloss.Color("#E5A00D")
	dimGray    = lipgloss.Color("#6B7280")
	green      = lipgloss.Color("#10B981")
	red        = lipgloss.Color("#EF4444")
	blue       = lipgloss.Color("#3B82F6")
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(plexOrange).
			Bold(true)

	deleteStyle = lipgloss.NewStyle().
			Foreground(red)

	keepStyle = lipgloss.NewStyle().
			Foreground(green)

	deferStyle = lipgloss.NewStyle().
			Foreground(blue)

	dimStyle = lipgloss.NewStyle().
			Foreground(dimGray)
)

// Render formats a run summary for terminal output.
func Render(s *cleaner.Summary) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("plex-cleaner run summary"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("%s  %s  %s  %s  %s\n",
		deleteStyle.Render(fmt.Sprintf("deleted %d", s.Deleted)),
		keepStyle.Render(fmt.Sprintf("kept %d", s.Kept)),
		deferStyle.Render(fmt.Sprintf("deferred %d", s.Deferred)),
		dimStyle.Render(fmt.Sprintf("held %d", s.Held)),
		dimStyle.Render(fmt.Sprintf("warned %d", s.Warned)),
	))

	for _, o := range s.Outcomes {
		switch {
		case o.Deleted:
			b.WriteString(fmt.Sprintf("%s %s %s\n",
				deleteStyle.Render("deleted"), o.Record.Title, dimStyle.Render(o.Decision.Reason)))
		case o.Decision.Verdict == domain.VerdictDelete:
			b.WriteString(fmt.Sprintf("%s %s %s\n",
				dimStyle.Render("held"), o.Record.Title, dimStyle.Render(o.Note)))
		case o.Decision.Verdict == domain.VerdictDefer && o.Decision.ETA != nil:
			b.WriteString(fmt.Sprintf("%s %s %s\n",
				deferStyle.Render("deferred"), o.Record.Title,
				dimStyle.Render("until "+o.Decision.ETA.Format("2006-01-02"))))
		case o.Decision.Verdict == domain.VerdictWarn:
			b.WriteString(fmt.Sprintf("%s %s %s\n",
				deleteStyle.Render("warning"), o.Record.Title, dimStyle.Render(o.Decision.Reason)))
		}
	}

	return b.String()
}
