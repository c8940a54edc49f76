package theme

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/debemdeboas/archive-console/internal/model"
)

var (
	Prompt  = lipgloss.NewStyle().Foreground(lipgloss.Color("63")).Bold(true)
	Output  = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	Title   = lipgloss.NewStyle().Bold(true)
	Muted   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	Success = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	Failure = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)

	published = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	draft     = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	deleted   = lipgloss.NewStyle().Foreground(lipgloss.Color("160")).Strikethrough(true)
	pending   = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Italic(true)

	Heading = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("212")).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(lipgloss.Color("63"))
)

// StatusBadge renders the state of a post as shown in listings. A pending mutation wins over
// the stored state.
func StatusBadge(p model.Post, isPending bool) string {
	switch {
	case isPending:
		return pending.Render("pending")
	case p.IsDeleted:
		return deleted.Render("deleted")
	case p.Status == model.StatusPublished:
		return published.Render("published")
	default:
		return draft.Render("draft")
	}
}
