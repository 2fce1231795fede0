package itemview

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	checkedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	mutedStyle   = lipgloss.NewStyle().Faint(true)
	doneStyle    = lipgloss.NewStyle().Faint(true).Strikethrough(true)
	editStyle    = lipgloss.NewStyle().Underline(true)
	saveStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	deleteStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	failedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)

	boxChecked   = "☑"
	boxUnchecked = "☐"
)

// Controls renders the edit and delete buttons. The edit button reads
// "save" while Editing.
func (m Model) Controls() string {
	edit := mutedStyle.Render("[✒]")
	if m.state == Editing {
		edit = saveStyle.Render("[save]")
	}
	return edit + " " + deleteStyle.Render("[✖]")
}

// View renders the checkbox, the title (or the title input while Editing),
// the controls and the status of the last operation.
func (m Model) View() string {
	box := mutedStyle.Render(boxUnchecked)
	if m.record.IsCompleted {
		box = checkedStyle.Render(boxChecked)
	}

	var label string
	switch {
	case m.state == Editing:
		label = editStyle.Render(m.input.View())
	case m.record.IsCompleted:
		label = doneStyle.Render(m.record.Title)
	default:
		label = m.record.Title
	}

	parts := []string{box, label, m.Controls()}
	if s := m.statusLine(); s != "" {
		parts = append(parts, s)
	}
	return strings.Join(parts, " ")
}

func (m Model) statusLine() string {
	switch m.status {
	case StatusPending:
		return pendingStyle.Render("…")
	case StatusFailed:
		return failedStyle.Render("✖ " + m.lastOp.failureText())
	default:
		return ""
	}
}

func (o Op) failureText() string {
	switch o {
	case OpCommitTitle:
		return "title not saved"
	case OpToggle:
		return "not toggled"
	case OpDelete:
		return "not deleted"
	default:
		return "failed"
	}
}
