// Package itemview renders a single todo record and mediates its edits
// against the backend.
//
// A Model is either Viewing or Editing. Pressing the edit key enters
// Editing with the buffered title; pressing save commits the buffer and
// returns to Viewing whatever the backend answers. Completion and deletion
// are only available while Viewing. The checkbox and label always show the
// shared record, so an unconfirmed change is never drawn.
package itemview

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/idilsaglam/todo-remote/internal/api"
	"github.com/idilsaglam/todo-remote/internal/model"
)

// State is the view's local mode.
type State int

const (
	Viewing State = iota
	Editing
)

func (s State) String() string {
	if s == Editing {
		return "editing"
	}
	return "viewing"
}

// Op names a backend operation started by a view.
type Op int

const (
	OpCommitTitle Op = iota
	OpToggle
	OpDelete
)

func (o Op) String() string {
	switch o {
	case OpCommitTitle:
		return "commit-title"
	case OpToggle:
		return "toggle"
	case OpDelete:
		return "delete"
	default:
		return fmt.Sprintf("op(%d)", int(o))
	}
}

// Status tracks the last operation the view started.
type Status int

const (
	StatusIdle Status = iota
	StatusPending
	StatusCommitted
	StatusFailed
)

// ResultMsg reports the end of an operation for record ID.
type ResultMsg struct {
	ID      int
	Op      Op
	Outcome api.Outcome
	Err     error
}

// KeyMap holds the item's bindings.
type KeyMap struct {
	Edit   key.Binding
	Save   key.Binding
	Toggle key.Binding
	Delete key.Binding
}

// DefaultKeyMap returns the standard bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Edit:   key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
		Save:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "save")),
		Toggle: key.NewBinding(key.WithKeys(" ", "x"), key.WithHelp("space", "toggle")),
		Delete: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
	}
}

// Model is one mounted item view.
type Model struct {
	record  model.Record
	actions *Actions
	keys    KeyMap

	state State
	input textinput.Model // editedTitle

	status Status
	lastOp Op
	err    error
}

// New mounts a view for rec. The title buffer starts as rec.Title.
func New(rec model.Record, actions *Actions) Model {
	ti := textinput.New()
	ti.Prompt = ""
	ti.Placeholder = "title"
	ti.SetValue(rec.Title)

	return Model{
		record:  rec,
		actions: actions,
		keys:    DefaultKeyMap(),
		input:   ti,
	}
}

func (m Model) ID() int { return m.record.ID }
func (m Model) Record() model.Record { return m.record }
func (m Model) State() State { return m.state }
func (m Model) Editing() bool { return m.state == Editing }
func (m Model) EditedTitle() string { return m.input.Value() }
func (m Model) Status() Status { return m.status }
func (m Model) LastOp() Op { return m.lastOp }
func (m Model) Err() error { return m.err }
func (m Model) KeyMap() KeyMap { return m.keys }
func (m *Model) SetWidth(width int) { m.input.Width = width }
func (m *Model) SetKeyMap(keys KeyMap) { m.keys = keys }

// SetRecord refreshes the record the view renders. The title buffer is
// left alone; only a remount resets it.
func (m *Model) SetRecord(rec model.Record) {
	m.record = rec
}

// ShortHelp lists the bindings that apply in the current state.
func (m Model) ShortHelp() []key.Binding {
	if m.state == Editing {
		return []key.Binding{m.keys.Save}
	}
	return []key.Binding{m.keys.Edit, m.keys.Toggle, m.keys.Delete}
}

func (m Model) Init() tea.Cmd { return nil }

// Update handles keys and results addressed to this view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ResultMsg:
		if msg.ID != m.record.ID {
			return m, nil
		}
		m.lastOp, m.err = msg.Op, msg.Err
		if msg.Err != nil {
			m.status = StatusFailed
		} else {
			m.status = StatusCommitted
		}
		return m, nil

	case tea.KeyMsg:
		if m.state == Editing {
			if key.Matches(msg, m.keys.Save) {
				return m.toggleEditing()
			}
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		}
		switch {
		case key.Matches(msg, m.keys.Edit):
			return m.toggleEditing()
		case key.Matches(msg, m.keys.Toggle):
			return m.start(OpToggle, m.toggleCmd(m.record.ID, m.record.IsCompleted))
		case key.Matches(msg, m.keys.Delete):
			return m.start(OpDelete, m.deleteCmd(m.record.ID))
		}
	}

	if m.state == Editing {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// toggleEditing flips between the two states. Leaving Editing commits the
// buffer; the flip happens whatever the commit later reports.
func (m Model) toggleEditing() (Model, tea.Cmd) {
	if m.state == Viewing {
		m.state = Editing
		m.input.CursorEnd()
		cmd := m.input.Focus()
		return m, cmd
	}
	cmd := m.commitCmd(m.record.ID, m.input.Value())
	m.state = Viewing
	m.input.Blur()
	return m.start(OpCommitTitle, cmd)
}

func (m Model) start(op Op, cmd tea.Cmd) (Model, tea.Cmd) {
	m.status, m.lastOp, m.err = StatusPending, op, nil
	return m, cmd
}

func (m Model) commitCmd(id int, title string) tea.Cmd {
	a := m.actions
	return func() tea.Msg {
		err := a.CommitTitle(context.Background(), id, title)
		return ResultMsg{ID: id, Op: OpCommitTitle, Outcome: api.OutcomeOf(err), Err: err}
	}
}

func (m Model) toggleCmd(id int, isCompleted bool) tea.Cmd {
	a := m.actions
	return func() tea.Msg {
		err := a.ToggleCompletion(context.Background(), id, isCompleted)
		return ResultMsg{ID: id, Op: OpToggle, Outcome: api.OutcomeOf(err), Err: err}
	}
}

func (m Model) deleteCmd(id int) tea.Cmd {
	a := m.actions
	return func() tea.Msg {
		err := a.Delete(context.Background(), id)
		return ResultMsg{ID: id, Op: OpDelete, Outcome: api.OutcomeOf(err), Err: err}
	}
}
