// Package tui is the interactive list: one itemview per record in the
// shared store, refreshed from the store after every confirmed change.
package tui

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/idilsaglam/todo-remote/internal/itemview"
	"github.com/idilsaglam/todo-remote/internal/model"
	"github.com/idilsaglam/todo-remote/internal/store/liststore"
)

// listItem adapts a record id to bubbles/list.Item; rendering is done by
// the mounted itemview.
type listItem struct {
	id    int
	title string
}

func (i listItem) FilterValue() string { return i.title }

// itemDelegate renders each row with its item view (single line).
type itemDelegate struct {
	views map[int]*itemview.Model
}

func (d itemDelegate) Height() int                               { return 1 }
func (d itemDelegate) Spacing() int                              { return 0 }
func (d itemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(listItem)
	if !ok {
		return
	}
	v, ok := d.views[it.id]
	if !ok {
		return
	}
	prefix := "  "
	if index == m.Index() {
		prefix = selectedStyle.Render(">") + " "
	}
	fmt.Fprint(w, prefix+v.View())
}

type keyMap struct {
	Quit    key.Binding
	Refresh key.Binding
}

// loadedMsg reports the end of a revalidation.
type loadedMsg struct{ err error }

// Model is the list container.
type Model struct {
	store   *liststore.Store
	actions *itemview.Actions
	logger  *log.Logger

	list    list.Model
	views   map[int]*itemview.Model // mounted item views by record id
	keys    keyMap
	itemKey itemview.KeyMap

	// editingID is the view in Editing, if any. Keys go there whatever
	// row the cursor is on.
	editingID int
	editing   bool

	loadErr string
	width   int
}

// New builds the container over the store behind actions. Every mounted
// item view uses keys.
func New(actions *itemview.Actions, keys itemview.KeyMap, logger *log.Logger) Model {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	views := map[int]*itemview.Model{}

	l := list.New(nil, itemDelegate{views: views}, 0, 0)
	l.SetShowHelp(true)
	l.SetShowPagination(true)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle
	l.Styles.HelpStyle = helpStyle
	l.Styles.PaginationStyle = helpStyle
	l.FilterInput.Prompt = "/ "
	l.SetStatusBarItemName("item", "items")
	// q and esc are handled here
	l.KeyMap.Quit.SetEnabled(false)

	ik := keys
	km := keyMap{
		Quit:    key.NewBinding(key.WithKeys("q", "esc"), key.WithHelp("q", "quit")),
		Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	}
	extra := func() []key.Binding { return []key.Binding{ik.Edit, ik.Toggle, ik.Delete, km.Refresh, km.Quit} }
	l.AdditionalShortHelpKeys = extra
	l.AdditionalFullHelpKeys = extra

	m := Model{
		store:   actions.Store(),
		actions: actions,
		logger:  logger,
		list:    l,
		views:   views,
		keys:    km,
		itemKey: ik,
	}
	m.refresh()
	return m
}

// Run starts the interactive list on the alternate screen.
func Run(ctx context.Context, actions *itemview.Actions, logger *log.Logger) error {
	p := tea.NewProgram(New(actions, itemview.DefaultKeyMap(), logger), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

// Views returns the mounted item views keyed by record id.
func (m Model) Views() map[int]*itemview.Model { return m.views }

// Selected returns the item view under the cursor.
func (m Model) Selected() *itemview.Model {
	it, ok := m.list.SelectedItem().(listItem)
	if !ok {
		return nil
	}
	return m.views[it.id]
}

func (m Model) Init() tea.Cmd { return m.revalidate() }

func (m Model) revalidate() tea.Cmd {
	store := m.store
	return func() tea.Msg {
		return loadedMsg{err: store.Revalidate(context.Background())}
	}
}

// refresh rebuilds the rows from the store. Views of records still present
// keep their local state; views of records that disappeared are dropped.
func (m *Model) refresh() tea.Cmd {
	records := m.store.Get()
	seen := make(map[int]bool, len(records))
	items := make([]list.Item, 0, len(records))
	for _, r := range records {
		seen[r.ID] = true
		if v, ok := m.views[r.ID]; ok {
			v.SetRecord(r)
		} else {
			nv := itemview.New(r, m.actions)
			nv.SetKeyMap(m.itemKey)
			nv.SetWidth(m.inputWidth())
			m.views[r.ID] = &nv
		}
		items = append(items, listItem{id: r.ID, title: r.Title})
	}
	for id := range m.views {
		if !seen[id] {
			delete(m.views, id)
		}
	}
	m.list.Title = header(records)
	cmd := m.list.SetItems(items)
	m.followEditing()
	return cmd
}

// followEditing puts the cursor back on the view being edited after the
// rows changed. An edited record that vanished ends the edit.
func (m *Model) followEditing() {
	if !m.editing {
		return
	}
	if _, ok := m.views[m.editingID]; !ok {
		m.editing = false
		return
	}
	for i, it := range m.list.VisibleItems() {
		if li, ok := it.(listItem); ok && li.id == m.editingID {
			m.list.Select(i)
			return
		}
	}
}

// editingView returns the view in Editing, or nil.
func (m Model) editingView() *itemview.Model {
	if !m.editing {
		return nil
	}
	return m.views[m.editingID]
}

func (m Model) inputWidth() int {
	if m.width <= 20 {
		return 0
	}
	return m.width - 20
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.list.SetSize(msg.Width-4, msg.Height-4)
		for _, v := range m.views {
			v.SetWidth(m.inputWidth())
		}
		return m, nil

	case loadedMsg:
		if msg.err != nil {
			m.loadErr = msg.err.Error()
			m.logger.Warn("load failed", "err", msg.err)
			return m, nil
		}
		m.loadErr = ""
		return m, m.refresh()

	case itemview.ResultMsg:
		// The store already reflects the result; an unmounted view just
		// misses its status.
		if v, ok := m.views[msg.ID]; ok {
			nv, _ := v.Update(msg)
			*v = nv
		}
		return m, m.refresh()

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if v := m.editingView(); v != nil {
			return m.forward(v, msg)
		}
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch {
		case key.Matches(msg, m.keys.Quit):
			if m.list.FilterState() == list.FilterApplied && msg.String() == "esc" {
				break
			}
			return m, tea.Quit
		case key.Matches(msg, m.keys.Refresh):
			return m, m.revalidate()
		case key.Matches(msg, m.itemKey.Edit, m.itemKey.Toggle, m.itemKey.Delete):
			if v := m.Selected(); v != nil {
				return m.forward(v, msg)
			}
			return m, nil
		}
	}

	var cmds []tea.Cmd
	// cursor blinks and other ticks of the edit buffer
	if v := m.editingView(); v != nil {
		var cmd tea.Cmd
		m, cmd = m.forward(v, msg)
		cmds = append(cmds, cmd)
	}
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, tea.Batch(append(cmds, cmd)...)
}

// forward hands msg to one item view and tracks whether it is editing.
func (m Model) forward(v *itemview.Model, msg tea.Msg) (Model, tea.Cmd) {
	nv, cmd := v.Update(msg)
	*v = nv
	m.editing = nv.State() == itemview.Editing
	m.editingID = nv.ID()
	return m, cmd
}

func (m Model) View() string {
	content := m.list.View()
	if m.loadErr != "" {
		content += "\n" + errorStyle.Render("✖ "+m.loadErr)
	}
	return panelStyle.Render(content)
}

// header renders the list title with live counts.
func header(records []model.Record) string {
	dn, pn := model.Stats(records)
	return fmt.Sprintf("%s   %s %d  %s %d  %s %d",
		titleStyle.Render("Todos"),
		successStyle.Render("✔"), dn,
		pendingStyle.Render("•"), pn,
		accentStyle.Render("Total"), len(records),
	)
}
