package tui

import (
	"context"
	"net/http"
	"reflect"
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/idilsaglam/todo-remote/internal/api"
	"github.com/idilsaglam/todo-remote/internal/api/apitest"
	"github.com/idilsaglam/todo-remote/internal/itemview"
	"github.com/idilsaglam/todo-remote/internal/model"
	"github.com/idilsaglam/todo-remote/internal/store/liststore"
)

var backendRecords = []model.Record{
	{ID: 4, Title: "Walk dog"},
	{ID: 5, Title: "Buy milk"},
	{ID: 6, Title: "Call mom", IsCompleted: true},
}

func keyRunes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

// newLoaded returns a container whose store was seeded through Init.
func newLoaded(t *testing.T) (Model, *apitest.Server, *liststore.Store) {
	t.Helper()
	return newLoadedWithKeys(t, itemview.DefaultKeyMap())
}

func newLoadedWithKeys(t *testing.T, keys itemview.KeyMap) (Model, *apitest.Server, *liststore.Store) {
	t.Helper()
	srv := apitest.New(t, backendRecords...)
	c, err := api.New(srv.URL)
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	store := liststore.New(nil, liststore.WithFetcher(c))
	m := New(itemview.NewActions(c, store, nil), keys, nil)

	mAny, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	m = mAny.(Model)

	mAny, _ = m.Update(m.Init()())
	m = mAny.(Model)
	return m, srv, store
}

// exec runs an item command and feeds the result to the container.
func exec(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	if cmd == nil {
		t.Fatalf("expected a command")
	}
	res, ok := cmd().(itemview.ResultMsg)
	if !ok {
		t.Fatalf("expected item result")
	}
	mAny, _ := m.Update(res)
	return mAny.(Model)
}

func press(m Model, keys ...tea.KeyMsg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	for _, k := range keys {
		var mAny tea.Model
		mAny, cmd = m.Update(k)
		m = mAny.(Model)
	}
	return m, cmd
}

func TestInit_LoadsAndMountsViews(t *testing.T) {
	m, srv, store := newLoaded(t)

	if !reflect.DeepEqual(store.Get(), backendRecords) {
		t.Fatalf("store not seeded: %+v", store.Get())
	}
	if len(m.Views()) != 3 {
		t.Fatalf("expected 3 mounted views, got %d", len(m.Views()))
	}
	if calls := srv.Calls(); len(calls) != 1 || calls[0].Path != "/allTodos" {
		t.Fatalf("unexpected calls %+v", calls)
	}
	v := m.View()
	for _, want := range []string{"Walk dog", "Buy milk", "Call mom", "Total 3"} {
		if !strings.Contains(v, want) {
			t.Fatalf("view missing %q:\n%s", want, v)
		}
	}
}

func TestToggleSelected_RefreshesRow(t *testing.T) {
	m, srv, store := newLoaded(t)

	m, _ = press(m, keyRunes("j"))
	if sel := m.Selected(); sel == nil || sel.ID() != 5 {
		t.Fatalf("expected record 5 selected")
	}

	m, cmd := press(m, keyRunes("x"))
	m = exec(t, m, cmd)

	if rec, _ := store.Find(5); !rec.IsCompleted {
		t.Fatalf("store not updated")
	}
	if !m.Views()[5].Record().IsCompleted {
		t.Fatalf("view not refreshed from store")
	}
	if last := srv.Calls()[len(srv.Calls())-1]; last.Path != "/editTodo/5" {
		t.Fatalf("unexpected call %+v", last)
	}
}

func TestDeleteSelected_UnmountsView(t *testing.T) {
	m, _, store := newLoaded(t)

	m, cmd := press(m, keyRunes("j"), keyRunes("d"))
	m = exec(t, m, cmd)

	got := store.Get()
	if len(got) != 2 || got[0].ID != 4 || got[1].ID != 6 {
		t.Fatalf("got %+v", got)
	}
	if _, ok := m.Views()[5]; ok {
		t.Fatalf("view for deleted record still mounted")
	}
	if strings.Contains(m.View(), "Buy milk") {
		t.Fatalf("deleted row still rendered")
	}
}

func TestEditing_RoutesAllKeysToItem(t *testing.T) {
	m, srv, store := newLoaded(t)
	before := len(srv.Calls())

	m, _ = press(m, keyRunes("e"), keyRunes("!"), keyRunes("d"), keyRunes("q"), keyRunes("j"))
	if len(srv.Calls()) != before {
		t.Fatalf("keys while editing must not reach the backend")
	}
	sel := m.Selected()
	if sel == nil || sel.ID() != 4 || !sel.Editing() {
		t.Fatalf("selection should stay on the edited item")
	}
	if got := sel.EditedTitle(); got != "Walk dog!dqj" {
		t.Fatalf("buffer: %q", got)
	}

	m, cmd := press(m, tea.KeyMsg{Type: tea.KeyEnter})
	m = exec(t, m, cmd)

	if rec, _ := store.Find(4); rec.Title != "Walk dog!dqj" {
		t.Fatalf("title not committed: %+v", rec)
	}
	if m.Views()[4].Editing() {
		t.Fatalf("view should be viewing after save")
	}
}

func TestEditBufferSurvivesRefresh(t *testing.T) {
	m, _, _ := newLoaded(t)

	m, _ = press(m, keyRunes("e"), keyRunes("?"))
	mAny, _ := m.Update(m.Init()())
	m = mAny.(Model)

	v := m.Views()[4]
	if !v.Editing() {
		t.Fatalf("refresh must not leave edit mode")
	}
	if got := v.EditedTitle(); got != "Walk dog?" {
		t.Fatalf("buffer reset by refresh: %q", got)
	}
	if v.Record().Title != "Walk dog" {
		t.Fatalf("record should still be the confirmed one: %+v", v.Record())
	}
}

func TestRowResultWhileEditing_KeepsKeysOnEditedRow(t *testing.T) {
	m, srv, store := newLoaded(t)

	// delete 4 is in flight while 5 is being edited
	m, deleteFour := press(m, keyRunes("d"))
	m, _ = press(m, keyRunes("j"), keyRunes("e"), keyRunes("a"))
	m = exec(t, m, deleteFour)
	calls := len(srv.Calls())

	sel := m.Selected()
	if sel == nil || sel.ID() != 5 || !sel.Editing() {
		t.Fatalf("cursor should follow the edited row, got %+v", sel)
	}

	m, _ = press(m, keyRunes("x"), keyRunes(" "), keyRunes("d"))
	if got := srv.Calls(); len(got) != calls {
		t.Fatalf("typing must not reach the backend: %+v", got[calls:])
	}
	if got := m.Views()[5].EditedTitle(); got != "Buy milkax d" {
		t.Fatalf("buffer: %q", got)
	}
	want := []model.Record{backendRecords[1], backendRecords[2]}
	if !reflect.DeepEqual(store.Get(), want) {
		t.Fatalf("store: %+v", store.Get())
	}
}

func TestEditedRecordGone_EndsEditRouting(t *testing.T) {
	m, srv, _ := newLoaded(t)
	m, _ = press(m, keyRunes("e"))

	// record 4 disappears on the backend before the edit is saved
	c, _ := api.New(srv.URL)
	if _, err := c.Delete(context.Background(), 4); err != nil {
		t.Fatalf("delete: %v", err)
	}
	mAny, _ := m.Update(m.Init()())
	m = mAny.(Model)

	if _, ok := m.Views()[4]; ok {
		t.Fatalf("view for the vanished record still mounted")
	}
	m, cmd := press(m, keyRunes("x"))
	m = exec(t, m, cmd)
	if !m.Views()[5].Record().IsCompleted {
		t.Fatalf("keys should drive the selected row again")
	}
}

func TestEditing_ReceivesCursorBlinks(t *testing.T) {
	m, _, _ := newLoaded(t)
	m, focus := press(m, keyRunes("e"))
	if focus == nil {
		t.Fatalf("expected a blink command on focus")
	}
	blink := focus()

	_, next := m.Update(blink)
	if next == nil {
		t.Fatalf("blink not delivered to the edit buffer")
	}
}

func TestCustomKeyMap_AppliesToMountedViews(t *testing.T) {
	keys := itemview.DefaultKeyMap()
	keys.Delete = key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "delete"))
	m, srv, store := newLoadedWithKeys(t, keys)

	if got := m.Views()[4].KeyMap().Delete.Keys(); !reflect.DeepEqual(got, []string{"D"}) {
		t.Fatalf("view key map: %v", got)
	}
	calls := len(srv.Calls())
	m, _ = press(m, keyRunes("d"))
	if len(srv.Calls()) != calls {
		t.Fatalf("unbound key reached the backend")
	}
	m, cmd := press(m, keyRunes("D"))
	exec(t, m, cmd)
	if _, ok := store.Find(4); ok {
		t.Fatalf("rebound delete did not remove the record")
	}
}

func TestNotOK_ShowsFailureKeepsRows(t *testing.T) {
	m, srv, store := newLoaded(t)
	srv.FailWith(http.StatusInternalServerError)

	m, cmd := press(m, keyRunes("d"))
	m = exec(t, m, cmd)

	if !reflect.DeepEqual(store.Get(), backendRecords) {
		t.Fatalf("store changed on failure")
	}
	if m.Views()[4].Status() != itemview.StatusFailed {
		t.Fatalf("expected failed status on the row")
	}
	if !strings.Contains(m.View(), "not deleted") {
		t.Fatalf("failure marker missing:\n%s", m.View())
	}
}

func TestResultForUnmountedViewIgnored(t *testing.T) {
	m, _, _ := newLoaded(t)
	mAny, _ := m.Update(itemview.ResultMsg{ID: 42, Op: itemview.OpDelete})
	m = mAny.(Model)
	if len(m.Views()) != 3 {
		t.Fatalf("unexpected remount: %d views", len(m.Views()))
	}
}

func TestLoadFailure_ShowsError(t *testing.T) {
	srv := apitest.New(t, backendRecords...)
	srv.FailWith(http.StatusServiceUnavailable)
	c, _ := api.New(srv.URL)
	store := liststore.New(nil, liststore.WithFetcher(c))
	m := New(itemview.NewActions(c, store, nil), itemview.DefaultKeyMap(), nil)

	mAny, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	m = mAny.(Model)
	mAny, _ = m.Update(m.Init()())
	m = mAny.(Model)
	if !strings.Contains(m.View(), "503") {
		t.Fatalf("expected load error in view:\n%s", m.View())
	}
	if len(m.Views()) != 0 {
		t.Fatalf("no views expected")
	}
}

func TestQuit(t *testing.T) {
	m, _, _ := newLoaded(t)
	_, cmd := m.Update(keyRunes("q"))
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected QuitMsg")
	}
}
