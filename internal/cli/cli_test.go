package cli

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/idilsaglam/todo-remote/internal/api/apitest"
	"github.com/idilsaglam/todo-remote/internal/model"
	"github.com/idilsaglam/todo-remote/internal/store/jsonstore"
)

var backendRecords = []model.Record{
	{ID: 4, Title: "Walk dog"},
	{ID: 5, Title: "Buy milk"},
	{ID: 6, Title: "Call mom", IsCompleted: true},
}

// isolate points config and cache at a temp dir and returns the cache path.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("TODO_CONFIG", "")
	t.Setenv("TODO_BASE_URL", "")
	t.Setenv("TODO_THEME", "")
	t.Setenv("TODO_LOG_LEVEL", "error")
	cache := filepath.Join(dir, "cache", "todos.json")
	t.Setenv("TODO_CACHE_FILE", cache)
	return cache
}

func run(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code := Run(context.Background(), args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestList(t *testing.T) {
	cache := isolate(t)
	srv := apitest.New(t, backendRecords...)

	code, out, errOut := run(t, "--base-url", srv.URL, "ls")
	if code != ExitOK {
		t.Fatalf("exit %d, stderr %q", code, errOut)
	}
	for _, want := range []string{"#4", "Walk dog", "#6", "Call mom", "Total 3", " 33%"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}

	snap, err := jsonstore.New(cache).Load()
	if err != nil || len(snap) != 3 {
		t.Fatalf("snapshot not written: %+v %v", snap, err)
	}
}

func TestList_Grouped(t *testing.T) {
	isolate(t)
	srv := apitest.New(t, backendRecords...)

	code, out, _ := run(t, "--base-url", srv.URL, "--theme", "mono", "ls", "--group")
	if code != ExitOK {
		t.Fatalf("exit %d", code)
	}
	pending := strings.Index(out, "Pending")
	done := strings.Index(out, "Done")
	mom := strings.Index(out, "Call mom")
	if pending < 0 || done < 0 || mom < done {
		t.Fatalf("completed record should be listed under Done:\n%s", out)
	}
	if !strings.Contains(out, "[x]") {
		t.Fatalf("mono theme boxes expected:\n%s", out)
	}
}

func TestList_FallsBackToSnapshot(t *testing.T) {
	cache := isolate(t)
	if err := jsonstore.New(cache).Save([]model.Record{{ID: 9, Title: "cached"}}); err != nil {
		t.Fatalf("seed cache: %v", err)
	}
	dead := httptest.NewServer(http.NotFoundHandler())
	url := dead.URL
	dead.Close()

	code, out, errOut := run(t, "--base-url", url, "ls")
	if code != ExitOK {
		t.Fatalf("exit %d, stderr %q", code, errOut)
	}
	if !strings.Contains(out, "cached") {
		t.Fatalf("expected cached list:\n%s", out)
	}
	if !strings.Contains(errOut, "last known list") {
		t.Fatalf("expected fallback warning, got %q", errOut)
	}
}

func TestList_NotOKFails(t *testing.T) {
	isolate(t)
	srv := apitest.New(t, backendRecords...)
	srv.FailWith(http.StatusInternalServerError)

	code, _, errOut := run(t, "--base-url", srv.URL, "ls")
	if code != ExitFailure {
		t.Fatalf("exit %d", code)
	}
	if !strings.Contains(errOut, "backend refused (500)") {
		t.Fatalf("stderr %q", errOut)
	}
}

func TestDone(t *testing.T) {
	isolate(t)
	srv := apitest.New(t, backendRecords...)

	code, out, errOut := run(t, "--base-url", srv.URL, "done", "5")
	if code != ExitOK {
		t.Fatalf("exit %d, stderr %q", code, errOut)
	}
	if !strings.Contains(out, "toggled") {
		t.Fatalf("stdout %q", out)
	}
	calls := srv.Calls()
	last := calls[len(calls)-1]
	if last.Method != http.MethodPut || last.Path != "/editTodo/5" || last.Body != `{"isCompleted":true}` {
		t.Fatalf("unexpected call %+v", last)
	}
}

func TestDone_UnknownID(t *testing.T) {
	isolate(t)
	srv := apitest.New(t, backendRecords...)
	code, _, errOut := run(t, "--base-url", srv.URL, "done", "42")
	if code != ExitFailure || !strings.Contains(errOut, "no todo with id 42") {
		t.Fatalf("exit %d, stderr %q", code, errOut)
	}
}

func TestEdit_JoinsWordsVerbatim(t *testing.T) {
	isolate(t)
	srv := apitest.New(t, backendRecords...)

	code, _, errOut := run(t, "--base-url", srv.URL, "edit", "4", "Walk", "the", "dog ")
	if code != ExitOK {
		t.Fatalf("exit %d, stderr %q", code, errOut)
	}
	if got := srv.Calls()[0].Body; got != `{"title":"Walk the dog "}` {
		t.Fatalf("body %q", got)
	}
}

func TestRemove(t *testing.T) {
	cache := isolate(t)
	if err := jsonstore.New(cache).Save(backendRecords); err != nil {
		t.Fatalf("seed cache: %v", err)
	}
	srv := apitest.New(t, backendRecords...)

	code, out, errOut := run(t, "--base-url", srv.URL, "rm", "5")
	if code != ExitOK || !strings.Contains(out, "removed") {
		t.Fatalf("exit %d, out %q, stderr %q", code, out, errOut)
	}
	snap, _ := jsonstore.New(cache).Load()
	if len(snap) != 2 || snap[0].ID != 4 || snap[1].ID != 6 {
		t.Fatalf("snapshot should drop the deleted record: %+v", snap)
	}
}

func TestRemove_NotOKLeavesSnapshot(t *testing.T) {
	cache := isolate(t)
	if err := jsonstore.New(cache).Save(backendRecords); err != nil {
		t.Fatalf("seed cache: %v", err)
	}
	srv := apitest.New(t, backendRecords...)
	srv.FailWith(http.StatusNotFound)

	code, _, _ := run(t, "--base-url", srv.URL, "rm", "5")
	if code != ExitFailure {
		t.Fatalf("exit %d", code)
	}
	snap, _ := jsonstore.New(cache).Load()
	if len(snap) != 3 {
		t.Fatalf("snapshot changed on failure: %+v", snap)
	}
}

func TestUsageErrors(t *testing.T) {
	isolate(t)
	cases := [][]string{
		{"done"},
		{"done", "abc"},
		{"edit", "4"},
		{"rm", "1", "2"},
		{"frobnicate"},
		{"ls", "--bogus"},
		{"--base-url", "ftp://nowhere", "ls"},
	}
	for _, args := range cases {
		code, _, errOut := run(t, args...)
		if code != ExitUsage {
			t.Fatalf("%v: exit %d, stderr %q", args, code, errOut)
		}
	}
}
