// Package cli wires configuration, the backend client and the shared store
// into the todo command tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/idilsaglam/todo-remote/internal/api"
	"github.com/idilsaglam/todo-remote/internal/config"
	"github.com/idilsaglam/todo-remote/internal/itemview"
	"github.com/idilsaglam/todo-remote/internal/logging"
	"github.com/idilsaglam/todo-remote/internal/model"
	"github.com/idilsaglam/todo-remote/internal/store/jsonstore"
	"github.com/idilsaglam/todo-remote/internal/store/liststore"
	"github.com/idilsaglam/todo-remote/internal/tui"
	"github.com/idilsaglam/todo-remote/internal/ui"
)

// Exit codes.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
)

// Options hold the root flags.
type Options struct {
	ConfigPath string
	BaseURL    string
	LogLevel   string
	Theme      string
	NoColor    bool
	Group      bool // ls: group output by pending/done
}

// usageError marks bad invocations (exit code 2).
type usageError struct{ msg string }

func (e *usageError) Error() string { return e.msg }

func usageArgs(fn cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := fn(cmd, args); err != nil {
			return &usageError{msg: err.Error()}
		}
		return nil
	}
}

// app is everything a subcommand needs once configuration is loaded.
type app struct {
	opt     Options
	stdout  io.Writer
	stderr  io.Writer
	cfg     *config.Config
	printer *ui.Printer
	logger  *log.Logger
	client  *api.Client
	cache   *jsonstore.Store
}

// Run executes the command line and returns an exit code
// (0 ok, 1 error, 2 usage).
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := &app{stdout: stdout, stderr: stderr}
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return ExitOK
	}

	p := a.printer
	if p == nil {
		p = ui.NewPrinter(stdout, stderr, config.DefaultTheme, a.opt.NoColor)
	}
	var ue *usageError
	if errors.As(err, &ue) {
		p.Fail(ue.msg)
		fmt.Fprintln(stderr, "Run `todo --help` for usage.")
		return ExitUsage
	}
	p.Fail(describe(err))
	return ExitFailure
}

// describe turns backend errors into a one-line message.
func describe(err error) string {
	var se *api.StatusError
	switch {
	case errors.As(err, &se):
		return fmt.Sprintf("backend refused (%d): %s", se.Code, err)
	case api.OutcomeOf(err) == api.OutcomeFailed && errors.Is(err, api.ErrInvalidRecord):
		return "unexpected response: " + err.Error()
	default:
		return err.Error()
	}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "todo",
		Short:         "Edit todos stored on a remote backend",
		Args:          usageArgs(cobra.NoArgs),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTUI(cmd.Context())
		},
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{msg: err.Error()}
	})

	pf := root.PersistentFlags()
	pf.StringVar(&a.opt.ConfigPath, "config", "", "config file (default: $XDG_CONFIG_HOME/todo/config.toml or ./todo.toml)")
	pf.StringVar(&a.opt.BaseURL, "base-url", "", "backend origin, e.g. http://localhost:8080")
	pf.StringVar(&a.opt.LogLevel, "log-level", "", "debug, info, warn or error")
	pf.StringVar(&a.opt.Theme, "theme", "", "classic, neon or mono")
	pf.BoolVar(&a.opt.NoColor, "no-color", false, "disable colour output")

	ls := &cobra.Command{
		Use:   "ls",
		Short: "List todos",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.doList(cmd.Context())
		},
	}
	ls.Flags().BoolVar(&a.opt.Group, "group", false, "group output by pending/done")

	done := &cobra.Command{
		Use:   "done <id>",
		Short: "Toggle completion of a todo",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.doToggle(cmd.Context(), id)
		},
	}

	edit := &cobra.Command{
		Use:   "edit <id> <title...>",
		Short: "Replace the title of a todo",
		Args:  usageArgs(cobra.MinimumNArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.doEdit(cmd.Context(), id, strings.Join(args[1:], " "))
		},
	}

	rm := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a todo",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.doRemove(cmd.Context(), id)
		},
	}

	tuiCmd := &cobra.Command{
		Use:   "tui",
		Short: "Interactive list (default)",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTUI(cmd.Context())
		},
	}

	root.AddCommand(ls, done, edit, rm, tuiCmd)
	return root
}

func parseID(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, &usageError{msg: "not a number: " + s}
	}
	return n, nil
}

// setup loads configuration, applies flag overrides and builds the client.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.opt.ConfigPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("base-url") {
		cfg.BaseURL = a.opt.BaseURL
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = a.opt.LogLevel
	}
	if flags.Changed("theme") {
		cfg.Theme = a.opt.Theme
	}
	if a.opt.NoColor {
		cfg.NoColor = true
	}
	if err := cfg.Validate(); err != nil {
		return &usageError{msg: err.Error()}
	}

	a.cfg = cfg
	a.printer = ui.NewPrinter(a.stdout, a.stderr, cfg.Theme, cfg.NoColor)
	a.logger = logging.New(a.stderr, cfg.LogLevel, cfg.LogFormat)
	a.cache = jsonstore.New(cfg.CacheFile)
	a.client, err = api.New(cfg.BaseURL,
		api.WithTimeout(cfg.Timeout),
		api.WithListPath(cfg.ListPath),
		api.WithLogger(a.logger),
	)
	if err != nil {
		return err
	}
	a.logger.Debug("config loaded", "source", cfg.Source, "base_url", a.client.BaseURL())
	return nil
}

// newStore returns the shared list seeded from the snapshot cache, fetching
// from the client and writing every replacement back to the cache.
func (a *app) newStore(logger *log.Logger) *liststore.Store {
	seed, err := a.cache.Load()
	if err != nil {
		logger.Warn("snapshot unreadable", "path", a.cache.Path, "err", err)
		seed = nil
	}
	return liststore.New(seed,
		liststore.WithFetcher(a.client),
		liststore.WithPersister(a.cache.Save, func(err error) {
			logger.Warn("snapshot not written", "path", a.cache.Path, "err", err)
		}),
	)
}

func (a *app) actions(store *liststore.Store, logger *log.Logger) *itemview.Actions {
	return itemview.NewActions(a.client, store, logger)
}

// -------------- subcommand impls ----------------

func (a *app) doList(ctx context.Context) error {
	store := a.newStore(a.logger)
	if err := store.Revalidate(ctx); err != nil {
		if api.OutcomeOf(err) != api.OutcomeFailed || errors.Is(err, api.ErrInvalidRecord) {
			return err
		}
		a.printer.Warn("backend unreachable, showing last known list")
		a.logger.Debug("list fallback", "err", err)
	}
	a.printList(store.Get())
	return nil
}

func (a *app) doToggle(ctx context.Context, id int) error {
	store := a.newStore(a.logger)
	if err := store.Revalidate(ctx); err != nil {
		return err
	}
	rec, ok := store.Find(id)
	if !ok {
		return fmt.Errorf("no todo with id %d", id)
	}
	if err := a.actions(store, a.logger).ToggleCompletion(ctx, id, rec.IsCompleted); err != nil {
		return err
	}
	a.printer.OK("toggled")
	return nil
}

func (a *app) doEdit(ctx context.Context, id int, title string) error {
	store := a.newStore(a.logger)
	if err := a.actions(store, a.logger).CommitTitle(ctx, id, title); err != nil {
		return err
	}
	a.printer.OK("saved")
	return nil
}

func (a *app) doRemove(ctx context.Context, id int) error {
	store := a.newStore(a.logger)
	if err := a.actions(store, a.logger).Delete(ctx, id); err != nil {
		return err
	}
	a.printer.OK("removed")
	return nil
}

func (a *app) runTUI(ctx context.Context) error {
	logger, closeLog, err := logging.OpenFile(a.cfg.LogFile, a.cfg.LogLevel, a.cfg.LogFormat)
	if err != nil {
		return err
	}
	defer closeLog()

	store := a.newStore(logger)
	return tui.Run(ctx, a.actions(store, logger), logger)
}

// -------------- rendering helpers --------------

func (a *app) printList(records []model.Record) {
	p := a.printer
	t := p.Theme()
	d, pn := model.Stats(records)
	header := fmt.Sprintf("%s  %s %d  %s %d  %s %d",
		p.C(t.Title, "Todos"),
		p.C(t.Success, t.SymDone), d,
		p.C(t.Pending, t.SymUnchecked), pn,
		p.C(t.Accent, "Total"), len(records),
	)

	var lines []string
	lines = append(lines, header)
	lines = append(lines, p.C(t.Muted, ui.ProgressBar(d, d+pn, 28)))
	lines = append(lines, "")

	if a.opt.Group {
		lines = append(lines, a.groupLines(records)...)
	} else {
		lines = append(lines, a.flatLines(records)...)
	}
	lines = append(lines, "")
	lines = append(lines, p.C(t.Muted, "Tip: toggle with `todo done <id>`"))
	p.Panel(lines)
}

func (a *app) flatLines(records []model.Record) []string {
	p, t := a.printer, a.printer.Theme()
	if len(records) == 0 {
		return []string{p.C(t.Muted, "no items")}
	}
	out := make([]string, 0, len(records))
	for _, r := range records {
		idx := fmt.Sprintf("%4s", "#"+strconv.Itoa(r.ID))
		box, color := t.BoxUnchecked, t.Muted
		if r.IsCompleted {
			box, color = t.BoxChecked, t.Success
		}
		title := r.Title
		if len([]rune(title)) > 80 {
			title = string([]rune(title)[:77]) + "..."
		}
		out = append(out, fmt.Sprintf("%s %s %s", p.C(t.Muted, idx), p.C(color, box), title))
	}
	return out
}

func (a *app) groupLines(records []model.Record) []string {
	p, t := a.printer, a.printer.Theme()
	var pend, done []model.Record
	for _, r := range records {
		if r.IsCompleted {
			done = append(done, r)
		} else {
			pend = append(pend, r)
		}
	}
	var lines []string
	lines = append(lines, p.C(t.Accent, "Pending"))
	if len(pend) == 0 {
		lines = append(lines, p.C(t.Muted, "(none)"))
	} else {
		lines = append(lines, a.flatLines(pend)...)
	}
	lines = append(lines, "")
	lines = append(lines, p.C(t.Accent, "Done"))
	if len(done) == 0 {
		lines = append(lines, p.C(t.Muted, "(none)"))
	} else {
		lines = append(lines, a.flatLines(done)...)
	}
	return lines
}
