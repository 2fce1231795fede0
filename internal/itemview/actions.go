package itemview

import (
	"context"
	"io"

	"github.com/charmbracelet/log"

	"github.com/idilsaglam/todo-remote/internal/api"
	"github.com/idilsaglam/todo-remote/internal/model"
	"github.com/idilsaglam/todo-remote/internal/store/liststore"
)

// Backend is the subset of the todo API an item needs.
type Backend interface {
	EditTitle(ctx context.Context, id int, title string) (model.Record, error)
	SetCompleted(ctx context.Context, id int, completed bool) (model.Record, error)
	Delete(ctx context.Context, id int) (*model.Record, error)
}

// Actions performs the three item operations. The shared store changes
// only after the backend confirms; any error leaves it untouched.
type Actions struct {
	backend Backend
	store   *liststore.Store
	logger  *log.Logger
}

// NewActions wires a backend to the shared store. logger may be nil.
func NewActions(backend Backend, store *liststore.Store, logger *log.Logger) *Actions {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Actions{backend: backend, store: store, logger: logger}
}

// Store returns the shared list the actions write to.
func (a *Actions) Store() *liststore.Store { return a.store }

// CommitTitle sends title as the new title of record id. On success the
// record whose ID matches the response replaces its old entry.
func (a *Actions) CommitTitle(ctx context.Context, id int, title string) error {
	rec, err := a.backend.EditTitle(ctx, id, title)
	if err != nil {
		a.logFailure(OpCommitTitle, id, err)
		return err
	}
	a.store.Update(func(l []model.Record) []model.Record {
		return liststore.WithRecord(l, rec)
	})
	a.logger.Debug("title committed", "id", rec.ID)
	return nil
}

// ToggleCompletion asks the backend to set the completion flag of id to
// the negation of isCompleted.
func (a *Actions) ToggleCompletion(ctx context.Context, id int, isCompleted bool) error {
	rec, err := a.backend.SetCompleted(ctx, id, !isCompleted)
	if err != nil {
		a.logFailure(OpToggle, id, err)
		return err
	}
	a.store.Update(func(l []model.Record) []model.Record {
		return liststore.WithRecord(l, rec)
	})
	a.logger.Debug("completion toggled", "id", rec.ID, "completed", rec.IsCompleted)
	return nil
}

// Delete removes id on the backend and then from the shared list.
func (a *Actions) Delete(ctx context.Context, id int) error {
	if _, err := a.backend.Delete(ctx, id); err != nil {
		a.logFailure(OpDelete, id, err)
		return err
	}
	a.store.Update(func(l []model.Record) []model.Record {
		return liststore.WithoutID(l, id)
	})
	a.logger.Debug("deleted", "id", id)
	return nil
}

func (a *Actions) logFailure(op Op, id int, err error) {
	switch api.OutcomeOf(err) {
	case api.OutcomeNotOK:
		a.logger.Warn("backend refused", "op", op, "id", id, "err", err)
	default:
		a.logger.Error("request failed", "op", op, "id", id, "err", err)
	}
}
