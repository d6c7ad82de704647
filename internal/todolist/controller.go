package todolist

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/clive/todo-tui/internal/failure"
	"github.com/clive/todo-tui/internal/model"
)

// Op names a user-level sync operation
type Op string

const (
	OpBootstrap Op = "bootstrap"
	OpRefresh   Op = "refresh"
	OpAdd       Op = "add"
	OpDelete    Op = "delete"
	OpClear     Op = "clear"
)

// Outcome is the typed result of a sync operation
type Outcome struct {
	Op         Op
	Confirmed  bool         // the store accepted the mutation (bootstrap: account is ready)
	Refreshed  bool         // a refresh response replaced the mirror
	Stale      bool         // a refresh response arrived after a newer refresh was issued and was dropped
	Generation uint64       // generation of the refresh this operation issued, 0 if none
	Err        error        // first failure, nil on success
	Tasks      []model.Task // mirror contents when the operation finished
	Applied    uint64       // generation Tasks was applied from; higher is newer
}

// OK reports whether every step of the operation succeeded
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Kind classifies the failure, failure.None on success
func (o Outcome) Kind() failure.Kind {
	return failure.KindOf(o.Err)
}

// Controller runs the sync flows against a Store. Its methods are safe to call from
// concurrent goroutines; overlapping refreshes are reconciled by generation.
type Controller struct {
	store  Store
	mirror Mirror
	logger *slog.Logger
}

// NewController creates a controller. A nil logger discards diagnostics.
func NewController(store Store, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Controller{
		store:  store,
		logger: logger.With("account", store.Account()),
	}
}

// Account returns the account being mirrored
func (c *Controller) Account() string {
	return c.store.Account()
}

// Tasks returns the mirrored task list
func (c *Controller) Tasks() []model.Task {
	return c.mirror.Tasks()
}

// Bootstrap ensures the account exists and then refreshes
func (c *Controller) Bootstrap(ctx context.Context) Outcome {
	if err := c.store.EnsureAccount(ctx); err != nil {
		return c.fail(OpBootstrap, err)
	}
	c.logger.Info("account ready, loading tasks")

	out := c.refresh(ctx)
	out.Op = OpBootstrap
	out.Confirmed = true
	return out
}

// Refresh re-fetches the full list. On failure the mirror is left as it was.
func (c *Controller) Refresh(ctx context.Context) Outcome {
	return c.refresh(ctx)
}

// AddTask creates a task from text and refreshes once the store confirms it.
// Blank text is rejected without contacting the store.
func (c *Controller) AddTask(ctx context.Context, text string) Outcome {
	label := strings.TrimSpace(text)
	if label == "" {
		return c.fail(OpAdd, failure.NewInvalidInput("create task", "label is empty"))
	}
	if err := c.store.CreateTask(ctx, label); err != nil {
		return c.fail(OpAdd, err)
	}
	c.logger.Debug("task created", "label", label)

	out := c.refresh(ctx)
	out.Op = OpAdd
	out.Confirmed = true
	return out
}

// DeleteTask deletes a task by ID and refreshes once the store confirms it
func (c *Controller) DeleteTask(ctx context.Context, id int) Outcome {
	if !model.ValidID(id) {
		return c.fail(OpDelete, failure.NewInvalidInput("delete task", "task id is missing or invalid"))
	}
	if err := c.store.DeleteTask(ctx, id); err != nil {
		return c.fail(OpDelete, err)
	}
	c.logger.Info("task deleted", "task_id", id)

	out := c.refresh(ctx)
	out.Op = OpDelete
	out.Confirmed = true
	return out
}

// ClearAll deletes the account with all its tasks, then recreates it empty
func (c *Controller) ClearAll(ctx context.Context) Outcome {
	if err := c.store.DeleteAccount(ctx); err != nil {
		return c.fail(OpClear, err)
	}
	c.logger.Info("account and all tasks deleted, recreating")

	out := c.Bootstrap(ctx)
	out.Op = OpClear
	out.Confirmed = true
	return out
}

func (c *Controller) refresh(ctx context.Context) Outcome {
	gen := c.mirror.Begin()
	tasks, err := c.store.ListTasks(ctx)
	if err != nil {
		out := c.fail(OpRefresh, err)
		out.Generation = gen
		return out
	}

	out := Outcome{Op: OpRefresh, Generation: gen}
	if c.mirror.Apply(gen, tasks) {
		out.Refreshed = true
	} else {
		out.Stale = true
		c.logger.Debug("discarded stale task list", "generation", gen)
	}
	out.Tasks, out.Applied = c.mirror.Snapshot()
	return out
}

func (c *Controller) fail(op Op, err error) Outcome {
	kind := failure.KindOf(err)
	if kind == failure.InvalidInput {
		c.logger.Warn("operation skipped", "op", string(op), "kind", kind.String(), "error", err)
	} else {
		c.logger.Error("operation failed", "op", string(op), "kind", kind.String(), "error", err)
	}
	out := Outcome{Op: op, Err: err}
	out.Tasks, out.Applied = c.mirror.Snapshot()
	return out
}
