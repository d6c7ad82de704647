// Package todolist keeps a local mirror of an account's tasks in step with the remote store.
//
// The remote store is the only source of truth. Every mutation is confirmed by the store
// and followed by a full re-fetch; the mirror is replaced wholesale and never patched.
package todolist

import (
	"context"

	"github.com/clive/todo-tui/internal/model"
)

// Store is the remote task store for a single account
type Store interface {
	// Account returns the account the store is bound to
	Account() string

	// EnsureAccount creates the account, succeeding if it already exists
	EnsureAccount(ctx context.Context) error

	// ListTasks returns every task of the account
	ListTasks(ctx context.Context) ([]model.Task, error)

	// CreateTask adds a not-done task with the given label
	CreateTask(ctx context.Context, label string) error

	// DeleteTask removes a task by ID
	DeleteTask(ctx context.Context, id int) error

	// DeleteAccount removes the account and all of its tasks
	DeleteAccount(ctx context.Context) error
}
