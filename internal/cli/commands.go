package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/clive/todo-tui/internal/config"
	"github.com/clive/todo-tui/internal/failure"
	"github.com/clive/todo-tui/internal/model"
	"github.com/clive/todo-tui/internal/todolist"
)

// addSubcommands adds all CLI subcommands to the root command
func (r *RootCommand) addSubcommands() {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Print the account's tasks",
		Long:  "Create the account if needed, then print its tasks in store order.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withController(func(ctrl *todolist.Controller) error {
				return r.list(cmd.Context(), ctrl)
			})
		},
	}

	addCmd := &cobra.Command{
		Use:   "add [task text]",
		Short: "Add a task",
		Long: `Add a task and print the refreshed list. All arguments are joined with spaces.

Example:
  todo-tui add buy milk`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withController(func(ctrl *todolist.Controller) error {
				return r.add(cmd.Context(), ctrl, strings.Join(args, " "))
			})
		},
	}

	rmCmd := &cobra.Command{
		Use:     "rm [task id]",
		Aliases: []string{"delete"},
		Short:   "Delete a task by ID",
		Long:    "Delete a task by the ID shown by 'todo-tui list' and print the refreshed list.",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withController(func(ctrl *todolist.Controller) error {
				return r.remove(cmd.Context(), ctrl, args[0])
			})
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every task of the account",
		Long: `Delete the account together with all its tasks, then recreate it empty.

This operation cannot be undone and requires --yes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			yes, _ := cmd.Flags().GetBool("yes")
			if !yes {
				return fmt.Errorf("refusing to delete all tasks of %q without --yes", r.config.Account)
			}
			return r.withController(func(ctrl *todolist.Controller) error {
				return r.clearAll(cmd.Context(), ctrl)
			})
		},
	}
	clearCmd.Flags().BoolP("yes", "y", false, "Confirm deleting every task")

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the current settings to a config file",
		Long: `Write the effective settings (after flags and environment) to ~/.todo-tui/config.json,
or to .todo-tui/config.json in the working directory with --project.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			project, _ := cmd.Flags().GetBool("project")
			return r.writeConfig(project)
		},
	}
	initCmd.Flags().Bool("project", false, "Write to the project config instead of the global one")

	r.cmd.AddCommand(
		listCmd,
		addCmd,
		rmCmd,
		clearCmd,
		initCmd,
	)
}

func (r *RootCommand) list(ctx context.Context, ctrl *todolist.Controller) error {
	out := ctrl.Bootstrap(ctx)
	if !out.OK() {
		return outcomeError(out)
	}
	printTasks(r.out, out.Tasks)
	return nil
}

func (r *RootCommand) add(ctx context.Context, ctrl *todolist.Controller, text string) error {
	if boot := ctrl.Bootstrap(ctx); !boot.OK() {
		return outcomeError(boot)
	}

	out := ctrl.AddTask(ctx, text)
	if !out.OK() {
		return outcomeError(out)
	}
	printTasks(r.out, out.Tasks)
	return nil
}

func (r *RootCommand) remove(ctx context.Context, ctrl *todolist.Controller, arg string) error {
	id, err := strconv.Atoi(arg)
	if err != nil {
		return failure.NewInvalidInput("delete task", fmt.Sprintf("%q is not a task id", arg))
	}
	if boot := ctrl.Bootstrap(ctx); !boot.OK() {
		return outcomeError(boot)
	}

	out := ctrl.DeleteTask(ctx, id)
	if !out.OK() {
		return outcomeError(out)
	}
	printTasks(r.out, out.Tasks)
	return nil
}

func (r *RootCommand) clearAll(ctx context.Context, ctrl *todolist.Controller) error {
	out := ctrl.ClearAll(ctx)
	if !out.OK() {
		return outcomeError(out)
	}
	fmt.Fprintf(r.out, "Deleted all tasks of %s\n", ctrl.Account())
	return nil
}

func (r *RootCommand) writeConfig(project bool) error {
	save := config.SaveToGlobal
	if project {
		save = config.SaveToProject
	}
	path, err := save(r.config)
	if err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	fmt.Fprintf(r.out, "Wrote %s\n", path)
	return nil
}

// outcomeError reports a failed operation, noting when the store had already
// accepted the change and only the refresh failed
func outcomeError(out todolist.Outcome) error {
	if out.Confirmed {
		return fmt.Errorf("%s succeeded but the list could not be refreshed: %w", out.Op, out.Err)
	}
	return fmt.Errorf("%s failed: %w", out.Op, out.Err)
}

// printTasks prints one line per task followed by the items-left footer
func printTasks(w io.Writer, tasks []model.Task) {
	for _, task := range tasks {
		fmt.Fprintf(w, "%6d  %s %s\n", task.ID, task.StatusIcon(), task.Label)
	}
	fmt.Fprintln(w, model.ItemsLeft(len(tasks)))
}
