// Package cli wires configuration, logging and the task store into the cobra command tree.
// Without a subcommand it runs the interactive list; the subcommands run one sync flow headless.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/clive/todo-tui/internal/config"
	"github.com/clive/todo-tui/internal/logging"
	"github.com/clive/todo-tui/internal/todoapi"
	"github.com/clive/todo-tui/internal/todolist"
	"github.com/clive/todo-tui/internal/tui"
)

// ProgramRunner runs the interactive view until the user quits
type ProgramRunner func(ctx context.Context, ctrl *todolist.Controller, debug bool) error

// RootCommand represents the base command when called without any subcommands
type RootCommand struct {
	cmd    *cobra.Command
	config *config.Config
	out    io.Writer
	run    ProgramRunner
}

// NewRootCommand creates the root cobra command with global flags. Output of the
// headless subcommands goes to out.
func NewRootCommand(cfg *config.Config, out io.Writer) *RootCommand {
	root := &RootCommand{
		config: cfg,
		out:    out,
		run:    runProgram,
	}

	root.cmd = &cobra.Command{
		Use:   "todo-tui",
		Short: "A terminal to-do list synced with a remote task store",
		Long: `todo-tui keeps a to-do list for one account in a remote REST task store.

Run without arguments for the interactive list, or use a subcommand for a single change.

EXAMPLES:
  todo-tui                                 # Interactive list
  todo-tui --account alice list            # Print alice's tasks
  todo-tui add "buy milk"                  # Add a task
  todo-tui rm 12                           # Delete task 12
  todo-tui clear --yes                     # Delete every task of the account

CONFIGURATION:
  Priority: command-line flags > environment variables > .todo-tui/config.{json,yaml,yml}
  in the working directory > ~/.todo-tui/config.{json,yaml,yml} > defaults

    TODO_API_URL                           Task store base URL
    TODO_ACCOUNT                           Account name (default: $USER)
    TODO_TIMEOUT                           Per-request timeout (default: 30s)
    TODO_LOG_FILE                          Log file (default: ~/.todo-tui/logs/todo-tui.log)
    TODO_DEBUG                             Debug logging and debug panel`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := root.getConfigFromFlags(); err != nil {
				return err
			}
			return root.config.Validate()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return root.withController(func(ctrl *todolist.Controller) error {
				return root.run(cmd.Context(), ctrl, root.config.Debug)
			})
		},
	}

	root.addGlobalFlags()
	root.addSubcommands()

	return root
}

// Execute runs the root command
func (r *RootCommand) Execute() error {
	return r.cmd.Execute()
}

// ExecuteContext runs the root command with ctx
func (r *RootCommand) ExecuteContext(ctx context.Context) error {
	return r.cmd.ExecuteContext(ctx)
}

// SetArgs overrides os.Args, for tests
func (r *RootCommand) SetArgs(args []string) {
	r.cmd.SetArgs(args)
}

// addGlobalFlags adds global configuration flags
func (r *RootCommand) addGlobalFlags() {
	flags := r.cmd.PersistentFlags()

	flags.String("api-url", "", "Task store base URL (overrides TODO_API_URL)")
	flags.String("account", "", "Account whose tasks are shown (overrides TODO_ACCOUNT)")
	flags.Duration("timeout", 0, "Per-request timeout (overrides TODO_TIMEOUT)")
	flags.String("log-file", "", "Log file path (overrides TODO_LOG_FILE)")
	flags.Bool("debug", false, "Debug logging and debug panel (overrides TODO_DEBUG)")
}

// getConfigFromFlags updates the configuration with values from command-line flags
func (r *RootCommand) getConfigFromFlags() error {
	if r.config == nil {
		return fmt.Errorf("configuration not initialized")
	}

	flags := r.cmd.PersistentFlags()

	if apiURL, _ := flags.GetString("api-url"); apiURL != "" {
		r.config.APIURL = apiURL
	}
	if account, _ := flags.GetString("account"); account != "" {
		r.config.Account = account
	}
	if timeout, _ := flags.GetDuration("timeout"); timeout > 0 {
		r.config.Timeout = config.Duration(timeout)
	}
	if logFile, _ := flags.GetString("log-file"); logFile != "" {
		r.config.LogFile = logFile
	}
	if debug, _ := flags.GetBool("debug"); debug {
		r.config.Debug = true
	}

	return nil
}

// withController opens the log file, builds the store client and controller, and
// hands the controller to fn
func (r *RootCommand) withController(fn func(*todolist.Controller) error) error {
	logger, closeLog, err := logging.New(r.config.LogFile, r.config.Debug)
	if err != nil {
		return err
	}
	defer closeLog()

	logger.Info("starting",
		"account", r.config.Account,
		"api_url", r.config.APIURL,
		"config", config.Path(),
	)

	client := todoapi.NewClient(r.config.APIURL, r.config.Account,
		todoapi.WithTimeout(r.config.Timeout.Std()),
		todoapi.WithLogger(logger),
	)
	return fn(todolist.NewController(client, logger))
}

// runProgram runs the Bubble Tea program on the alternate screen
func runProgram(ctx context.Context, ctrl *todolist.Controller, debug bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	p := tea.NewProgram(
		tui.NewRootModel(ctx, ctrl, debug),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running program: %w", err)
	}
	return nil
}

// Main loads the config and runs the command tree, returning the process exit code
func Main(ctx context.Context, args []string) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	root := NewRootCommand(cfg, os.Stdout)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
