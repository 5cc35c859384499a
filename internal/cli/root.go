// Package cli implements the assignmentboard command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"AssignmentBoard/internal/app"
	"AssignmentBoard/internal/config"
	"AssignmentBoard/internal/logging"
)

// CLI holds global flags and the application built for the running command.
type CLI struct {
	configPath string
	logLevel   string

	out io.Writer
	app *app.Application
	now func() time.Time
}

// New returns a CLI writing command output to out.
func New(out io.Writer) *CLI {
	if out == nil {
		out = os.Stdout
	}
	return &CLI{out: out, now: time.Now}
}

// Execute runs the command line with args. Backend resources are released
// even when the command fails.
func (c *CLI) Execute(ctx context.Context, args []string) error {
	root := c.RootCommand()
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if closeErr := c.teardown(root, nil); err == nil {
		err = closeErr
	}
	return err
}

// RootCommand builds the command tree.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "assignmentboard",
		Short: "Reconciled view of course assignments",
		Long: `assignmentboard reads assignments from a grading backend, merges the
records of every course into one deduplicated view and shows them grouped
by intake and ordered by due date.`,
		PersistentPreRunE:  c.setup,
		PersistentPostRunE: c.teardown,
		SilenceUsage:       true,
		SilenceErrors:      true,
	}
	root.SetOut(c.out)

	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $ASSIGNMENT_BOARD_CONFIG)")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(
		c.listCommand(),
		c.showCommand(),
		c.coursesCommand(),
		c.serveCommand(),
		c.watchCommand(),
	)
	return root
}

func (c *CLI) setup(cmd *cobra.Command, _ []string) error {
	loadEnvFiles()

	cfg := config.Load(c.configPath)
	if c.logLevel != "" {
		cfg.Logging.Level = c.logLevel
	}
	logger := logging.NewWithWriter(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)

	application, err := app.New(cfg, logger)
	if err != nil {
		return err
	}
	c.app = application
	return nil
}

func (c *CLI) teardown(*cobra.Command, []string) error {
	if c.app == nil {
		return nil
	}
	err := c.app.Close()
	c.app = nil
	return err
}

// loadEnvFiles reads .env.local then .env. Variables already set win.
func loadEnvFiles() {
	for _, f := range []string{".env.local", ".env"} {
		_ = godotenv.Load(f)
	}
}

// ContextWithSignals cancels on SIGINT or SIGTERM.
func ContextWithSignals(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

// ExitOnError prints err to stderr and exits with status 1.
func ExitOnError(err error) {
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
