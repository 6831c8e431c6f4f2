package terminal

import (
	"context"
	"io"
	"os"

	"github.com/de-tools/spend-atlas/pkg/runtime/terminal/commands"
	"github.com/de-tools/spend-atlas/pkg/runtime/terminal/export"
	"github.com/de-tools/spend-atlas/pkg/services/session"
	"github.com/de-tools/spend-atlas/pkg/services/source"
	"github.com/spf13/cobra"
)

// CLI represents the command-line interface
type CLI struct {
	env      *commands.Env
	reporter *export.Reporter
	rootCmd  *cobra.Command
}

// Options contain configuration for the CLI
type Options struct {
	// Registry overrides the default event sources when set
	Registry source.Registry
	Output   io.Writer
	Clock    session.Clock
}

// NewCLI creates a new CLI instance
func NewCLI(opts Options) *CLI {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	cli := &CLI{
		env:      &commands.Env{Registry: opts.Registry, Clock: opts.Clock},
		reporter: export.NewReporter(opts.Output),
	}

	cli.rootCmd = cli.newRootCmd()
	cli.rootCmd.SetOut(opts.Output)
	return cli
}

func (cli *CLI) Execute() error {
	return cli.rootCmd.Execute()
}

func (cli *CLI) ExecuteContext(ctx context.Context) error {
	return cli.rootCmd.ExecuteContext(ctx)
}

func (cli *CLI) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "spend-atlas",
		Short:         "Expense analytics: spend breakdowns, forecasts, alerts and savings",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cli.env.BindFlags(cmd)

	cmd.AddCommand(commands.NewAnalyzeCmd(cli.env, cli.reporter))
	cmd.AddCommand(commands.NewAlertsCmd(cli.env))
	cmd.AddCommand(commands.NewRecommendationsCmd(cli.env))
	cmd.AddCommand(commands.NewSourcesCmd(cli.env))
	cmd.AddCommand(commands.NewLoadCmd())

	return cmd
}
