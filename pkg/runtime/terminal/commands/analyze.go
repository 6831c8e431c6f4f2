package commands

import (
	"github.com/de-tools/spend-atlas/pkg/runtime/terminal/export"
	"github.com/de-tools/spend-atlas/pkg/services/report"
	"github.com/spf13/cobra"
)

type AnalyzeCmd struct {
	format   string
	env      *Env
	reporter *export.Reporter
}

func NewAnalyzeCmd(env *Env, reporter *export.Reporter) *cobra.Command {
	ac := &AnalyzeCmd{env: env, reporter: reporter}
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Print the full spend report",
		RunE:  ac.run,
	}

	cmd.Flags().StringVar(&ac.format, "format", string(export.FormatTable), "Output format: table or plain")

	return cmd
}

func (ac *AnalyzeCmd) run(cmd *cobra.Command, _ []string) error {
	reporter, err := ac.reporter.WithFormat(export.Format(ac.format))
	if err != nil {
		return err
	}

	sess, err := ac.env.Session(cmd.Context())
	if err != nil {
		return err
	}

	return reporter.Handle(report.Build(sess.Snapshot(), sess.Budgets(), ac.env.clock().Now()))
}
