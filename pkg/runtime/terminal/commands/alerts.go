package commands

import (
	"fmt"
	"strings"

	"github.com/de-tools/spend-atlas/pkg/models/domain"
	"github.com/spf13/cobra"
)

type AlertsCmd struct {
	severity string
	env      *Env
}

func NewAlertsCmd(env *Env) *cobra.Command {
	ac := &AlertsCmd{env: env}
	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "List budget and anomaly alerts",
		RunE:  ac.run,
	}

	cmd.Flags().StringVar(&ac.severity, "severity", "", "Only show alerts of this severity: low, med or high")

	return cmd
}

func (ac *AlertsCmd) run(cmd *cobra.Command, _ []string) error {
	severity := domain.Severity(ac.severity)
	switch severity {
	case "", domain.SeverityLow, domain.SeverityMedium, domain.SeverityHigh:
	default:
		return fmt.Errorf("unknown severity %q, expected low, med or high", ac.severity)
	}

	sess, err := ac.env.Session(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	shown := 0
	for _, a := range sess.Snapshot().Alerts {
		if severity != "" && a.Severity != severity {
			continue
		}
		fmt.Fprintf(out, "[%-4s] %-24s %-7s %s\n", strings.ToUpper(string(a.Severity)), a.ID, a.Type, a.Message)
		shown++
	}
	if shown == 0 {
		fmt.Fprintln(out, "No alerts.")
	}
	return nil
}
