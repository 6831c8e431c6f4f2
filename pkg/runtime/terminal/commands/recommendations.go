package commands

import (
	"fmt"

	"github.com/de-tools/spend-atlas/pkg/money"
	"github.com/de-tools/spend-atlas/pkg/services/insights"
	"github.com/spf13/cobra"
)

type RecommendationsCmd struct {
	details bool
	env     *Env
}

func NewRecommendationsCmd(env *Env) *cobra.Command {
	rc := &RecommendationsCmd{env: env}
	cmd := &cobra.Command{
		Use:     "recommendations",
		Aliases: []string{"recs"},
		Short:   "List cost-saving recommendations, largest savings first",
		RunE:    rc.run,
	}

	cmd.Flags().BoolVar(&rc.details, "details", false, "Include implementation steps and timeline")

	return cmd
}

func (rc *RecommendationsCmd) run(cmd *cobra.Command, _ []string) error {
	sess, err := rc.env.Session(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	recs := insights.SortBySavings(sess.Snapshot().Recommendations)
	if len(recs) == 0 {
		fmt.Fprintln(out, "No recommendations.")
		return nil
	}

	for _, r := range recs {
		savings := "n/a"
		if r.PotentialSavings != nil {
			savings = money.FormatUSD(*r.PotentialSavings) + "/mo"
		}
		fmt.Fprintf(out, "%s  %s (%s)\n    %s\n    Action: %s\n", r.ID, r.Title, savings, r.Description, r.Action)

		if rc.details && r.Details != nil {
			fmt.Fprintf(out, "    Impact: %s\n", r.Details.Impact)
			for i, step := range r.Details.Steps {
				fmt.Fprintf(out, "    %d. %s\n", i+1, step)
			}
			fmt.Fprintf(out, "    Timeline: %s\n", r.Details.Timeline)
		}
	}
	fmt.Fprintf(out, "Potential monthly savings: %s\n", money.FormatUSD(insights.TotalSavings(recs)))
	return nil
}
