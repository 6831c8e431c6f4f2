package commands

import (
	"fmt"
	"strings"

	"github.com/de-tools/spend-atlas/pkg/services/source"
	"github.com/spf13/cobra"
)

func NewSourcesCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List the supported event source kinds",
		RunE: func(cmd *cobra.Command, _ []string) error {
			registry := env.Registry
			if registry == nil {
				registry = source.DefaultRegistry(source.SeedOptions{})
			}

			kinds := registry.Kinds()
			if len(kinds) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No event sources registered")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Supported event sources:\n%s\n", strings.Join(kinds, "\n"))
			return nil
		},
	}
}
