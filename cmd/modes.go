package cmd

import (
	"fmt"

	"github.com/bnema/px-cli/internal/domain"
	"github.com/spf13/cobra"
)

func newModesCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "modes",
		Short: "List answer modes and the endpoints they call",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, mode := range domain.Modes {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s%s\n",
					mode,
					mode.Label(),
					app.cfg.Backend.BaseURL,
					app.cfg.Backend.Endpoints.ForMode(mode),
				)
			}
			return nil
		},
	}
}
