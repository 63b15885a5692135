package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the CLI version and backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "travel %s\n", a.version)
			fmt.Fprintf(cmd.OutOrStdout(), "backend: %s\n", a.cfg.BaseURL)
			return nil
		},
	}
}
