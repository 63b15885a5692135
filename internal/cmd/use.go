package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newUseCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "use <project-id>",
		Short: "Set the active project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "project")
			if err != nil {
				return err
			}
			c, err := a.client()
			if err != nil {
				return err
			}
			project, err := c.GetProject(cmd.Context(), id)
			if err != nil {
				return err
			}
			if err := saveActiveProject(project.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Active project set to #%d (%s).\n", project.ID, project.Name)
			return nil
		},
	}
}

func newCurrentCmd(_ *app) *cobra.Command {
	return &cobra.Command{
		Use:   "current",
		Short: "Show the active project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := loadActiveProject()
			if err != nil {
				return err
			}
			if id == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No active project")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Active project: #%d\n", id)
			return nil
		},
	}
}
