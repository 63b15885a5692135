package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/chuxorg/chux-travel/internal/client"
	"github.com/chuxorg/chux-travel/internal/form"
)

func newProjectsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "projects",
		Aliases: []string{"project"},
		Short:   "List, inspect and edit projects",
	}
	cmd.AddCommand(
		newProjectsListCmd(a),
		newProjectsShowCmd(a),
		newProjectsCreateCmd(a),
		newProjectsUpdateCmd(a),
		newProjectsDeleteCmd(a),
	)
	return cmd
}

func newProjectsListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			projects, err := c.ListProjects(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tName\tStatus\tStart_Date")
			for _, p := range projects {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", p.ID, p.Name, p.Status, orDash(p.StartDate))
			}
			return w.Flush()
		},
	}
}

func newProjectsShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <project-id>",
		Short: "Show a project and its places",
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
			printProject(cmd.OutOrStdout(), project)
			return nil
		},
	}
}

func newProjectsCreateCmd(a *app) *cobra.Command {
	var name, description, startDate, places string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a project, optionally importing places",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ids, err := form.ParsePlaceIDs(places)
			if err != nil {
				return err
			}
			date, err := form.ParseDate(startDate)
			if err != nil {
				return err
			}
			req := client.CreateProjectRequest{
				Name:        strings.TrimSpace(name),
				Description: form.OptionalString(strings.TrimSpace(description)),
				StartDate:   date,
				Places:      make([]client.PlaceImport, 0, len(ids)),
			}
			for _, id := range ids {
				req.Places = append(req.Places, client.PlaceImport{ExternalID: id})
			}

			c, err := a.client()
			if err != nil {
				return err
			}
			project, err := c.CreateProject(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created project #%d (%s) with %d place(s).\n", project.ID, project.Name, len(project.Places))
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "project name (required)")
	cmd.Flags().StringVar(&description, "description", "", "project description")
	cmd.Flags().StringVar(&startDate, "start-date", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&places, "places", "", "comma-separated artwork ids, e.g. 27992,129884")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newProjectsUpdateCmd(a *app) *cobra.Command {
	var name, description, startDate string
	cmd := &cobra.Command{
		Use:   "update <project-id>",
		Short: "Update a project's name, description or start date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "project")
			if err != nil {
				return err
			}

			var req client.UpdateProjectRequest
			flags := cmd.Flags()
			if flags.Changed("name") {
				req.Name = form.OptionalString(strings.TrimSpace(name))
			}
			if flags.Changed("description") {
				req.Description = &description
			}
			if flags.Changed("start-date") {
				if req.StartDate, err = form.ParseDate(startDate); err != nil {
					return err
				}
			}
			if req.Name == nil && req.Description == nil && req.StartDate == nil {
				return errors.New("nothing to update: pass --name, --description or --start-date")
			}

			c, err := a.client()
			if err != nil {
				return err
			}
			project, err := c.UpdateProject(cmd.Context(), id, req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated project #%d.\n", project.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVar(&description, "description", "", "new description")
	cmd.Flags().StringVar(&startDate, "start-date", "", "new start date (YYYY-MM-DD)")
	return cmd
}

func newProjectsDeleteCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <project-id>",
		Short: "Delete a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "project")
			if err != nil {
				return err
			}
			if !yes && !confirm(cmd.InOrStdin(), cmd.OutOrStdout(), fmt.Sprintf("Delete project #%d?", id)) {
				fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
				return nil
			}

			c, err := a.client()
			if err != nil {
				return err
			}
			if err := c.DeleteProject(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted project #%d.\n", id)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func printProject(w io.Writer, p client.Project) {
	fmt.Fprintf(w, "ID: %d\n", p.ID)
	fmt.Fprintf(w, "Name: %s\n", p.Name)
	fmt.Fprintf(w, "Status: %s\n", p.Status)
	fmt.Fprintf(w, "Start_Date: %s\n", orDash(p.StartDate))
	fmt.Fprintf(w, "Description: %s\n", orDash(p.Description))
	fmt.Fprintf(w, "Created_At: %s\n", p.CreatedAt)
	fmt.Fprintf(w, "Places: %d\n", len(p.Places))
	for _, pl := range p.Places {
		fmt.Fprintf(w, "  #%d external_id=%d visited=%t notes=%s\n", pl.ID, pl.ExternalID, pl.Visited, orDash(pl.Notes))
	}
}

// confirm asks a yes/no question on out and reads the answer from in.
// Anything but y or yes is a no.
func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N] ", question)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}
