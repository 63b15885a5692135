package cmd

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/chuxorg/chux-travel/internal/client"
	"github.com/chuxorg/chux-travel/internal/form"
)

func newPlacesCmd(a *app) *cobra.Command {
	var project int64
	cmd := &cobra.Command{
		Use:     "places",
		Aliases: []string{"place"},
		Short:   "List and edit the places of a project",
		Long: `List and edit the places of a project.

Every subcommand works on --project, or on the active project set with
'travel use' when the flag is omitted.`,
	}
	cmd.PersistentFlags().Int64Var(&project, "project", 0, "project id (defaults to the active project)")

	cmd.AddCommand(
		newPlacesListCmd(a, &project),
		newPlacesShowCmd(a, &project),
		newPlacesAddCmd(a, &project),
		newPlacesUpdateCmd(a, &project),
	)
	return cmd
}

func newPlacesListCmd(a *app, project *int64) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List places",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			projectID, err := resolveProject(*project)
			if err != nil {
				return err
			}
			c, err := a.client()
			if err != nil {
				return err
			}
			places, err := c.ListPlaces(cmd.Context(), projectID)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tExternal_ID\tVisited\tNotes")
			for _, pl := range places {
				fmt.Fprintf(w, "%d\t%d\t%t\t%s\n", pl.ID, pl.ExternalID, pl.Visited, orDash(pl.Notes))
			}
			return w.Flush()
		},
	}
}

func newPlacesShowCmd(a *app, project *int64) *cobra.Command {
	return &cobra.Command{
		Use:   "show <place-id>",
		Short: "Show one place",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			placeID, err := parseID(args[0], "place")
			if err != nil {
				return err
			}
			projectID, err := resolveProject(*project)
			if err != nil {
				return err
			}
			c, err := a.client()
			if err != nil {
				return err
			}
			pl, err := c.GetPlace(cmd.Context(), projectID, placeID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ID: %d\n", pl.ID)
			fmt.Fprintf(out, "Project: %d\n", projectID)
			fmt.Fprintf(out, "External_ID: %d\n", pl.ExternalID)
			fmt.Fprintf(out, "Visited: %t\n", pl.Visited)
			fmt.Fprintf(out, "Created_At: %s\n", pl.CreatedAt)
			fmt.Fprintln(out, "--- Notes ---")
			fmt.Fprintln(out, orDash(pl.Notes))
			return nil
		},
	}
}

func newPlacesAddCmd(a *app, project *int64) *cobra.Command {
	var notes string
	cmd := &cobra.Command{
		Use:   "add <external-id>",
		Short: "Add an artwork to a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			externalID, err := form.ParseExternalID(args[0])
			if err != nil {
				return err
			}
			projectID, err := resolveProject(*project)
			if err != nil {
				return err
			}
			c, err := a.client()
			if err != nil {
				return err
			}
			pl, err := c.CreatePlace(cmd.Context(), projectID, client.CreatePlaceRequest{
				ExternalID: externalID,
				Notes:      form.OptionalString(notes),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added place #%d (external_id %d) to project #%d.\n", pl.ID, pl.ExternalID, projectID)
			return nil
		},
	}
	cmd.Flags().StringVar(&notes, "notes", "", "notes for the place")
	return cmd
}

func newPlacesUpdateCmd(a *app, project *int64) *cobra.Command {
	var notes, visited string
	cmd := &cobra.Command{
		Use:   "update <place-id>",
		Short: "Update notes or the visited flag of a place",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			placeID, err := parseID(args[0], "place")
			if err != nil {
				return err
			}

			var req client.UpdatePlaceRequest
			if cmd.Flags().Changed("notes") {
				req.Notes = &notes
			}
			if cmd.Flags().Changed("visited") {
				v, err := form.ParseVisited(visited)
				if err != nil {
					return err
				}
				req.Visited = &v
			}
			if req.Notes == nil && req.Visited == nil {
				return errors.New("nothing to update: pass --notes or --visited")
			}

			projectID, err := resolveProject(*project)
			if err != nil {
				return err
			}
			c, err := a.client()
			if err != nil {
				return err
			}
			pl, err := c.UpdatePlace(cmd.Context(), projectID, placeID, req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated place #%d (visited=%t).\n", pl.ID, pl.Visited)
			return nil
		},
	}
	cmd.Flags().StringVar(&notes, "notes", "", "new notes")
	cmd.Flags().StringVar(&visited, "visited", "", "true or false")
	return cmd
}
