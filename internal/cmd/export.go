package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/chuxorg/chux-travel/internal/client"
)

const exportFile = "TRAVEL_LOG.md"

func newExportCmd(a *app) *cobra.Command {
	var format string
	var project int64
	var dir string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a project and its places to ./" + exportFile,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(format) != "markdown" {
				return errors.New("usage: travel export --format markdown [--project id]")
			}
			projectID, err := resolveProject(project)
			if err != nil {
				return err
			}
			c, err := a.client()
			if err != nil {
				return err
			}

			var (
				p      client.Project
				places []client.Place
			)
			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error {
				var err error
				p, err = c.GetProject(ctx, projectID)
				return err
			})
			g.Go(func() error {
				var err error
				places, err = c.ListPlaces(ctx, projectID)
				return err
			})
			if err := g.Wait(); err != nil {
				return err
			}

			content := renderMarkdownLog(p, places, a.version, time.Now().UTC())
			path := filepath.Join(dir, exportFile)
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				return fmt.Errorf("write export file: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "export format (required: markdown)")
	cmd.Flags().Int64Var(&project, "project", 0, "project id (defaults to the active project)")
	cmd.Flags().StringVar(&dir, "dir", ".", "directory to write "+exportFile+" into")
	return cmd
}

// renderMarkdownLog renders a deterministic log: places are ordered by id.
func renderMarkdownLog(p client.Project, places []client.Place, cliVersion string, now time.Time) string {
	var b strings.Builder

	b.WriteString("# Travel Log\n\n")
	b.WriteString(fmt.Sprintf("Project: #%d %s\n", p.ID, p.Name))
	b.WriteString(fmt.Sprintf("Status: %s\n", p.Status))
	b.WriteString(fmt.Sprintf("Start_Date: %s\n", orDash(p.StartDate)))
	b.WriteString(fmt.Sprintf("Exported: %s\n", now.Format(time.RFC3339)))
	b.WriteString(fmt.Sprintf("Version: %s\n\n", cliVersion))
	if p.Description != nil && strings.TrimSpace(*p.Description) != "" {
		b.WriteString(strings.TrimSpace(*p.Description))
		b.WriteString("\n\n")
	}
	b.WriteString("---\n\n")

	if len(places) == 0 {
		b.WriteString("No places recorded.\n")
		return b.String()
	}

	sorted := append([]client.Place(nil), places...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	visited := 0
	for _, pl := range sorted {
		if pl.Visited {
			visited++
		}
	}
	b.WriteString(fmt.Sprintf("Visited: %d of %d place(s)\n\n", visited, len(sorted)))

	for _, pl := range sorted {
		b.WriteString(fmt.Sprintf("## Place #%d\n\n", pl.ID))
		b.WriteString(fmt.Sprintf("External_ID: %d\n", pl.ExternalID))
		b.WriteString(fmt.Sprintf("Visited: %t\n", pl.Visited))
		if pl.CreatedAt != "" {
			b.WriteString(fmt.Sprintf("Added: %s\n", pl.CreatedAt))
		}
		b.WriteString("\n")
		if pl.Notes != nil && *pl.Notes != "" {
			b.WriteString("**Notes**\n")
			b.WriteString("```text\n")
			b.WriteString(*pl.Notes)
			b.WriteString("\n```\n\n")
		}
		b.WriteString("---\n\n")
	}
	return b.String()
}
