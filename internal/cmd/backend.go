package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chuxorg/chux-travel/internal/config"
)

func newBackendCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "backend [url]",
		Short: "Show or set the backend base URL",
		Long: `Show the backend the CLI and the web pages talk to, or store a new
base_url in ~/.travel/config.yaml. TRAVEL_BASE_URL and --base-url still
take precedence over the stored value.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "Backend: %s\n", a.cfg.BaseURL)
				return nil
			}
			return setBackend(cmd, strings.TrimSpace(args[0]))
		},
	}
}

func setBackend(cmd *cobra.Command, baseURL string) error {
	path, err := config.ConfigPath()
	if err != nil {
		return err
	}
	stored, err := config.ReadFile(path)
	if err != nil {
		return err
	}

	stored.BaseURL = baseURL
	if err := stored.Validate(); err != nil {
		return err
	}
	if err := config.Save(stored); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Backend set to %s.\n", baseURL)
	return nil
}
