package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chuxorg/chux-travel/internal/client"
	"github.com/chuxorg/chux-travel/internal/config"
	"github.com/chuxorg/chux-travel/internal/logging"
)

const cliLogLevel = "warn"

// app carries what every command resolves before it runs.
type app struct {
	version string

	baseURL  string
	logLevel string
	envFile  string

	cfg    config.Config
	logger *zap.Logger
}

// NewRootCmd builds the travel command tree.
func NewRootCmd(version string) *cobra.Command {
	a := &app{version: version}

	root := &cobra.Command{
		Use:   "travel",
		Short: "Browse and edit travel projects",
		Long: `travel talks to the travel projects backend.

It serves the web pages (travel serve) and exposes the same operations
on the command line.

Examples:
  travel serve --listen :8080
  travel projects create --name "Chicago art weekend" --places 27992,129884
  travel use 3
  travel places update 12 --visited true --notes "Seen it"
  travel export --format markdown`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	root.PersistentFlags().StringVar(&a.baseURL, "base-url", "", "backend base URL (overrides config)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file loaded before the config")

	root.AddCommand(
		newServeCmd(a),
		newProjectsCmd(a),
		newPlacesCmd(a),
		newUseCmd(a),
		newCurrentCmd(a),
		newBackendCmd(a),
		newExportCmd(a),
		newVersionCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if err := config.LoadEnvFile(a.envFile); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if v := strings.TrimSpace(a.baseURL); v != "" {
		cfg.BaseURL = v
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	a.cfg = cfg

	level := cliLogLevel
	if a.logLevel != "" {
		level = a.logLevel
	}
	logger, err := logging.New(level, cfg.LogFormat, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	a.logger = logger
	return nil
}

func (a *app) client() (*client.Client, error) {
	timeout, err := a.cfg.RequestTimeout()
	if err != nil {
		return nil, err
	}
	return client.New(a.cfg.BaseURL,
		client.WithTimeout(timeout),
		client.WithLogger(a.logger),
	), nil
}

func parseID(arg, what string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id: %q", what, arg)
	}
	return id, nil
}
