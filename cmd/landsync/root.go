package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/stwalsh4118/landsync/internal/app"
	"github.com/stwalsh4118/landsync/internal/config"
	"github.com/stwalsh4118/landsync/internal/handlers"
	"github.com/stwalsh4118/landsync/internal/logger"
	"github.com/stwalsh4118/landsync/internal/report"
)

// cli carries state shared by every subcommand.
type cli struct {
	logLevel string
	format   string

	cfg *config.Config
	log *logger.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:     "landsync",
		Short:   "Reconcile land-survey spreadsheets into the parcel registry",
		Version: handlers.APIVersion,
		Long: `landsync imports land-survey workbooks into the landholder and parcel registry,
resolves duplicate parcels left by earlier imports and audits survey data quality.

Configuration is read from the environment and an optional .env file; see the
server documentation for the full list of variables.`,
		PersistentPreRunE: c.setup,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "log level: debug, info, warn, error (default from LOG_LEVEL)")
	root.PersistentFlags().StringVarP(&c.format, "format", "o", "yaml", "output format for reports printed to stdout: yaml, json")

	root.AddCommand(
		c.newMigrateCmd(),
		c.newImportCmd(),
		c.newDedupeCmd(),
		c.newAuditCmd(),
	)
	return root
}

// setup builds a logger before any command runs. Configuration is loaded later, only by
// commands that need the store, so store-free commands work without database settings.
func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	if _, err := report.ParseFormat(c.format); err != nil {
		return err
	}
	if c.logLevel != "" {
		if _, err := logger.ParseLevel(c.logLevel); err != nil {
			return fmt.Errorf("invalid --log-level: %w", err)
		}
	}
	level := c.logLevel
	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}
	c.log = logger.New(os.Getenv("ENV"), level)
	return nil
}

// open loads configuration and connects to the backends.
func (c *cli) open(cmd *cobra.Command) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	c.cfg = cfg

	level := c.logLevel
	if level == "" {
		level = cfg.Log.Level
	}
	c.log = logger.New(cfg.Server.Env, level)

	return app.New(cmd.Context(), cfg, c.log)
}

// emit writes v to path, or to stdout in the --format encoding when path is empty.
func (c *cli) emit(cmd *cobra.Command, path string, v any) error {
	if path != "" {
		if err := report.WriteFile(path, v); err != nil {
			return err
		}
		c.log.Info("Report written", map[string]interface{}{
			"path": path,
		})
		return nil
	}

	format, err := report.ParseFormat(c.format)
	if err != nil {
		return err
	}
	return report.Write(cmd.OutOrStdout(), format, v)
}
