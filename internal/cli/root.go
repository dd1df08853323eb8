// Package cli implements the csvseed command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/csvseed/internal/config"
	"github.com/JonMunkholm/csvseed/internal/logging"
)

var version = "dev"

// errSeedFailed marks a run where at least one seed did not complete cleanly.
var errSeedFailed = errors.New("one or more seeds failed")

// app is the state shared by all subcommands after PersistentPreRunE.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	open   openFunc
}

// Execute runs the CLI and returns the process exit code.
func Execute(ctx context.Context) int {
	rootCmd := newRootCmd(os.Stderr)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd(logOut io.Writer) *cobra.Command {
	var (
		envFile   string
		logLevel  string
		logFormat string
	)
	a := &app{open: openConn}

	rootCmd := &cobra.Command{
		Use:           "csvseed",
		Short:         "Seed database tables from CSV files",
		Long:          "csvseed streams CSV files into database tables in batches, mapping header columns to table columns and hashing sensitive fields.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Overload overwrites existing env vars
			envLoaded := godotenv.Overload(envFile) == nil

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("log-level") {
				cfg.Logging.Level = logLevel
			}
			if cmd.Flags().Changed("log-format") {
				cfg.Logging.Format = logFormat
			}

			a.cfg = cfg
			a.logger = logging.Setup(logOut, cfg.Logging.Level, cfg.Logging.Format)

			a.logger.Debug("configuration loaded", "env_file", envFile, "env_file_loaded", envLoaded, "config", cfg.String())
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")

	rootCmd.AddCommand(newRunCmd(a))
	rootCmd.AddCommand(newListCmd(a))
	rootCmd.AddCommand(newImportCmd(a))

	return rootCmd
}
