package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/dimreg/core/config"
	"github.com/dmitrymomot/dimreg/core/logger"
)

// Set with -ldflags "-X main.version=... -X main.buildTime=...".
var (
	version   = "dev"
	buildTime = "unknown"
)

const appName = "dimreg"

type rootFlags struct {
	logLevel  string
	logFormat string
}

func rootCmd() *cobra.Command {
	flags := &rootFlags{}
	cmd := &cobra.Command{
		Use:   appName,
		Short: "Dataset dimension-constraint registry",
		Long: `dimreg loads per-dataset dimension constraints (the codes each dimension
may take, with localized names), validates records against them and
resolves codes to display names.

Configuration is read from the environment and an optional .env file;
flags override LOG_LEVEL and LOG_FORMAT.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&flags.logFormat, "log-format", "", "log format (text, json)")

	cmd.AddCommand(
		serveCmd(flags),
		checkCmd(flags),
		validateCmd(flags),
		labelCmd(flags),
		versionCmd(),
	)
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s version %s (build: %s)\n", appName, version, buildTime)
		},
	}
}

// newLogger builds the process logger. Logs go to stderr so command output
// on stdout stays machine readable.
func (f *rootFlags) newLogger() (*slog.Logger, error) {
	var cfg logger.Config
	if err := config.Load(&cfg); err != nil {
		return nil, err
	}
	if f.logLevel != "" {
		cfg.Level = f.logLevel
	}
	if f.logFormat != "" {
		cfg.Format = f.logFormat
	}
	return logger.New(
		logger.WithConfig(cfg),
		logger.WithOutput(os.Stderr),
		logger.WithAttr(slog.String("service", appName), slog.String("version", version)),
	), nil
}
