// Package cmd wires the warden's command line interface.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/oshokin/minio-warden/internal/config"
	"github.com/oshokin/minio-warden/internal/logger"
	"github.com/oshokin/minio-warden/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// logLevel overrides the configured logging level.
	logLevel string

	// rootCmd represents the base command.
	rootCmd = &cobra.Command{
		Use:   "minio-warden",
		Short: "Acquire, verify and supervise MinIO server and client binaries.",
		Long: `minio-warden keeps a local MinIO installation healthy.

It discovers published releases on the upstream mirror, verifies every
download against the mirror's checksum catalog, installs binaries
atomically and supervises the server process with restart-on-crash
semantics. The setup command provisions a running server with a bucket,
a service account and a retention policy.`,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return applyLogLevel()
		},
		SilenceUsage: true,
	}
)

// Execute runs the minio-warden CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// applyLogLevel resolves the logging verbosity before any command logic
// runs. The command line flag wins over the settings file.
func applyLogLevel() error {
	choice := logLevel
	if choice == "" {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		choice = cfg.LogLevel
	}

	level, ok := logger.ParseLevel(choice)
	if !ok {
		return fmt.Errorf("unknown log level %q", choice)
	}

	logger.SetLevel(level)

	return nil
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.PersistentFlags().
		StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.PersistentFlags().
		StringVar(&logLevel, "log-level", "", "logging verbosity override (debug, info, warn, error)")
}
