package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/minio-warden/internal/service/supervisor"
)

var (
	// runListen overrides the configured server listen address.
	runListen string
	// runConsole overrides the configured console address.
	runConsole string
	// runDataDir overrides the storage directory.
	runDataDir string
	// runServerVersion selects which server version to auto-install.
	runServerVersion string
	// runMirror overrides the configured mirror for the auto-install.
	runMirror string
	// runRootDir overrides the warden root directory.
	runRootDir string
	// runEnableUI exposes the server's embedded browser UI.
	runEnableUI bool
	// runExtraArgs are passed through to the server after the managed ones.
	runExtraArgs []string

	// runCmd supervises the installed server binary.
	runCmd = &cobra.Command{
		Use:   "run",
		Short: "Run the server under supervision, installing it first if missing.",
		Long: `Launches the installed server binary as a supervised child process.
Credentials and the UI toggle travel via environment variables, never
argv. Crashes restart the server with exponential backoff until the
restart budget is exhausted.

A missing binary is installed from the catalog before the first start.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			return supervisor.Run(ctx, &supervisor.Options{
				ConfigPath:     configPath,
				ListenAddress:  runListen,
				ConsoleAddress: runConsole,
				DataDir:        runDataDir,
				Version:        runServerVersion,
				MirrorURL:      runMirror,
				RootDir:        runRootDir,
				EnableUI:       runEnableUI,
				ExtraArgs:      runExtraArgs,
			})
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	runCmd.Flags().StringVar(&runListen, "listen", "", "server listen address override")
	runCmd.Flags().StringVar(&runConsole, "console", "", "console listen address override")
	runCmd.Flags().StringVar(&runDataDir, "data-dir", "", "storage directory override")
	runCmd.Flags().StringVar(&runServerVersion, "version", "", "server version for the auto-install (default: latest)")
	runCmd.Flags().StringVar(&runMirror, "mirror", "", "mirror URL override")
	runCmd.Flags().StringVar(&runRootDir, "root-dir", "", "warden root directory override")
	runCmd.Flags().BoolVar(&runEnableUI, "enable-ui", false, "expose the embedded browser UI")
	runCmd.Flags().StringArrayVar(&runExtraArgs, "server-arg", nil, "extra argument passed to the server (repeatable)")

	rootCmd.AddCommand(runCmd)
}
