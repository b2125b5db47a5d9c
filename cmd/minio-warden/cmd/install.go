package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/oshokin/minio-warden/internal/domain/release"
	"github.com/oshokin/minio-warden/internal/service/installer"
)

var (
	// installArch overrides the host platform.
	installArch string
	// installVersion selects a release; empty or "latest" takes the most recent.
	installVersion string
	// installSelect asks interactively which catalog version to install.
	installSelect bool
	// installForce replaces an existing binary.
	installForce bool
	// installTimeout bounds the artifact download.
	installTimeout time.Duration
	// installMirror overrides the configured mirror.
	installMirror string
	// installRootDir overrides the warden root directory.
	installRootDir string

	// installCmd downloads, verifies and installs one release binary.
	installCmd = &cobra.Command{
		Use:   "install {server|client}",
		Short: "Download, verify and install a release binary.",
		Long: `Downloads the requested release from the mirror, verifies it against
the local checksum catalog and installs it atomically under the warden
root. The catalog must have been built first ("minio-warden catalog").

The destination is always left in one of two states: absent, or holding
a fully verified binary.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			kind, err := release.ParseKind(args[0])
			if err != nil {
				return err
			}

			opts := &installer.Options{
				ConfigPath:   configPath,
				Kind:         kind,
				Architecture: installArch,
				Version:      installVersion,
				Force:        installForce,
				Timeout:      installTimeout,
				MirrorURL:    installMirror,
				RootDir:      installRootDir,
			}

			if installSelect {
				selected, err := promptVersion(ctx, opts)
				if err != nil {
					return err
				}

				opts.Version = selected.String()
			}

			report, err := installer.Run(ctx, opts)
			if err != nil {
				return err
			}

			printReport(report)

			if !report.Outcome.Success() {
				return fmt.Errorf("install ended with outcome %q", report.Outcome)
			}

			return nil
		},
	}
)

// printReport renders the install result for the terminal.
func printReport(report *installer.Report) {
	fmt.Printf("Outcome:      %s\n", report.Outcome)
	fmt.Printf("Kind:         %s\n", report.Kind.BinaryName())
	fmt.Printf("Architecture: %s\n", report.Architecture)
	fmt.Printf("Version:      %s\n", report.Version)
	fmt.Printf("Path:         %s\n", report.Path)
}

// promptVersion lists the catalog's versions, most recent first, and reads
// a numbered selection from stdin.
func promptVersion(ctx context.Context, opts *installer.Options) (release.Version, error) {
	versions, err := installer.Versions(ctx, opts)
	if err != nil {
		return "", err
	}

	if len(versions) == 0 {
		return "", errors.New("catalog has no versions to select from")
	}

	fmt.Printf("Available %s releases, most recent first:\n", opts.Kind.BinaryName())

	for i, v := range versions {
		fmt.Printf("  %2d) %s\n", i+1, v)
	}

	fmt.Print("Select a release number: ")

	var choice int
	if _, err := fmt.Fscanln(os.Stdin, &choice); err != nil {
		return "", fmt.Errorf("read selection: %w", err)
	}

	if choice < 1 || choice > len(versions) {
		return "", fmt.Errorf("selection %d is out of range 1..%d", choice, len(versions))
	}

	return versions[choice-1], nil
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	installCmd.Flags().StringVar(&installArch, "arch", "", "target architecture (defaults to the host)")
	installCmd.Flags().StringVar(&installVersion, "version", "", "release version to install (default: latest)")
	installCmd.Flags().BoolVar(&installSelect, "select", false, "pick the version interactively from the catalog")
	installCmd.Flags().BoolVar(&installForce, "force", false, "replace an already installed binary")
	installCmd.Flags().DurationVar(&installTimeout, "timeout", 0, "download timeout override")
	installCmd.Flags().StringVar(&installMirror, "mirror", "", "mirror URL override")
	installCmd.Flags().StringVar(&installRootDir, "root-dir", "", "warden root directory override")

	rootCmd.AddCommand(installCmd)
}
