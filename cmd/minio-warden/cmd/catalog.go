package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/minio-warden/internal/domain/release"
	"github.com/oshokin/minio-warden/internal/service/cataloger"
)

var (
	// catalogMirror overrides the configured mirror.
	catalogMirror string
	// catalogRootDir overrides the warden root directory.
	catalogRootDir string

	// catalogCmd rebuilds the checksum catalog for one artifact kind.
	catalogCmd = &cobra.Command{
		Use:   "catalog {server|client}",
		Short: "Rebuild the checksum catalog from the mirror's listings.",
		Long: `Scans the mirror's per-architecture release listings, keeps the
versions published for every supported architecture, fetches their
checksum digests and replaces the local catalog snapshot wholesale.

Installs only trust versions recorded in this catalog.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			kind, err := release.ParseKind(args[0])
			if err != nil {
				return err
			}

			return cataloger.Run(ctx, &cataloger.Options{
				ConfigPath: configPath,
				Kind:       kind,
				MirrorURL:  catalogMirror,
				RootDir:    catalogRootDir,
			})
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	catalogCmd.Flags().StringVar(&catalogMirror, "mirror", "", "mirror URL override")
	catalogCmd.Flags().StringVar(&catalogRootDir, "root-dir", "", "warden root directory override")

	rootCmd.AddCommand(catalogCmd)
}
