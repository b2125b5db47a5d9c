package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/minio-warden/internal/domain/release"
	"github.com/oshokin/minio-warden/internal/service/verifier"
)

var (
	// verifyArch overrides the host platform.
	verifyArch string
	// verifyRootDir overrides the warden root directory.
	verifyRootDir string

	// verifyCmd re-checks installed binaries against their install records.
	verifyCmd = &cobra.Command{
		Use:   "verify [server|client]",
		Short: "Re-check installed binaries against their install records.",
		Long: `Re-hashes each installed binary and compares it with the digest it was
verified against at install time. Without an argument both binaries are
checked.

A binary that was never installed through this tool reports as
not-recorded rather than failing the hash comparison.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			opts := &verifier.Options{
				ConfigPath:   configPath,
				Architecture: verifyArch,
				RootDir:      verifyRootDir,
			}

			if len(args) == 1 {
				kind, err := release.ParseKind(args[0])
				if err != nil {
					return err
				}

				opts.Kinds = []release.Kind{kind}
			}

			checks, err := verifier.Run(ctx, opts)
			if err != nil {
				return err
			}

			var failed int

			for _, check := range checks {
				version := string(check.Version)
				if version == "" {
					version = "-"
				}

				fmt.Printf("%-6s %-20s %-12s %s\n", check.Kind.BinaryName(), version, check.Status, check.Path)

				if !check.Status.OK() {
					failed++
				}
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d checks failed", failed, len(checks))
			}

			return nil
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	verifyCmd.Flags().StringVar(&verifyArch, "arch", "", "target architecture (defaults to the host)")
	verifyCmd.Flags().StringVar(&verifyRootDir, "root-dir", "", "warden root directory override")

	rootCmd.AddCommand(verifyCmd)
}
