package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/minio-warden/internal/lifecycle"
	"github.com/oshokin/minio-warden/internal/service/admin"
)

var (
	// setupAlias names the server connection in the client's alias store.
	setupAlias string
	// setupBucket is created if it does not exist yet.
	setupBucket string
	// setupServiceUser is the application account to create.
	setupServiceUser string
	// setupServicePassword is the secret for the application account.
	setupServicePassword string
	// setupPolicyName names the bucket-scoped access policy.
	setupPolicyName string
	// setupExpirationDays removes current objects after this many days.
	setupExpirationDays int
	// setupNoncurrentDays removes noncurrent versions after this many days.
	setupNoncurrentDays int
	// setupAbortDays cleans up incomplete multipart uploads.
	setupAbortDays int
	// setupSkipLifecycle leaves the bucket without a retention document.
	setupSkipLifecycle bool
	// setupRootDir overrides the warden root directory.
	setupRootDir string

	// setupCmd provisions a running server for application use.
	setupCmd = &cobra.Command{
		Use:   "setup",
		Short: "Provision the running server with a bucket, user, policy and retention.",
		Long: `Drives the installed client binary against the running server: creates
an alias, the bucket and, when a service user is requested, the account
with a bucket-scoped access policy. Afterwards a retention document is
applied to the bucket through the storage API.

Root credentials come from MINIO_ROOT_USER and MINIO_ROOT_PASSWORD.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			return admin.Run(ctx, &admin.Options{
				ConfigPath:      configPath,
				Alias:           setupAlias,
				Bucket:          setupBucket,
				ServiceUser:     setupServiceUser,
				ServicePassword: setupServicePassword,
				PolicyName:      setupPolicyName,
				Retention: lifecycle.Policy{
					ExpirationDays:        setupExpirationDays,
					NoncurrentVersionDays: setupNoncurrentDays,
					AbortMultipartDays:    setupAbortDays,
				},
				SkipLifecycle: setupSkipLifecycle,
				RootDir:       setupRootDir,
			})
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	setupCmd.Flags().StringVar(&setupAlias, "alias", "", "client alias for the server (default: warden)")
	setupCmd.Flags().StringVar(&setupBucket, "bucket", "", "bucket to create (default: warden)")
	setupCmd.Flags().StringVar(&setupServiceUser, "service-user", "", "application account to create")
	setupCmd.Flags().StringVar(&setupServicePassword, "service-password", "", "secret for the application account")
	setupCmd.Flags().StringVar(&setupPolicyName, "policy-name", "", "access policy name (default: <bucket>-readwrite)")
	setupCmd.Flags().IntVar(&setupExpirationDays, "expire-days",
		lifecycle.DefaultExpirationDays, "object expiration in days, 0 disables")
	setupCmd.Flags().IntVar(&setupNoncurrentDays, "noncurrent-days",
		lifecycle.DefaultNoncurrentVersionDays, "noncurrent version expiration in days, 0 disables")
	setupCmd.Flags().IntVar(&setupAbortDays, "abort-days",
		lifecycle.DefaultAbortMultipartDays, "incomplete multipart cleanup in days, 0 disables")
	setupCmd.Flags().BoolVar(&setupSkipLifecycle, "skip-lifecycle", false, "do not apply a retention document")
	setupCmd.Flags().StringVar(&setupRootDir, "root-dir", "", "warden root directory override")

	rootCmd.AddCommand(setupCmd)
}
