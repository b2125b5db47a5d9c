// Package admin provisions a running server for application use: it drives
// the installed client binary to create an alias, a bucket, a service user
// and a bucket-scoped access policy, then applies a retention document
// through the storage API.
package admin

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	lc "github.com/minio/minio-go/v7/pkg/lifecycle"

	"github.com/oshokin/minio-warden/internal/config"
	"github.com/oshokin/minio-warden/internal/lifecycle"
	"github.com/oshokin/minio-warden/internal/logger"
)

// redactedValue replaces secrets in logged argument lists.
const redactedValue = "****"

// runner executes one external command and returns its combined output.
type runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// execRunner is the production runner.
func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// LifecycleSetter applies a bucket lifecycle document.
// *minio.Client satisfies it.
type LifecycleSetter interface {
	SetBucketLifecycle(ctx context.Context, bucketName string, config *lc.Configuration) error
}

// Service shells out to the installed client binary.
type Service struct {
	clientPath string
	run        runner
}

// NewService returns a service driving the client binary at the given path.
func NewService(clientPath string) *Service {
	return &Service{
		clientPath: clientPath,
		run:        execRunner,
	}
}

// Provision runs the plan's client steps in order, stopping at the first
// failure. Step output is logged with secrets masked.
func (s *Service) Provision(ctx context.Context, plan *Provision, root *config.Credentials) error {
	secrets := []string{root.RootPassword, plan.ServicePassword}

	for _, step := range plan.Steps(root) {
		logger.InfoKV(ctx, "Running client step",
			"step", step.Name,
			"command", strings.Join(redactArgs(step.Args, secrets), " "))

		output, err := s.run(ctx, s.clientPath, step.Args...)
		if len(output) > 0 {
			logger.DebugKV(ctx, "Client step output",
				"step", step.Name,
				"output", strings.TrimSpace(string(output)))
		}

		if err != nil {
			return fmt.Errorf("%s: %w: %s", step.Name, err, strings.TrimSpace(string(output)))
		}
	}

	return nil
}

// ApplyLifecycle builds the retention document and applies it to the bucket.
func ApplyLifecycle(ctx context.Context, client LifecycleSetter, bucket string, policy lifecycle.Policy) error {
	configuration, err := lifecycle.Build(policy)
	if err != nil {
		return err
	}

	if err := client.SetBucketLifecycle(ctx, bucket, configuration); err != nil {
		return fmt.Errorf("apply lifecycle to %q: %w", bucket, err)
	}

	return nil
}

// NewStorageClient builds a storage-API client for the local server.
// The endpoint is a bare host:port, the connection is plain HTTP.
func NewStorageClient(endpoint string, creds *config.Credentials) (*minio.Client, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:        credentials.NewStaticV4(creds.RootUser, creds.RootPassword, ""),
		Secure:       false,
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, fmt.Errorf("build storage client: %w", err)
	}

	return client, nil
}

// redactArgs masks exact secret matches so argument lists are safe to log.
func redactArgs(args, secrets []string) []string {
	masked := make([]string, len(args))

	for i, arg := range args {
		masked[i] = arg

		for _, secret := range secrets {
			if secret != "" && arg == secret {
				masked[i] = redactedValue
				break
			}
		}
	}

	return masked
}
