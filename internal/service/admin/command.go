package admin

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"

	"github.com/oshokin/minio-warden/internal/config"
	"github.com/oshokin/minio-warden/internal/domain/release"
	"github.com/oshokin/minio-warden/internal/lifecycle"
	"github.com/oshokin/minio-warden/internal/logger"
)

// Defaults for the provisioning plan.
const (
	// DefaultAlias is the client alias created for the local server.
	DefaultAlias = "warden"
	// DefaultBucket is the bucket created when none is requested.
	DefaultBucket = "warden"
)

var errServicePasswordRequired = errors.New("service user requires a password")

// Options controls one setup command invocation.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// Alias names the server connection inside the client's alias store.
	Alias string
	// Bucket is created if it does not exist yet.
	Bucket string
	// ServiceUser is the application account to create.
	// Empty skips the account and policy steps.
	ServiceUser string
	// ServicePassword is the secret for ServiceUser.
	ServicePassword string
	// PolicyName names the access policy scoped to Bucket.
	// Empty derives "<bucket>-readwrite".
	PolicyName string
	// Retention overrides the default lifecycle day counts.
	// A zero value selects the defaults.
	Retention lifecycle.Policy
	// SkipLifecycle leaves the bucket without a retention document.
	SkipLifecycle bool
	// RootDir provides an optional warden root override.
	RootDir string
}

// Run provisions the local server per the options.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "admin")

	if opts.ServiceUser != "" && opts.ServicePassword == "" {
		return errServicePasswordRequired
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	rootDir := cfg.RootDir
	if opts.RootDir != "" {
		rootDir = opts.RootDir
	}

	paths, err := config.NewPaths(rootDir)
	if err != nil {
		return fmt.Errorf("resolve warden root: %w", err)
	}

	arch, err := release.HostArchitecture()
	if err != nil {
		return err
	}

	clientPath := paths.BinaryPath(release.KindClient, arch)
	if _, err = os.Stat(clientPath); err != nil {
		return fmt.Errorf("client binary is not installed, run \"minio-warden install mc\" first: %w", err)
	}

	rootCreds, err := config.LoadCredentials()
	if err != nil {
		return fmt.Errorf("load credentials: %w", err)
	}

	endpoint, err := endpointHost(cfg.ServerAddress)
	if err != nil {
		return err
	}

	plan, err := buildPlan(opts, paths, endpoint)
	if err != nil {
		return err
	}

	if err = NewService(clientPath).Provision(ctx, plan, rootCreds); err != nil {
		return fmt.Errorf("provision server: %w", err)
	}

	if opts.SkipLifecycle {
		logger.InfoKV(ctx, "Setup complete, retention skipped", "bucket", plan.Bucket)
		return nil
	}

	policy := opts.Retention
	if policy == (lifecycle.Policy{}) {
		policy = lifecycle.DefaultPolicy()
	}

	client, err := NewStorageClient(endpoint, rootCreds)
	if err != nil {
		return err
	}

	if err = ApplyLifecycle(ctx, client, plan.Bucket, policy); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Setup complete", "alias", plan.Alias, "bucket", plan.Bucket)

	return nil
}

// buildPlan fills defaults and writes the policy document to disk.
func buildPlan(opts *Options, paths *config.Paths, endpoint string) (*Provision, error) {
	plan := &Provision{
		Alias:           opts.Alias,
		EndpointURL:     "http://" + endpoint,
		Bucket:          opts.Bucket,
		ServiceUser:     opts.ServiceUser,
		ServicePassword: opts.ServicePassword,
		PolicyName:      opts.PolicyName,
		ConfigDir:       paths.ClientConfigDir(),
	}

	if plan.Alias == "" {
		plan.Alias = DefaultAlias
	}

	if plan.Bucket == "" {
		plan.Bucket = DefaultBucket
	}

	if plan.ServiceUser == "" {
		return plan, nil
	}

	if plan.PolicyName == "" {
		plan.PolicyName = plan.Bucket + "-readwrite"
	}

	document, err := PolicyDocument(plan.Bucket)
	if err != nil {
		return nil, err
	}

	if err = os.MkdirAll(paths.Root(), 0o755); err != nil {
		return nil, fmt.Errorf("create warden root: %w", err)
	}

	plan.PolicyPath = filepath.Join(paths.Root(), plan.PolicyName+".json")
	if err = os.WriteFile(plan.PolicyPath, document, 0o600); err != nil {
		return nil, fmt.Errorf("write policy document: %w", err)
	}

	return plan, nil
}

// endpointHost turns the server's listen address into a dialable host:port.
// A wildcard or empty host becomes the loopback address.
func endpointHost(listen string) (string, error) {
	host, port, err := net.SplitHostPort(listen)
	if err != nil {
		return "", fmt.Errorf("parse server address: %w", err)
	}

	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}

	return net.JoinHostPort(host, port), nil
}
