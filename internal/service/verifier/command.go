package verifier

import (
	"context"
	"errors"
	"fmt"

	"github.com/oshokin/minio-warden/internal/config"
	"github.com/oshokin/minio-warden/internal/domain/install"
	"github.com/oshokin/minio-warden/internal/domain/release"
	"github.com/oshokin/minio-warden/internal/logger"
	"github.com/oshokin/minio-warden/internal/repository/state"
)

// Options controls one verify command invocation.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// Kinds lists the artifacts to verify. Empty verifies both.
	Kinds []release.Kind
	// Architecture provides an optional platform override. Empty selects the host.
	Architecture string
	// RootDir provides an optional warden root override.
	RootDir string
}

// Run re-hashes the installed binaries and compares them against the
// digests recorded at install time.
func Run(ctx context.Context, opts *Options) ([]Check, error) {
	ctx = logger.WithName(ctx, "verifier")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	rootDir := cfg.RootDir
	if opts.RootDir != "" {
		rootDir = opts.RootDir
	}

	paths, err := config.NewPaths(rootDir)
	if err != nil {
		return nil, fmt.Errorf("resolve warden root: %w", err)
	}

	var arch release.Architecture
	if opts.Architecture == "" {
		arch, err = release.HostArchitecture()
		if err != nil {
			return nil, err
		}
	} else {
		arch = release.Architecture(opts.Architecture)
		if !arch.IsSupported() {
			return nil, fmt.Errorf("unsupported architecture %q", opts.Architecture)
		}
	}

	kinds := opts.Kinds
	if len(kinds) == 0 {
		kinds = []release.Kind{release.KindServer, release.KindClient}
	}

	st, err := state.NewFileRepository(paths.StatePath()).Load(ctx)
	if errors.Is(err, state.ErrNotFound) {
		st = install.NewState()
	} else if err != nil {
		return nil, fmt.Errorf("load install record: %w", err)
	}

	checks := make([]Check, 0, len(kinds))

	for _, kind := range kinds {
		check, err := verifyOne(st, paths, arch, kind)
		if err != nil {
			return nil, err
		}

		if check.Status.OK() {
			logger.InfoKV(ctx, "Binary verified",
				"kind", check.Kind.BinaryName(),
				"version", check.Version,
				"path", check.Path)
		} else {
			logger.WarnKV(ctx, "Binary check failed",
				"kind", check.Kind.BinaryName(),
				"status", check.Status.String(),
				"path", check.Path)
		}

		checks = append(checks, check)
	}

	return checks, nil
}
