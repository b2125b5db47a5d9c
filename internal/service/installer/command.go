package installer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oshokin/minio-warden/internal/config"
	"github.com/oshokin/minio-warden/internal/domain/install"
	"github.com/oshokin/minio-warden/internal/domain/release"
	"github.com/oshokin/minio-warden/internal/logger"
	"github.com/oshokin/minio-warden/internal/remote"
	"github.com/oshokin/minio-warden/internal/repository/catalog"
	"github.com/oshokin/minio-warden/internal/repository/state"
)

// Options controls one install command invocation.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// Kind selects which artifact to install.
	Kind release.Kind
	// Architecture provides an optional platform override. Empty selects the host.
	Architecture string
	// Version is the release to install. Empty or "latest" selects the most recent.
	Version string
	// Force replaces an existing binary.
	Force bool
	// Timeout provides an optional download timeout override.
	Timeout time.Duration
	// MirrorURL provides an optional mirror override.
	MirrorURL string
	// RootDir provides an optional warden root override.
	RootDir string
}

// Report summarizes a completed install command.
type Report struct {
	// Kind is the installed artifact kind.
	Kind release.Kind
	// Architecture is the platform build that was requested.
	Architecture release.Architecture
	// Version is the resolved release version.
	Version release.Version
	// Outcome classifies how the install ended.
	Outcome Outcome
	// Path is the destination binary path.
	Path string
}

// environment bundles the collaborators resolved from the options.
type environment struct {
	cfg     *config.Config
	paths   *config.Paths
	arch    release.Architecture
	catalog *release.Catalog
	client  *remote.Client
}

// Run executes one install per the options and reports the outcome.
func Run(ctx context.Context, opts *Options) (*Report, error) {
	ctx = logger.WithName(ctx, "installer")

	env, err := prepare(ctx, opts)
	if err != nil {
		return nil, err
	}

	timeout := env.cfg.DownloadTimeout
	if opts.Timeout > 0 {
		timeout = opts.Timeout
	}

	req := &Request{
		Kind:         opts.Kind,
		Architecture: env.arch,
		Version:      release.Version(opts.Version),
		Force:        opts.Force,
		Timeout:      timeout,
		Dir:          env.paths.BinaryDir(env.arch),
	}

	outcome, err := NewInstaller(env.client, env.catalog).Install(ctx, req)
	if err != nil {
		return nil, err
	}

	if outcome == OutcomeInstalled {
		recordInstall(ctx, env, req)
	}

	return &Report{
		Kind:         opts.Kind,
		Architecture: env.arch,
		Version:      req.Version,
		Outcome:      outcome,
		Path:         req.Destination(),
	}, nil
}

// recordInstall updates the install record after a verified install.
// Bookkeeping failures do not fail the install itself, the binary on disk
// is already verified.
func recordInstall(ctx context.Context, env *environment, req *Request) {
	repo := state.NewFileRepository(env.paths.StatePath())

	st, err := repo.Load(ctx)
	if errors.Is(err, state.ErrNotFound) {
		st = install.NewState()
	} else if err != nil {
		logger.WarnKV(ctx, "Skipping install record update", "error", err)
		return
	}

	digest, _ := env.catalog.Digest(req.Version, req.Architecture)

	st.Record(install.Entry{
		Kind:         req.Kind,
		Architecture: req.Architecture,
		Version:      req.Version,
		Digest:       digest,
		Path:         req.Destination(),
		InstalledAt:  time.Now().UTC(),
	})

	if err = repo.Save(ctx, st); err != nil {
		logger.WarnKV(ctx, "Saving install record failed", "error", err)
	}
}

// Versions lists the catalog's versions, most recent first.
// The interactive selection prompt is built on top of this.
func Versions(ctx context.Context, opts *Options) ([]release.Version, error) {
	ctx = logger.WithName(ctx, "installer")

	env, err := prepare(ctx, opts)
	if err != nil {
		return nil, err
	}

	return env.catalog.Versions(), nil
}

// prepare loads the settings, resolves the architecture and reads the
// catalog snapshot the install will trust.
func prepare(ctx context.Context, opts *Options) (*environment, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	// Command line overrides take precedence over the settings file.
	mirror := cfg.MirrorURL
	if opts.MirrorURL != "" {
		mirror = opts.MirrorURL
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
	}

	repo := catalog.NewFileRepository(opts.Kind, paths.CatalogPath(opts.Kind))

	cat, err := repo.Load(ctx)
	if errors.Is(err, catalog.ErrNotFound) {
		return nil, fmt.Errorf(
			"no checksum catalog for %s, run \"minio-warden catalog %s\" first: %w",
			opts.Kind, opts.Kind, err)
	}

	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	return &environment{
		cfg:     cfg,
		paths:   paths,
		arch:    arch,
		catalog: cat,
		client:  remote.NewClient(remote.WithBaseURL(mirror)),
	}, nil
}
