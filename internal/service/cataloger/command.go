package cataloger

import (
	"context"
	"fmt"

	"github.com/oshokin/minio-warden/internal/config"
	"github.com/oshokin/minio-warden/internal/domain/release"
	"github.com/oshokin/minio-warden/internal/logger"
	"github.com/oshokin/minio-warden/internal/remote"
	"github.com/oshokin/minio-warden/internal/repository/catalog"
)

// Options controls a catalog rebuild.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// Kind selects which artifact's catalog to rebuild.
	Kind release.Kind
	// MirrorURL provides an optional mirror override.
	MirrorURL string
	// RootDir provides an optional warden root override.
	RootDir string
}

// Run rebuilds the checksum catalog snapshot for one artifact kind.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "cataloger")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
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
		return fmt.Errorf("resolve warden root: %w", err)
	}

	var (
		client = remote.NewClient(remote.WithBaseURL(mirror))
		repo   = catalog.NewFileRepository(opts.Kind, paths.CatalogPath(opts.Kind))
	)

	logger.InfoKV(ctx, "Rebuilding catalog",
		"kind", opts.Kind.String(), "mirror", mirror)

	builder := NewBuilder(
		NewScanner(client, opts.Kind),
		NewHarvester(client, opts.Kind),
		repo,
		opts.Kind,
	)

	built, err := builder.Build(ctx)
	if err != nil {
		return err
	}

	logger.InfoKV(ctx, "Catalog rebuilt",
		"kind", opts.Kind.String(),
		"versions", built.Len(),
		"path", paths.CatalogPath(opts.Kind))

	return nil
}
