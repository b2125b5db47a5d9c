package supervisor

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/oshokin/minio-warden/internal/config"
	"github.com/oshokin/minio-warden/internal/domain/release"
	"github.com/oshokin/minio-warden/internal/logger"
	"github.com/oshokin/minio-warden/internal/service/installer"
)

// Options controls the supervised server run.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// ListenAddress provides an optional server address override.
	ListenAddress string
	// ConsoleAddress provides an optional console address override.
	ConsoleAddress string
	// DataDir provides an optional storage directory override.
	DataDir string
	// Version selects the server version to install when the binary is
	// missing. Empty selects the most recent catalog version.
	Version string
	// MirrorURL provides an optional mirror override for the auto-install.
	MirrorURL string
	// RootDir provides an optional warden root override.
	RootDir string
	// EnableUI exposes the server's embedded browser UI.
	EnableUI bool
	// ExtraArgs are appended to the managed server arguments.
	ExtraArgs []string
}

// Run installs the server binary when it is missing and supervises it until
// the context is canceled or the restart budget is exhausted.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "supervisor")

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

	binary := paths.BinaryPath(release.KindServer, arch)

	if _, statErr := os.Stat(binary); errors.Is(statErr, os.ErrNotExist) {
		logger.InfoKV(ctx, "Server binary is missing, installing it", "path", binary)

		report, installErr := installer.Run(ctx, &installer.Options{
			ConfigPath: opts.ConfigPath,
			Kind:       release.KindServer,
			Version:    opts.Version,
			MirrorURL:  opts.MirrorURL,
			RootDir:    opts.RootDir,
		})
		if installErr != nil {
			return fmt.Errorf("install server binary: %w", installErr)
		}

		if !report.Outcome.Success() {
			return fmt.Errorf("install server binary: %s", report.Outcome)
		}
	} else if statErr != nil {
		return fmt.Errorf("stat server binary: %w", statErr)
	}

	creds, err := config.LoadCredentials()
	if err != nil {
		return err
	}

	listen := cfg.ServerAddress
	if opts.ListenAddress != "" {
		listen = opts.ListenAddress
	}

	console := cfg.ConsoleAddress
	if opts.ConsoleAddress != "" {
		console = opts.ConsoleAddress
	}

	dataDir := cfg.DataDir
	if opts.DataDir != "" {
		dataDir = opts.DataDir
	}

	if dataDir == "" {
		dataDir = paths.DataDir()
	}

	if err = os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	spec := Spec{
		Executable:     binary,
		DataDir:        dataDir,
		ListenAddress:  listen,
		ConsoleAddress: console,
		ExtraArgs:      opts.ExtraArgs,
		Credentials:    creds,
		EnableUI:       opts.EnableUI,
	}

	logger.InfoKV(ctx, "Supervising server",
		"binary", binary, "listen", listen, "data_dir", dataDir)

	return New(spec, DefaultPolicy()).Run(ctx)
}
