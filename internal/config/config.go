package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the settings shared by the warden subcommands.
type Config struct {
	// MirrorURL is the root URL of the artifact host serving release
	// listings, digest files and binaries.
	MirrorURL string `yaml:"mirror_url"`
	// RootDir overrides the warden root directory holding installed
	// binaries, catalog snapshots and server data. Empty selects the
	// per-user default.
	RootDir string `yaml:"root_dir"`
	// DataDir is the storage directory handed to the supervised server.
	// Empty selects <root>/data.
	DataDir string `yaml:"data_dir"`
	// ServerAddress is the listen address of the supervised server.
	ServerAddress string `yaml:"server_addr"`
	// ConsoleAddress is the listen address of the server's web console.
	ConsoleAddress string `yaml:"console_addr"`
	// DownloadTimeout bounds a single artifact download.
	DownloadTimeout time.Duration `yaml:"download_timeout"`
	// LogLevel selects logging verbosity (debug, info, warn, error, fatal).
	LogLevel string `yaml:"log_level"`
}

const (
	// DefaultConfigFilename is the default filename for warden settings.
	DefaultConfigFilename = "minio-warden.yaml"

	// DefaultMirrorURL is the artifact host used when none is configured.
	DefaultMirrorURL = "https://dl.min.io"

	// DefaultServerAddress is the default listen address for the supervised server.
	DefaultServerAddress = ":9000"

	// DefaultConsoleAddress is the default listen address for the web console.
	DefaultConsoleAddress = ":9001"

	// DefaultDownloadTimeout is the default bound on a single artifact download.
	DefaultDownloadTimeout = 5 * time.Minute

	// DefaultLogLevel is the default logging verbosity.
	DefaultLogLevel = "info"

	// DefaultFilePermissions is the file permission for written settings.
	DefaultFilePermissions = 0o600
)

// errConfigIsNotSet is returned when a nil configuration is provided.
var errConfigIsNotSet = errors.New("configuration is not set")

// Default returns a configuration populated with the stock defaults.
func Default() *Config {
	cfg := &Config{}
	if err := Validate(cfg); err != nil {
		panic(err)
	}

	return cfg
}

// Load reads settings from the provided path and validates them.
// A missing file yields the defaults rather than an error, so the tool
// works out of the box on a fresh machine.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}

	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err = yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err = Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes settings to the provided path with restricted permissions.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate fills in defaults and checks the fields that have a syntax.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.MirrorURL == "" {
		cfg.MirrorURL = DefaultMirrorURL
	}

	if _, err := url.ParseRequestURI(cfg.MirrorURL); err != nil {
		return fmt.Errorf("invalid mirror URL: %w", err)
	}

	if cfg.ServerAddress == "" {
		cfg.ServerAddress = DefaultServerAddress
	}

	if _, err := net.ResolveTCPAddr("tcp", cfg.ServerAddress); err != nil {
		return fmt.Errorf("invalid server address: %w", err)
	}

	if cfg.ConsoleAddress == "" {
		cfg.ConsoleAddress = DefaultConsoleAddress
	}

	if _, err := net.ResolveTCPAddr("tcp", cfg.ConsoleAddress); err != nil {
		return fmt.Errorf("invalid console address: %w", err)
	}

	if cfg.DownloadTimeout <= 0 {
		cfg.DownloadTimeout = DefaultDownloadTimeout
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}

	return nil
}
