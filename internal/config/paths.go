package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/oshokin/minio-warden/internal/domain/release"
)

// DefaultRootDirName is the per-user root directory name.
const DefaultRootDirName = ".minio-warden"

// Paths resolves the on-disk layout under the warden root directory:
//
//	<root>/bin/<arch>/minio[.exe]
//	<root>/bin/<arch>/mc[.exe]
//	<root>/minio-checksums.json
//	<root>/mc-checksums.json
//	<root>/installed.json
//	<root>/mc-config
//	<root>/data
type Paths struct {
	root string
}

// NewPaths resolves the warden root directory.
// An empty override selects <home>/.minio-warden.
func NewPaths(override string) (*Paths, error) {
	if override != "" {
		return &Paths{root: filepath.Clean(override)}, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}

	return &Paths{root: filepath.Join(home, DefaultRootDirName)}, nil
}

// Root returns the warden root directory.
func (p *Paths) Root() string {
	return p.root
}

// BinaryDir returns the directory holding binaries installed for the architecture.
func (p *Paths) BinaryDir(arch release.Architecture) string {
	return filepath.Join(p.root, "bin", arch.String())
}

// BinaryPath returns the install destination for the kind's binary.
func (p *Paths) BinaryPath(kind release.Kind, arch release.Architecture) string {
	return filepath.Join(p.BinaryDir(arch), kind.FileName(arch))
}

// CatalogPath returns the location of the kind's checksum snapshot file.
func (p *Paths) CatalogPath(kind release.Kind) string {
	return filepath.Join(p.root, kind.BinaryName()+"-checksums.json")
}

// StatePath returns the location of the install record file.
func (p *Paths) StatePath() string {
	return filepath.Join(p.root, "installed.json")
}

// ClientConfigDir returns the configuration directory handed to the client
// binary, keeping its alias store separate from the user's own ~/.mc.
func (p *Paths) ClientConfigDir() string {
	return filepath.Join(p.root, "mc-config")
}

// DataDir returns the default storage directory for the supervised server.
func (p *Paths) DataDir() string {
	return filepath.Join(p.root, "data")
}
