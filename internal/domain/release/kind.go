package release

import (
	"encoding/json"
	"fmt"
)

// Kind identifies which of the two managed artifacts an operation targets.
// It determines the mirror path, the release-name prefix and the installed
// binary name.
type Kind int

const (
	// KindServer is the storage server binary ("minio").
	KindServer Kind = iota
	// KindClient is the command-line client binary ("mc").
	KindClient
)

// ParseKind converts a CLI argument into a Kind.
// The binary names are accepted as aliases.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "server", "minio":
		return KindServer, nil
	case "client", "mc":
		return KindClient, nil
	default:
		return 0, fmt.Errorf("unknown artifact kind %q, expected \"server\" (\"minio\") or \"client\" (\"mc\")", s)
	}
}

// String returns the CLI-facing name of the kind.
func (k Kind) String() string {
	if k == KindClient {
		return "client"
	}

	return "server"
}

// BinaryName returns the artifact's executable name without an extension.
func (k Kind) BinaryName() string {
	if k == KindClient {
		return "mc"
	}

	return "minio"
}

// FileName returns the installed file name for the architecture.
// Windows builds carry an ".exe" extension.
func (k Kind) FileName(arch Architecture) string {
	name := k.BinaryName()
	if arch.OS() == "windows" {
		name += ".exe"
	}

	return name
}

// MirrorSegment returns the path segment under the mirror root where the
// kind's releases live, e.g. "server/minio" in
// "https://dl.min.io/server/minio/release/linux-amd64/archive/".
func (k Kind) MirrorSegment() string {
	if k == KindClient {
		return "client/mc"
	}

	return "server/minio"
}

// ReleasePrefix returns the prefix of the kind's release file names,
// e.g. "minio.RELEASE." in "minio.RELEASE.2023-09-07T02-05-02Z".
func (k Kind) ReleasePrefix() string {
	return k.BinaryName() + ".RELEASE."
}

// MarshalJSON encodes the kind as its CLI name.
func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON parses the CLI name back into a Kind.
func (k *Kind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	parsed, err := ParseKind(s)
	if err != nil {
		return err
	}

	*k = parsed

	return nil
}
