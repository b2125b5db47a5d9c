package release

import (
	"fmt"
	"runtime"
	"strings"
)

// Architecture identifies a target platform as "<os>-<cpu>",
// matching the directory names on the artifact mirror.
type Architecture string

// The closed set of platforms artifacts are published for.
const (
	DarwinAMD64  Architecture = "darwin-amd64"
	DarwinARM64  Architecture = "darwin-arm64"
	LinuxAMD64   Architecture = "linux-amd64"
	LinuxARM64   Architecture = "linux-arm64"
	WindowsAMD64 Architecture = "windows-amd64"
)

// SupportedArchitectures returns the fixed closed set of supported platforms.
// Every operation that spans "all architectures" iterates exactly this set.
func SupportedArchitectures() []Architecture {
	return []Architecture{
		DarwinAMD64,
		DarwinARM64,
		LinuxAMD64,
		LinuxARM64,
		WindowsAMD64,
	}
}

// HostArchitecture returns the member of the supported set matching the
// running process, or an error when the host platform has no published
// artifacts.
func HostArchitecture() (Architecture, error) {
	host := Architecture(runtime.GOOS + "-" + runtime.GOARCH)
	if !host.IsSupported() {
		return "", fmt.Errorf("no artifacts are published for %s/%s", runtime.GOOS, runtime.GOARCH)
	}

	return host, nil
}

// IsSupported reports whether the architecture is a member of the supported set.
func (a Architecture) IsSupported() bool {
	for _, known := range SupportedArchitectures() {
		if a == known {
			return true
		}
	}

	return false
}

// OS returns the operating-system half of the identifier ("linux-amd64" → "linux").
func (a Architecture) OS() string {
	os, _, _ := strings.Cut(string(a), "-")

	return os
}

// String returns the identifier as used in mirror URLs and install paths.
func (a Architecture) String() string {
	return string(a)
}
