package release

import "strings"

// Version is a 20-character date-derived release stamp such as
// "2023-09-07T02-05-02Z". The stamps sort lexically in chronological
// order, so "most recent" queries use descending lexical order.
type Version string

const (
	// VersionLength is the fixed lexical width of a release stamp.
	VersionLength = 20

	// CutoffYear is the lexical lower bound on a release's 4-character
	// year component. Older releases are not offered.
	CutoffYear = "2021"

	// DigestSuffix is the extension of the checksum file published next
	// to every release artifact.
	DigestSuffix = ".sha256sum"
)

// ReleaseName returns the artifact's file name on the mirror,
// e.g. "minio.RELEASE.2023-09-07T02-05-02Z".
func ReleaseName(kind Kind, v Version) string {
	return kind.ReleasePrefix() + string(v)
}

// DigestName returns the name of the checksum file published next to the
// release artifact, e.g. "minio.RELEASE.2023-09-07T02-05-02Z.sha256sum".
func DigestName(kind Kind, v Version) string {
	return ReleaseName(kind, v) + DigestSuffix
}

// VersionFromReleaseName extracts the version from a mirror listing entry.
// It reports false for names with a foreign prefix or a stamp of the wrong
// width; any suffixed variants (digest files, signatures) fail the width
// check and are rejected here.
func VersionFromReleaseName(kind Kind, name string) (Version, bool) {
	stamp, found := strings.CutPrefix(name, kind.ReleasePrefix())
	if !found || len(stamp) != VersionLength {
		return "", false
	}

	return Version(stamp), true
}

// Year returns the release's 4-character year component.
func (v Version) Year() string {
	if len(v) < 4 {
		return string(v)
	}

	return string(v[:4])
}

// String returns the bare stamp.
func (v Version) String() string {
	return string(v)
}
