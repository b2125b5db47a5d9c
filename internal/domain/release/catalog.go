package release

import (
	"sort"
	"strings"
)

// Catalog is the frozen checksum registry for one artifact kind: every
// (version, architecture) pair it holds was confirmed to exist on the
// mirror, with its digest, when the snapshot was built. Install-time
// lookups consult only the catalog and never re-derive a checksum from
// the network.
type Catalog struct {
	kind     Kind
	digests  map[Version]map[Architecture]string
	versions []Version
}

// NewCatalog copies the provided digest table into a frozen catalog.
// Digests are normalized to lowercase hex.
func NewCatalog(kind Kind, digests map[Version]map[Architecture]string) *Catalog {
	c := &Catalog{
		kind:     kind,
		digests:  make(map[Version]map[Architecture]string, len(digests)),
		versions: make([]Version, 0, len(digests)),
	}

	for version, byArch := range digests {
		normalized := make(map[Architecture]string, len(byArch))
		for arch, digest := range byArch {
			normalized[arch] = strings.ToLower(digest)
		}

		c.digests[version] = normalized
		c.versions = append(c.versions, version)
	}

	// Most recent first.
	sort.Slice(c.versions, func(i, j int) bool {
		return c.versions[i] > c.versions[j]
	})

	return c
}

// Kind returns the artifact kind the catalog describes.
func (c *Catalog) Kind() Kind {
	return c.kind
}

// Digest returns the lowercase hex digest recorded for the pair,
// reporting false when the catalog holds no such entry.
func (c *Catalog) Digest(version Version, arch Architecture) (string, bool) {
	digest, ok := c.digests[version][arch]

	return digest, ok
}

// Has reports whether the version exists in the catalog for the architecture.
func (c *Catalog) Has(version Version, arch Architecture) bool {
	_, ok := c.digests[version][arch]

	return ok
}

// Latest returns the most recent version, reporting false for an empty catalog.
func (c *Catalog) Latest() (Version, bool) {
	if len(c.versions) == 0 {
		return "", false
	}

	return c.versions[0], true
}

// Versions returns all versions, most recent first.
func (c *Catalog) Versions() []Version {
	out := make([]Version, len(c.versions))
	copy(out, c.versions)

	return out
}

// Len returns the number of versions in the catalog.
func (c *Catalog) Len() int {
	return len(c.versions)
}

// Snapshot returns a deep copy of the digest table for persistence.
func (c *Catalog) Snapshot() map[Version]map[Architecture]string {
	out := make(map[Version]map[Architecture]string, len(c.digests))

	for version, byArch := range c.digests {
		copied := make(map[Architecture]string, len(byArch))
		for arch, digest := range byArch {
			copied[arch] = digest
		}

		out[version] = copied
	}

	return out
}
