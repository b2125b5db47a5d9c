package cataloger

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/oshokin/minio-warden/internal/domain/release"
	"github.com/oshokin/minio-warden/internal/remote"
)

// Lister fetches archive directory listings from the mirror.
type Lister interface {
	ListArchive(ctx context.Context, kind release.Kind, arch release.Architecture) ([]remote.Entry, error)
}

// Scanner discovers the versions of one artifact kind that are installable
// on every architecture it is asked about.
type Scanner struct {
	remote Lister
	kind   release.Kind
}

// errNoArchitectures is returned when a scan is requested over an empty set.
var errNoArchitectures = errors.New("no architectures to scan")

// NewScanner creates a scanner for the kind backed by the provided mirror client.
func NewScanner(lister Lister, kind release.Kind) *Scanner {
	return &Scanner{
		remote: lister,
		kind:   kind,
	}
}

// Scan lists every architecture's archive concurrently and returns the
// intersection of the per-architecture version sets, most recent first.
// A version counts as available on an architecture only when its release
// file and a same-named digest file both appear in the listing. Any listing
// failure fails the whole scan; a partial result is never returned.
func (s *Scanner) Scan(
	ctx context.Context,
	architectures []release.Architecture,
) ([]release.Version, error) {
	if len(architectures) == 0 {
		return nil, errNoArchitectures
	}

	// One result slot per architecture, each written by its own goroutine.
	perArch := make([]map[release.Version]struct{}, len(architectures))

	g, groupCtx := errgroup.WithContext(ctx)

	for i, arch := range architectures {
		i, arch := i, arch

		g.Go(func() error {
			available, err := s.availableVersions(groupCtx, arch)
			if err != nil {
				return err
			}

			perArch[i] = available

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("scan %s releases: %w", s.kind, err)
	}

	// Intersect: a version must be installable everywhere to count.
	common := perArch[0]
	for _, set := range perArch[1:] {
		for version := range common {
			if _, ok := set[version]; !ok {
				delete(common, version)
			}
		}
	}

	versions := make([]release.Version, 0, len(common))
	for version := range common {
		versions = append(versions, version)
	}

	sort.Slice(versions, func(i, j int) bool {
		return versions[i] > versions[j]
	})

	return versions, nil
}

// availableVersions derives the set of installable versions from one
// architecture's archive listing.
func (s *Scanner) availableVersions(
	ctx context.Context,
	arch release.Architecture,
) (map[release.Version]struct{}, error) {
	entries, err := s.remote.ListArchive(ctx, s.kind, arch)
	if err != nil {
		return nil, err
	}

	names := make(map[string]struct{}, len(entries))

	for _, entry := range entries {
		if !entry.IsDir {
			names[entry.Name] = struct{}{}
		}
	}

	versions := make(map[release.Version]struct{})

	for name := range names {
		version, ok := release.VersionFromReleaseName(s.kind, name)
		if !ok {
			continue
		}

		if version.Year() < release.CutoffYear {
			continue
		}

		// A release without a published digest file is not installable.
		if _, ok = names[name+release.DigestSuffix]; !ok {
			continue
		}

		versions[version] = struct{}{}
	}

	return versions, nil
}
