package cataloger

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/oshokin/minio-warden/internal/domain/release"
)

// DigestFetcher fetches published digest files from the mirror.
type DigestFetcher interface {
	FetchDigest(
		ctx context.Context,
		kind release.Kind,
		arch release.Architecture,
		version release.Version,
	) (string, error)
}

// Harvester collects the digest of every (version, architecture) pair.
type Harvester struct {
	remote DigestFetcher
	kind   release.Kind
}

// harvestConcurrency caps simultaneous digest fetches.
const harvestConcurrency = 16

// NewHarvester creates a harvester for the kind backed by the provided mirror client.
func NewHarvester(fetcher DigestFetcher, kind release.Kind) *Harvester {
	return &Harvester{
		remote: fetcher,
		kind:   kind,
	}
}

// Harvest fetches the digest file of every (version, architecture) pair and
// returns the digest table keyed version first. Any failed or mismatched
// fetch aborts the whole harvest; a partial table is never returned.
func (h *Harvester) Harvest(
	ctx context.Context,
	architectures []release.Architecture,
	versions []release.Version,
) (map[release.Version]map[release.Architecture]string, error) {
	type pair struct {
		version release.Version
		arch    release.Architecture
	}

	pairs := make([]pair, 0, len(versions)*len(architectures))

	for _, version := range versions {
		for _, arch := range architectures {
			pairs = append(pairs, pair{version: version, arch: arch})
		}
	}

	// One result slot per pair, each written by its own goroutine.
	digests := make([]string, len(pairs))

	g, groupCtx := errgroup.WithContext(ctx)
	g.SetLimit(harvestConcurrency)

	for i, p := range pairs {
		i, p := i, p

		g.Go(func() error {
			digest, err := h.remote.FetchDigest(groupCtx, h.kind, p.arch, p.version)
			if err != nil {
				return err
			}

			digests[i] = digest

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("harvest %s digests: %w", h.kind, err)
	}

	table := make(map[release.Version]map[release.Architecture]string, len(versions))

	for i, p := range pairs {
		byArch := table[p.version]
		if byArch == nil {
			byArch = make(map[release.Architecture]string, len(architectures))
			table[p.version] = byArch
		}

		byArch[p.arch] = digests[i]
	}

	return table, nil
}
