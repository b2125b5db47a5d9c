package cataloger

import (
	"context"
	"fmt"

	"github.com/oshokin/minio-warden/internal/domain/release"
	"github.com/oshokin/minio-warden/internal/logger"
	"github.com/oshokin/minio-warden/internal/repository/catalog"
)

// Builder composes the scanner and harvester for one artifact kind and
// replaces the persisted snapshot with the result.
type Builder struct {
	scanner   *Scanner
	harvester *Harvester
	repo      catalog.Repository
	kind      release.Kind
}

// NewBuilder creates a builder over the provided scanner, harvester and repository.
func NewBuilder(
	scanner *Scanner,
	harvester *Harvester,
	repo catalog.Repository,
	kind release.Kind,
) *Builder {
	return &Builder{
		scanner:   scanner,
		harvester: harvester,
		repo:      repo,
		kind:      kind,
	}
}

// Build scans the mirror, harvests all digests and overwrites the snapshot
// wholesale. The snapshot is untouched when any step fails.
func (b *Builder) Build(ctx context.Context) (*release.Catalog, error) {
	architectures := release.SupportedArchitectures()

	versions, err := b.scanner.Scan(ctx, architectures)
	if err != nil {
		return nil, err
	}

	if len(versions) == 0 {
		logger.Warn(ctx, "No version is released for every architecture, writing an empty catalog")
	}

	table, err := b.harvester.Harvest(ctx, architectures, versions)
	if err != nil {
		return nil, err
	}

	built := release.NewCatalog(b.kind, table)

	if err = b.repo.Save(ctx, built); err != nil {
		return nil, fmt.Errorf("save %s catalog: %w", b.kind, err)
	}

	return built, nil
}
