package cataloger

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/minio-warden/internal/domain/release"
)

type fakeDigestFetcher struct {
	calls  atomic.Int64
	failOn func(arch release.Architecture, version release.Version) error
}

func (f *fakeDigestFetcher) FetchDigest(
	_ context.Context,
	_ release.Kind,
	arch release.Architecture,
	version release.Version,
) (string, error) {
	f.calls.Add(1)

	if f.failOn != nil {
		if err := f.failOn(arch, version); err != nil {
			return "", err
		}
	}

	return fmt.Sprintf("digest-of-%s-%s", version, arch), nil
}

func TestHarvesterCollectsFullTable(t *testing.T) {
	t.Parallel()

	var (
		fetcher       = &fakeDigestFetcher{}
		harvester     = NewHarvester(fetcher, release.KindServer)
		architectures = []release.Architecture{release.LinuxAMD64, release.DarwinARM64}
		versions      = []release.Version{"2023-01-01T00-00-00Z", "2023-06-15T12-00-00Z"}
	)

	table, err := harvester.Harvest(context.Background(), architectures, versions)
	require.NoError(t, err)
	require.Equal(t, int64(4), fetcher.calls.Load(), "one fetch per (version, architecture) pair")

	require.Len(t, table, 2)

	for _, version := range versions {
		require.Len(t, table[version], 2)

		for _, arch := range architectures {
			require.Equal(t, fmt.Sprintf("digest-of-%s-%s", version, arch), table[version][arch])
		}
	}
}

func TestHarvesterAbortsOnAnyFailure(t *testing.T) {
	t.Parallel()

	boom := errors.New("digest fetch failed")

	fetcher := &fakeDigestFetcher{
		failOn: func(arch release.Architecture, version release.Version) error {
			if arch == release.DarwinARM64 && version == "2023-06-15T12-00-00Z" {
				return boom
			}

			return nil
		},
	}

	harvester := NewHarvester(fetcher, release.KindServer)

	table, err := harvester.Harvest(
		context.Background(),
		[]release.Architecture{release.LinuxAMD64, release.DarwinARM64},
		[]release.Version{"2023-01-01T00-00-00Z", "2023-06-15T12-00-00Z"},
	)
	require.ErrorIs(t, err, boom)
	require.Nil(t, table, "a partial table is never returned")
}

func TestHarvesterEmptyVersionSet(t *testing.T) {
	t.Parallel()

	fetcher := &fakeDigestFetcher{}
	harvester := NewHarvester(fetcher, release.KindClient)

	table, err := harvester.Harvest(
		context.Background(),
		[]release.Architecture{release.LinuxAMD64},
		nil,
	)
	require.NoError(t, err)
	require.Empty(t, table)
	require.Zero(t, fetcher.calls.Load())
}
