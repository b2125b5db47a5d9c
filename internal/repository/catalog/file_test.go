package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/minio-warden/internal/domain/release"
)

func TestFileRepositoryRoundTrip(t *testing.T) {
	t.Parallel()

	var (
		ctx  = context.Background()
		path = filepath.Join(t.TempDir(), "minio-checksums.json")
		repo = NewFileRepository(release.KindServer, path)
	)

	saved := release.NewCatalog(release.KindServer, map[release.Version]map[release.Architecture]string{
		"2023-09-07T02-05-02Z": {
			release.LinuxAMD64:  "a1b2c3",
			release.DarwinARM64: "d4e5f6",
		},
		"2022-05-08T23-50-31Z": {
			release.LinuxAMD64: "001122",
		},
	})

	require.NoError(t, repo.Save(ctx, saved))

	loaded, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, saved.Snapshot(), loaded.Snapshot())
	require.Equal(t, release.KindServer, loaded.Kind())

	latest, ok := loaded.Latest()
	require.True(t, ok)
	require.Equal(t, release.Version("2023-09-07T02-05-02Z"), latest)
}

func TestFileRepositoryLoadMissing(t *testing.T) {
	t.Parallel()

	repo := NewFileRepository(release.KindClient, filepath.Join(t.TempDir(), "mc-checksums.json"))

	_, err := repo.Load(context.Background())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestFileRepositoryLoadCorrupt(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "minio-checksums.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := NewFileRepository(release.KindServer, path).Load(context.Background())
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNotFound)
}

func TestFileRepositorySaveNil(t *testing.T) {
	t.Parallel()

	repo := NewFileRepository(release.KindServer, filepath.Join(t.TempDir(), "minio-checksums.json"))
	require.Error(t, repo.Save(context.Background(), nil))
}

func TestFileRepositorySaveCreatesDirectory(t *testing.T) {
	t.Parallel()

	var (
		ctx  = context.Background()
		path = filepath.Join(t.TempDir(), "nested", "warden", "minio-checksums.json")
		repo = NewFileRepository(release.KindServer, path)
	)

	empty := release.NewCatalog(release.KindServer, nil)
	require.NoError(t, repo.Save(ctx, empty))

	loaded, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Zero(t, loaded.Len())
}

// TestFileRepositorySaveReplacesWholesale ensures a save never merges with
// the previous snapshot.
func TestFileRepositorySaveReplacesWholesale(t *testing.T) {
	t.Parallel()

	var (
		ctx  = context.Background()
		path = filepath.Join(t.TempDir(), "minio-checksums.json")
		repo = NewFileRepository(release.KindServer, path)
	)

	first := release.NewCatalog(release.KindServer, map[release.Version]map[release.Architecture]string{
		"2022-05-08T23-50-31Z": {release.LinuxAMD64: "aa"},
		"2023-09-07T02-05-02Z": {release.LinuxAMD64: "bb"},
	})
	require.NoError(t, repo.Save(ctx, first))

	second := release.NewCatalog(release.KindServer, map[release.Version]map[release.Architecture]string{
		"2024-01-01T00-00-00Z": {release.LinuxAMD64: "cc"},
	})
	require.NoError(t, repo.Save(ctx, second))

	loaded, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, loaded.Len())
	require.False(t, loaded.Has("2023-09-07T02-05-02Z", release.LinuxAMD64))
}
