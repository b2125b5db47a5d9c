package verifier

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/minio-warden/internal/config"
	"github.com/oshokin/minio-warden/internal/domain/install"
	"github.com/oshokin/minio-warden/internal/domain/release"
	"github.com/oshokin/minio-warden/internal/repository/state"
)

const testArch = release.LinuxAMD64

// seedRoot lays out a warden root with an installed server binary and an
// install record claiming the given digest for it.
func seedRoot(t *testing.T, content, digest string) (root string, binaryPath string) {
	t.Helper()

	root = t.TempDir()

	paths, err := config.NewPaths(root)
	require.NoError(t, err)

	binaryPath = paths.BinaryPath(release.KindServer, testArch)

	if content != "" {
		require.NoError(t, os.MkdirAll(filepath.Dir(binaryPath), 0o755))
		require.NoError(t, os.WriteFile(binaryPath, []byte(content), 0o755))
	}

	st := install.NewState()
	st.Record(install.Entry{
		Kind:         release.KindServer,
		Architecture: testArch,
		Version:      "2024-01-16T16-07-38Z",
		Digest:       digest,
		Path:         binaryPath,
		InstalledAt:  time.Now().UTC(),
	})

	repo := state.NewFileRepository(paths.StatePath())
	require.NoError(t, repo.Save(context.Background(), st))

	return root, binaryPath
}

func digestOf(content string) string {
	sum := sha256.Sum256([]byte(content))

	return hex.EncodeToString(sum[:])
}

// options points the verifier at the seeded root without a settings file.
func options(root string, kinds ...release.Kind) *Options {
	return &Options{
		ConfigPath:   filepath.Join(root, "no-such-settings.yaml"),
		Kinds:        kinds,
		Architecture: testArch.String(),
		RootDir:      root,
	}
}

func TestRunVerified(t *testing.T) {
	t.Parallel()

	root, binaryPath := seedRoot(t, "server build\n", digestOf("server build\n"))

	checks, err := Run(context.Background(), options(root, release.KindServer))
	require.NoError(t, err)
	require.Len(t, checks, 1)

	check := checks[0]
	require.Equal(t, StatusVerified, check.Status)
	require.True(t, check.Status.OK())
	require.Equal(t, release.Version("2024-01-16T16-07-38Z"), check.Version)
	require.Equal(t, binaryPath, check.Path)
}

func TestRunModified(t *testing.T) {
	t.Parallel()

	// The record claims a digest the file on disk no longer matches.
	root, _ := seedRoot(t, "tampered build\n", digestOf("original build\n"))

	checks, err := Run(context.Background(), options(root, release.KindServer))
	require.NoError(t, err)
	require.Equal(t, StatusModified, checks[0].Status)
	require.False(t, checks[0].Status.OK())
}

func TestRunMissing(t *testing.T) {
	t.Parallel()

	root, _ := seedRoot(t, "", digestOf("gone build\n"))

	checks, err := Run(context.Background(), options(root, release.KindServer))
	require.NoError(t, err)
	require.Equal(t, StatusMissing, checks[0].Status)
}

func TestRunNotRecorded(t *testing.T) {
	t.Parallel()

	// A fresh root has no install record at all; both kinds are reported.
	root := t.TempDir()

	checks, err := Run(context.Background(), options(root))
	require.NoError(t, err)
	require.Len(t, checks, 2)

	for _, check := range checks {
		require.Equal(t, StatusNotRecorded, check.Status)
		require.Empty(t, check.Version)
	}
}

func TestRunRejectsUnsupportedArchitecture(t *testing.T) {
	t.Parallel()

	opts := options(t.TempDir(), release.KindServer)
	opts.Architecture = "plan9-386"

	_, err := Run(context.Background(), opts)
	require.Error(t, err)
}

func TestHashFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "payload")
	require.NoError(t, os.WriteFile(path, []byte("payload bytes"), 0o600))

	digest, err := hashFile(path)
	require.NoError(t, err)
	require.Equal(t, digestOf("payload bytes"), digest)
}

func TestStatusStrings(t *testing.T) {
	t.Parallel()

	require.Equal(t, "verified", StatusVerified.String())
	require.Equal(t, "modified", StatusModified.String())
	require.Equal(t, "missing", StatusMissing.String())
	require.Equal(t, "not-recorded", StatusNotRecorded.String())
}
