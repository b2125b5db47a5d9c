package install

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/minio-warden/internal/domain/release"
)

func TestStateRecordAndLookup(t *testing.T) {
	t.Parallel()

	state := NewState()

	entry := Entry{
		Kind:         release.KindServer,
		Architecture: release.LinuxAMD64,
		Version:      "2024-01-16T16-07-38Z",
		Digest:       "ab12",
		Path:         "/root/bin/minio",
		InstalledAt:  time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC),
	}
	state.Record(entry)

	got, ok := state.Lookup(release.KindServer, release.LinuxAMD64)
	require.True(t, ok)
	require.Equal(t, entry, got)

	_, ok = state.Lookup(release.KindClient, release.LinuxAMD64)
	require.False(t, ok)
	require.Equal(t, 1, state.Len())

	// A new install of the same pair replaces the old record.
	entry.Version = "2024-03-30T09-41-56Z"
	state.Record(entry)

	got, _ = state.Lookup(release.KindServer, release.LinuxAMD64)
	require.Equal(t, release.Version("2024-03-30T09-41-56Z"), got.Version)
	require.Equal(t, 1, state.Len())
}

func TestStateRecordOnZeroValue(t *testing.T) {
	t.Parallel()

	var state State
	state.Record(Entry{Kind: release.KindClient, Architecture: release.DarwinARM64})

	_, ok := state.Lookup(release.KindClient, release.DarwinARM64)
	require.True(t, ok)
}

func TestStateJSONKeys(t *testing.T) {
	t.Parallel()

	state := NewState()
	state.Record(Entry{
		Kind:         release.KindClient,
		Architecture: release.WindowsAMD64,
		Version:      "2024-01-16T16-07-38Z",
	})

	data, err := json.Marshal(state)
	require.NoError(t, err)
	require.Contains(t, string(data), `"client/windows-amd64"`)
	require.Contains(t, string(data), `"kind":"client"`)

	var decoded State
	require.NoError(t, json.Unmarshal(data, &decoded))

	entry, ok := decoded.Lookup(release.KindClient, release.WindowsAMD64)
	require.True(t, ok)
	require.Equal(t, release.Version("2024-01-16T16-07-38Z"), entry.Version)
}
