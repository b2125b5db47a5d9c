package remote

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/minio-warden/internal/domain/release"
)

func TestListArchive(t *testing.T) {
	t.Parallel()

	var requestedPath string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestedPath = r.URL.Path
		fmt.Fprint(w, `[
			{"Name": "minio.RELEASE.2023-09-07T02-05-02Z", "IsDir": false},
			{"Name": "minio.RELEASE.2023-09-07T02-05-02Z.sha256sum", "IsDir": false},
			{"Name": "old-releases", "IsDir": true}
		]`)
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL), WithRetryMax(0))

	entries, err := client.ListArchive(context.Background(), release.KindServer, release.LinuxAMD64)
	require.NoError(t, err)
	require.Equal(t, "/server/minio/release/linux-amd64/archive/", requestedPath)
	require.Equal(t, []Entry{
		{Name: "minio.RELEASE.2023-09-07T02-05-02Z", IsDir: false},
		{Name: "minio.RELEASE.2023-09-07T02-05-02Z.sha256sum", IsDir: false},
		{Name: "old-releases", IsDir: true},
	}, entries)
}

func TestListArchiveStatusError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.NotFound(w, nil)
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL), WithRetryMax(0))

	_, err := client.ListArchive(context.Background(), release.KindClient, release.DarwinARM64)
	require.Error(t, err)
	require.Contains(t, err.Error(), "404")
}

func TestFetchDigest(t *testing.T) {
	t.Parallel()

	const version release.Version = "2023-09-07T02-05-02Z"

	digest := strings.Repeat("AB", 32)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t,
			"/client/mc/release/linux-arm64/archive/mc.RELEASE.2023-09-07T02-05-02Z.sha256sum",
			r.URL.Path)
		fmt.Fprintf(w, "%s mc.RELEASE.%s\n", digest, version)
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL), WithRetryMax(0))

	got, err := client.FetchDigest(context.Background(), release.KindClient, release.LinuxARM64, version)
	require.NoError(t, err)
	require.Equal(t, strings.ToLower(digest), got, "digest is normalized to lowercase")
}

func TestFetchDigestRejectsForeignName(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, "%s minio.RELEASE.2021-01-01T00-00-00Z\n", strings.Repeat("ab", 32))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL), WithRetryMax(0))

	_, err := client.FetchDigest(
		context.Background(), release.KindServer, release.LinuxAMD64, "2023-09-07T02-05-02Z")
	require.ErrorIs(t, err, errMalformedDigest)
	require.Contains(t, err.Error(), "minio.RELEASE.2023-09-07T02-05-02Z")
}

func TestFetchDigestMalformed(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		body string
	}{
		{name: "empty", body: ""},
		{name: "missing name", body: strings.Repeat("ab", 32)},
		{name: "short digest", body: "abcdef minio.RELEASE.2023-09-07T02-05-02Z"},
		{name: "not hex", body: strings.Repeat("zz", 32) + " minio.RELEASE.2023-09-07T02-05-02Z"},
	}

	for _, tc := range testCases {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				fmt.Fprint(w, tc.body)
			}))
			defer srv.Close()

			client := NewClient(WithBaseURL(srv.URL), WithRetryMax(0))

			_, err := client.FetchDigest(
				context.Background(), release.KindServer, release.LinuxAMD64, "2023-09-07T02-05-02Z")
			require.ErrorIs(t, err, errMalformedDigest)
		})
	}
}

func TestFetchArtifact(t *testing.T) {
	t.Parallel()

	payload := []byte("definitely a server binary")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t,
			"/server/minio/release/windows-amd64/archive/minio.RELEASE.2023-09-07T02-05-02Z",
			r.URL.Path)
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL), WithRetryMax(0))

	body, size, err := client.FetchArtifact(
		context.Background(), release.KindServer, release.WindowsAMD64, "2023-09-07T02-05-02Z")
	require.NoError(t, err)

	defer body.Close()

	got, err := io.ReadAll(body)
	require.NoError(t, err)
	require.Equal(t, payload, got)
	require.Equal(t, int64(len(payload)), size)
}
