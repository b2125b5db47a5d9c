package remote

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/oshokin/minio-warden/internal/domain/release"
)

// Entry is one item of a mirror directory listing.
type Entry struct {
	// Name is the entry's file or directory name.
	Name string `json:"Name"`
	// IsDir reports whether the entry is a subdirectory.
	IsDir bool `json:"IsDir"`
}

const (
	// defaultBaseURL is the public artifact mirror.
	defaultBaseURL = "https://dl.min.io"

	// defaultRetryMax bounds retries of a single mirror request.
	defaultRetryMax = 2

	// defaultRetryWaitMin and defaultRetryWaitMax bound the retry backoff.
	defaultRetryWaitMin = 200 * time.Millisecond
	defaultRetryWaitMax = 2 * time.Second

	// maxDigestFileSize caps a digest file read. The files are one line.
	maxDigestFileSize = 4 << 10
)

// errMalformedDigest is returned when a digest file does not hold
// "<hex> <release-name>".
var errMalformedDigest = errors.New("malformed digest file")

// Client fetches release listings, digest files and artifacts from the mirror.
type Client struct {
	baseURL string
	http    *retryablehttp.Client
}

// Option configures the Client.
type Option func(*Client)

// WithBaseURL points the client at a different mirror root.
func WithBaseURL(base string) Option {
	return func(c *Client) {
		if base != "" {
			c.baseURL = strings.TrimRight(base, "/")
		}
	}
}

// WithRetryMax overrides the per-request retry budget.
func WithRetryMax(retries int) Option {
	return func(c *Client) {
		c.http.RetryMax = retries
	}
}

// NewClient creates a mirror client with retrying transport defaults.
func NewClient(opts ...Option) *Client {
	rc := retryablehttp.NewClient()
	rc.Logger = nil
	rc.RetryMax = defaultRetryMax
	rc.RetryWaitMin = defaultRetryWaitMin
	rc.RetryWaitMax = defaultRetryWaitMax

	c := &Client{
		baseURL: defaultBaseURL,
		http:    rc,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// ListArchive fetches the directory listing of the kind's archive root for
// the architecture.
func (c *Client) ListArchive(
	ctx context.Context,
	kind release.Kind,
	arch release.Architecture,
) ([]Entry, error) {
	resp, err := c.get(ctx, c.archiveURL(kind, arch))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var entries []Entry
	if err = json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode listing for %s/%s: %w", kind, arch, err)
	}

	return entries, nil
}

// FetchDigest fetches and parses the digest file published for the release,
// returning the lowercase hex digest. The release name embedded in the file
// must match the requested one; a digest published under any other name is
// rejected.
func (c *Client) FetchDigest(
	ctx context.Context,
	kind release.Kind,
	arch release.Architecture,
	version release.Version,
) (string, error) {
	var (
		name = release.DigestName(kind, version)
		url  = c.archiveURL(kind, arch) + name
	)

	resp, err := c.get(ctx, url)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	contents, err := io.ReadAll(io.LimitReader(resp.Body, maxDigestFileSize))
	if err != nil {
		return "", fmt.Errorf("read digest file %s: %w", name, err)
	}

	return parseDigest(string(contents), release.ReleaseName(kind, version))
}

// FetchArtifact opens a streaming download of the release binary.
// It returns the body, which the caller must close, and the advertised
// content length (-1 when unknown).
func (c *Client) FetchArtifact(
	ctx context.Context,
	kind release.Kind,
	arch release.Architecture,
	version release.Version,
) (io.ReadCloser, int64, error) {
	url := c.archiveURL(kind, arch) + release.ReleaseName(kind, version)

	resp, err := c.get(ctx, url)
	if err != nil {
		return nil, 0, err
	}

	return resp.Body, resp.ContentLength, nil
}

// archiveURL returns the kind's archive root for the architecture,
// with a trailing slash.
func (c *Client) archiveURL(kind release.Kind, arch release.Architecture) string {
	return fmt.Sprintf("%s/%s/release/%s/archive/", c.baseURL, kind.MirrorSegment(), arch)
}

// get performs a GET and requires a 200 response.
func (c *Client) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", url, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()

		return nil, fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}

	return resp, nil
}

// parseDigest extracts the hex digest from a "<hex> <release-name>" line,
// asserting the embedded name matches the requested release.
func parseDigest(contents, wantName string) (string, error) {
	fields := strings.Fields(contents)
	if len(fields) < 2 {
		return "", fmt.Errorf("%w: expected \"<hex> <name>\", got %q", errMalformedDigest, contents)
	}

	digest := strings.ToLower(fields[0])
	if len(digest) != sha256.Size*2 {
		return "", fmt.Errorf("%w: digest %q has length %d, expected %d",
			errMalformedDigest, fields[0], len(digest), sha256.Size*2)
	}

	if _, err := hex.DecodeString(digest); err != nil {
		return "", fmt.Errorf("%w: %q is not hex", errMalformedDigest, fields[0])
	}

	if fields[1] != wantName {
		return "", fmt.Errorf("%w: digest is for %q, expected %q", errMalformedDigest, fields[1], wantName)
	}

	return digest, nil
}
