package installer

import (
	"context"
	"crypto"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	goupdate "github.com/doitdistributed/go-update"
	"github.com/dustin/go-humanize"

	"github.com/oshokin/minio-warden/internal/domain/release"
	"github.com/oshokin/minio-warden/internal/logger"
)

// ArtifactSource streams release binaries from the mirror.
type ArtifactSource interface {
	FetchArtifact(
		ctx context.Context,
		kind release.Kind,
		arch release.Architecture,
		version release.Version,
	) (io.ReadCloser, int64, error)
}

// Request describes one install.
type Request struct {
	// Kind selects which artifact to install.
	Kind release.Kind
	// Architecture selects the platform build. It must be a member of the
	// supported set.
	Architecture release.Architecture
	// Version is the release to install. Empty or "latest" resolves to the
	// most recent catalog version; Install records the resolved version here.
	Version release.Version
	// Force replaces an existing binary instead of keeping it.
	Force bool
	// Timeout bounds the download. Zero selects DefaultTimeout.
	Timeout time.Duration
	// Dir is the destination directory for the binary.
	Dir string
}

const (
	// DefaultTimeout bounds a download when the request does not.
	DefaultTimeout = 5 * time.Minute

	// LatestVersion names the most recent catalog version explicitly.
	LatestVersion = "latest"

	// executableMode is the file mode of an installed binary.
	executableMode os.FileMode = 0o755
)

var (
	// ErrUnsupportedArchitecture reports an architecture outside the fixed set.
	ErrUnsupportedArchitecture = errors.New("unsupported architecture")
	// ErrUnknownVersion reports a version the catalog has no digest for.
	ErrUnknownVersion = errors.New("version not in catalog")
	// ErrEmptyCatalog reports a catalog with no versions to resolve "latest" against.
	ErrEmptyCatalog = errors.New("catalog is empty")
)

// Installer downloads, verifies and installs release binaries. The catalog
// injected at construction is the single source of digest truth.
type Installer struct {
	source  ArtifactSource
	catalog *release.Catalog
}

// NewInstaller creates an installer over the provided artifact source and catalog.
func NewInstaller(source ArtifactSource, catalog *release.Catalog) *Installer {
	return &Installer{
		source:  source,
		catalog: catalog,
	}
}

// Destination returns the install path of the request's binary.
func (r *Request) Destination() string {
	return filepath.Join(r.Dir, r.Kind.FileName(r.Architecture))
}

// Install resolves, validates and executes one request, returning exactly one
// outcome. Validation failures and local filesystem problems return an error
// with OutcomeUnknown; download and verification failures are reported as
// outcomes. On every path except OutcomeInstalled the destination is left
// absent, or untouched when it already existed and force was not set.
func (i *Installer) Install(ctx context.Context, req *Request) (Outcome, error) {
	if !req.Architecture.IsSupported() {
		return OutcomeUnknown, fmt.Errorf("%w: %q", ErrUnsupportedArchitecture, req.Architecture)
	}

	digest, err := i.resolve(req)
	if err != nil {
		return OutcomeUnknown, err
	}

	destination := req.Destination()

	// An existing binary short-circuits the install before any network call.
	if _, statErr := os.Stat(destination); statErr == nil {
		if !req.Force {
			logger.InfoKV(ctx, "Binary already installed", "path", destination)

			return OutcomeAlreadyExists, nil
		}

		if err = os.Remove(destination); err != nil {
			return OutcomeUnknown, fmt.Errorf("remove existing binary: %w", err)
		}
	} else if !errors.Is(statErr, os.ErrNotExist) {
		return OutcomeUnknown, fmt.Errorf("stat destination: %w", statErr)
	}

	if err = os.MkdirAll(req.Dir, 0o755); err != nil {
		return OutcomeUnknown, fmt.Errorf("create destination directory: %w", err)
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	downloadCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	logger.InfoKV(ctx, "Downloading artifact",
		"kind", req.Kind.String(),
		"version", req.Version.String(),
		"architecture", req.Architecture.String())

	tempPath, sum, err := i.download(downloadCtx, req)
	if tempPath != "" {
		defer func() {
			_ = os.Remove(tempPath)
		}()
	}

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			logger.WarnKV(ctx, "Download timed out", "timeout", timeout.String())

			return OutcomeTimedOut, nil
		}

		logger.WarnKV(ctx, "Download failed", "error", err.Error())

		return OutcomeTransportError, nil
	}

	computed := hex.EncodeToString(sum)
	if !strings.EqualFold(computed, digest) {
		logger.WarnKV(ctx, "Checksum mismatch, discarding download",
			"computed", computed, "expected", digest)

		return OutcomeChecksumMismatch, nil
	}

	if err = i.place(tempPath, destination, sum); err != nil {
		_ = os.Remove(destination)

		return OutcomeUnknown, err
	}

	logger.InfoKV(ctx, "Installed binary",
		"path", destination, "version", req.Version.String())

	return OutcomeInstalled, nil
}

// resolve fills in the most recent version when none is requested and looks
// up the catalog digest the download must match.
func (i *Installer) resolve(req *Request) (string, error) {
	if req.Version == "" || string(req.Version) == LatestVersion {
		latest, ok := i.catalog.Latest()
		if !ok {
			return "", ErrEmptyCatalog
		}

		req.Version = latest
	}

	digest, ok := i.catalog.Digest(req.Version, req.Architecture)
	if !ok {
		return "", fmt.Errorf("%w: %s for %s", ErrUnknownVersion, req.Version, req.Architecture)
	}

	return digest, nil
}

// download streams the artifact into a temp file in the destination
// directory, hashing as it goes. It returns the temp path even on failure
// so the caller can discard partial downloads.
func (i *Installer) download(ctx context.Context, req *Request) (string, []byte, error) {
	tmp, err := os.CreateTemp(req.Dir, req.Kind.BinaryName()+"-*.partial")
	if err != nil {
		return "", nil, fmt.Errorf("create temp file: %w", err)
	}

	tempPath := tmp.Name()

	body, expectedSize, err := i.source.FetchArtifact(ctx, req.Kind, req.Architecture, req.Version)
	if err != nil {
		_ = tmp.Close()

		return tempPath, nil, err
	}

	defer func() {
		_ = body.Close()
	}()

	hash := sha256.New()

	written, err := io.Copy(tmp, io.TeeReader(body, hash))
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		return tempPath, nil, fmt.Errorf("stream artifact: %w", err)
	}

	if expectedSize >= 0 && written != expectedSize {
		return tempPath, nil, fmt.Errorf("truncated artifact: got %d bytes, expected %d",
			written, expectedSize)
	}

	logger.InfoKV(ctx, "Downloaded artifact", "size", humanize.Bytes(uint64(written)))

	return tempPath, hash.Sum(nil), nil
}

// place applies the verified payload to the destination. The executable bit
// appears only on the fully verified binary.
func (i *Installer) place(tempPath, destination string, checksum []byte) error {
	payload, err := os.Open(tempPath)
	if err != nil {
		return fmt.Errorf("open verified payload: %w", err)
	}

	defer func() {
		_ = payload.Close()
	}()

	// go-update renames an existing target out of the way, so one must exist.
	if _, statErr := os.Stat(destination); errors.Is(statErr, os.ErrNotExist) {
		placeholder, createErr := os.Create(destination)
		if createErr != nil {
			return fmt.Errorf("create destination: %w", createErr)
		}

		_ = placeholder.Close()
	}

	options := goupdate.Options{
		TargetPath: destination,
		TargetMode: executableMode,
		Checksum:   checksum,
		Hash:       crypto.SHA256,
	}

	if err = goupdate.Apply(payload, options); err != nil {
		return fmt.Errorf("apply verified binary: %w", err)
	}

	oldFileName := destination + ".old"
	if _, statErr := os.Stat(oldFileName); statErr == nil {
		_ = os.Remove(oldFileName)
	}

	return nil
}
