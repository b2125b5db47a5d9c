package verifier

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/oshokin/minio-warden/internal/config"
	"github.com/oshokin/minio-warden/internal/domain/install"
	"github.com/oshokin/minio-warden/internal/domain/release"
)

// Status classifies the verification result for one installed binary.
type Status int

const (
	// StatusVerified means the file's digest matches the recorded one.
	StatusVerified Status = iota
	// StatusModified means the file exists but its digest differs.
	StatusModified
	// StatusMissing means the recorded file is gone.
	StatusMissing
	// StatusNotRecorded means no install was recorded for the pair.
	StatusNotRecorded
)

// String returns the CLI-facing name of the status.
func (s Status) String() string {
	switch s {
	case StatusVerified:
		return "verified"
	case StatusModified:
		return "modified"
	case StatusMissing:
		return "missing"
	case StatusNotRecorded:
		return "not-recorded"
	default:
		return "unknown"
	}
}

// OK reports whether the check found nothing wrong.
func (s Status) OK() bool {
	return s == StatusVerified
}

// Check is the result of verifying one installed binary.
type Check struct {
	// Kind is the checked artifact kind.
	Kind release.Kind
	// Architecture is the platform build that was checked.
	Architecture release.Architecture
	// Version is the recorded release version, when one was recorded.
	Version release.Version
	// Path is the location that was checked.
	Path string
	// Status classifies the result.
	Status Status
}

// verifyOne compares the installed binary for one pair against its record.
func verifyOne(st *install.State, paths *config.Paths, arch release.Architecture, kind release.Kind) (Check, error) {
	check := Check{
		Kind:         kind,
		Architecture: arch,
		Path:         paths.BinaryPath(kind, arch),
	}

	entry, ok := st.Lookup(kind, arch)
	if !ok {
		check.Status = StatusNotRecorded
		return check, nil
	}

	check.Version = entry.Version
	if entry.Path != "" {
		check.Path = entry.Path
	}

	digest, err := hashFile(check.Path)
	if errors.Is(err, fs.ErrNotExist) {
		check.Status = StatusMissing
		return check, nil
	}

	if err != nil {
		return check, err
	}

	if strings.EqualFold(digest, entry.Digest) {
		check.Status = StatusVerified
	} else {
		check.Status = StatusModified
	}

	return check, nil
}

// hashFile computes the lowercase hex SHA-256 of the file's contents.
func hashFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}

	defer func() {
		_ = file.Close()
	}()

	digest := sha256.New()
	if _, err = io.Copy(digest, file); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}

	return hex.EncodeToString(digest.Sum(nil)), nil
}
