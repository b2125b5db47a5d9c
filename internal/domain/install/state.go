package install

import (
	"time"

	"github.com/oshokin/minio-warden/internal/domain/release"
)

// Entry records one installed binary: which release it is, the digest it
// was verified against and where it was placed.
type Entry struct {
	// Kind is the installed artifact kind.
	Kind release.Kind `json:"kind"`
	// Architecture is the platform build that was installed.
	Architecture release.Architecture `json:"architecture"`
	// Version is the release version.
	Version release.Version `json:"version"`
	// Digest is the lowercase hex SHA-256 the download was verified against.
	Digest string `json:"digest"`
	// Path is the destination the binary was placed at.
	Path string `json:"path"`
	// InstalledAt is when the install completed.
	InstalledAt time.Time `json:"installed_at"`
}

// State is the record of installed binaries, keyed by kind and architecture.
type State struct {
	// Entries maps Key values to installed entries.
	Entries map[string]Entry `json:"entries"`
}

// NewState returns an empty record.
func NewState() *State {
	return &State{Entries: make(map[string]Entry)}
}

// Key returns the map key for a kind and architecture pair.
func Key(kind release.Kind, arch release.Architecture) string {
	return kind.String() + "/" + arch.String()
}

// Record stores the entry, replacing any previous one for the same pair.
func (s *State) Record(entry Entry) {
	if s.Entries == nil {
		s.Entries = make(map[string]Entry)
	}

	s.Entries[Key(entry.Kind, entry.Architecture)] = entry
}

// Lookup returns the recorded entry for the pair, if any.
func (s *State) Lookup(kind release.Kind, arch release.Architecture) (Entry, bool) {
	entry, ok := s.Entries[Key(kind, arch)]

	return entry, ok
}

// Len returns the number of recorded entries.
func (s *State) Len() int {
	return len(s.Entries)
}
