// Package install contains the domain record of installed binaries.
//
// It defines Entry (one installed release with its verified digest) and
// State (the per-root record of entries), which the installer writes and
// the verify command checks against.
package install
