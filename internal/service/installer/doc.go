// Package installer downloads, verifies and installs release binaries.
//
// Digests come exclusively from the injected catalog; nothing is trusted
// from the network at install time. A binary becomes executable at the
// destination only after its checksum has been verified, and every failed
// install leaves the destination absent.
package installer
