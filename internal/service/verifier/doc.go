// Package verifier re-checks installed binaries against the digests they
// were verified with at install time, catching files that were modified or
// removed behind the warden's back.
package verifier
