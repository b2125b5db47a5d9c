// Package cataloger builds checksum catalog snapshots from the mirror.
//
// The Scanner discovers which versions are released for every supported
// architecture, the Harvester collects the published digest of every
// (version, architecture) pair, and the Builder composes the two and
// replaces the on-disk snapshot. Rebuilding is an explicit maintenance
// action and is never triggered by an install.
package cataloger
