// Package catalog implements persistence for checksum catalogs.
//
// The FileRepository stores one catalog per artifact kind as a JSON snapshot
// on disk. Snapshots are replaced wholesale with an atomic rename and are
// never patched incrementally.
package catalog
