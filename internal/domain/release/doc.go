// Package release contains the core domain types of the warden: artifact
// kinds, the closed set of supported architectures, date-derived release
// versions and the frozen checksum catalog consulted at install time.
package release
