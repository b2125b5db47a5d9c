// Package remote implements the HTTP client for the artifact mirror.
//
// The Client fetches per-architecture archive listings, the digest files
// published next to every release, and the release binaries themselves.
// Requests are retried with backoff on transient failures.
package remote
