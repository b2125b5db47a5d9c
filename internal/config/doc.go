// Package config defines the warden settings and provides helpers to load,
// validate and save them in YAML format, to read the server root credentials
// from the environment, and to resolve the on-disk layout of the warden
// root directory.
package config
