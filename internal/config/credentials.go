package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Credentials carries the root account the supervised server is started
// with. They are read from the warden's own environment and handed to the
// child process through environment variables only, never argv.
type Credentials struct {
	// RootUser is the root account name.
	RootUser string `envconfig:"MINIO_ROOT_USER" default:"minioadmin"`
	// RootPassword is the root account secret.
	RootPassword string `envconfig:"MINIO_ROOT_PASSWORD" default:"minioadmin"`
}

// LoadCredentials reads the server credentials from the environment,
// falling back to the stock development defaults.
func LoadCredentials() (*Credentials, error) {
	var creds Credentials
	if err := envconfig.Process("", &creds); err != nil {
		return nil, fmt.Errorf("read credential environment: %w", err)
	}

	return &creds, nil
}
