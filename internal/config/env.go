// Package config loads command configuration from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Serve configures the NFS view started by "proctest serve".
type Serve struct {
	// Listen is the NFS listen address; ":0" picks an ephemeral port.
	Listen string `env:"PROCTEST_NFS_LISTEN" envDefault:":0"`
	// Mount runs the system mount command when a mountpoint is given.
	Mount bool `env:"PROCTEST_NFS_MOUNT" envDefault:"false"`
	// MountOptions are extra comma-separated options for the mount command.
	// The mount is read-only regardless.
	MountOptions []string `env:"PROCTEST_NFS_MOUNT_OPTIONS" envSeparator:","`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadServe reads the serve configuration.
func LoadServe() (Serve, error) {
	var cfg Serve
	if err := ParseEnv(&cfg); err != nil {
		return Serve{}, err
	}
	return cfg, nil
}
