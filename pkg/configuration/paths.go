package configuration

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

const (
	// ConfigurationFileName is the name of the per-user configuration file
	// within the user's home directory.
	ConfigurationFileName = ".bufstream.yml"
	// EnvironmentFileName is the conventional name of a dotenv file containing
	// environment variable overrides.
	EnvironmentFileName = ".env"
)

// DefaultConfigurationPath returns the path of the per-user YAML configuration
// file. It does not verify that the file exists.
func DefaultConfigurationPath() (string, error) {
	// Compute the path to the user's home directory.
	homeDirectoryPath, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "unable to compute path to home directory")
	}

	// Success.
	return filepath.Join(homeDirectoryPath, ConfigurationFileName), nil
}
