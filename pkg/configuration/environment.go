package configuration

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

const (
	// EnvironmentBufferSize overrides the buffer size.
	EnvironmentBufferSize = "BUFSTREAM_BUFFER_SIZE"
	// EnvironmentChunkSize overrides the compressed input chunk size.
	EnvironmentChunkSize = "BUFSTREAM_CHUNK_SIZE"
	// EnvironmentCompressionFormat overrides the compression format.
	EnvironmentCompressionFormat = "BUFSTREAM_COMPRESSION_FORMAT"
	// EnvironmentCompressionLevel overrides the compression level.
	EnvironmentCompressionLevel = "BUFSTREAM_COMPRESSION_LEVEL"
	// EnvironmentDigestAlgorithm overrides the digest algorithm.
	EnvironmentDigestAlgorithm = "BUFSTREAM_DIGEST_ALGORITHM"
	// EnvironmentLogLevel overrides the log level.
	EnvironmentLogLevel = "BUFSTREAM_LOG_LEVEL"
)

// LoadEnvironment computes the effective set of environment variables by
// loading a dotenv file (if path is non-empty) and then adding variables from
// the current process' environment, which take precedence. A missing dotenv
// file is treated as empty.
func LoadEnvironment(path string) (map[string]string, error) {
	// Create an empty (but initialized) environment.
	environment := make(map[string]string)

	// Load the environment file (if specified and it exists) and add its
	// contents.
	if path != "" {
		fileEnvironment, err := godotenv.Read(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "unable to load environment file (%s)", path)
		}
		for key, value := range fileEnvironment {
			environment[key] = value
		}
	}

	// Add environment variables from the OS.
	for _, specification := range os.Environ() {
		keyValue := strings.SplitN(specification, "=", 2)
		if len(keyValue) != 2 {
			return nil, errors.Errorf("invalid OS environment variable specification: %s", specification)
		}
		environment[keyValue[0]] = keyValue[1]
	}

	// Success.
	return environment, nil
}

// ApplyEnvironment applies overrides from the specified environment. Empty
// values are ignored. It does not validate the resulting configuration.
func (c *Configuration) ApplyEnvironment(environment map[string]string) error {
	// Apply size overrides.
	if value := environment[EnvironmentBufferSize]; value != "" {
		if err := c.BufferSize.UnmarshalText([]byte(value)); err != nil {
			return errors.Wrapf(err, "invalid %s", EnvironmentBufferSize)
		}
	}
	if value := environment[EnvironmentChunkSize]; value != "" {
		if err := c.ChunkSize.UnmarshalText([]byte(value)); err != nil {
			return errors.Wrapf(err, "invalid %s", EnvironmentChunkSize)
		}
	}

	// Apply compression overrides.
	if value := environment[EnvironmentCompressionFormat]; value != "" {
		if err := c.Compression.Format.UnmarshalText([]byte(value)); err != nil {
			return errors.Wrapf(err, "invalid %s", EnvironmentCompressionFormat)
		}
	}
	if value := environment[EnvironmentCompressionLevel]; value != "" {
		level, err := strconv.Atoi(value)
		if err != nil {
			return errors.Wrapf(err, "invalid %s", EnvironmentCompressionLevel)
		}
		c.Compression.Level = level
	}

	// Apply digest overrides.
	if value := environment[EnvironmentDigestAlgorithm]; value != "" {
		if err := c.Digest.Algorithm.UnmarshalText([]byte(value)); err != nil {
			return errors.Wrapf(err, "invalid %s", EnvironmentDigestAlgorithm)
		}
	}

	// Apply logging overrides.
	if value := environment[EnvironmentLogLevel]; value != "" {
		c.LogLevel = value
	}

	// Success.
	return nil
}
