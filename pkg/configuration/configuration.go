package configuration

import (
	"math"
	"os"

	"github.com/pkg/errors"

	"github.com/mutagen-io/bufstream/pkg/compression"
	"github.com/mutagen-io/bufstream/pkg/digest"
	"github.com/mutagen-io/bufstream/pkg/encoding"
	"github.com/mutagen-io/bufstream/pkg/logging"
	"github.com/mutagen-io/bufstream/pkg/stream"
)

// Configuration is the YAML configuration object type.
type Configuration struct {
	// BufferSize is the stream buffer capacity.
	BufferSize ByteSize `yaml:"bufferSize"`
	// ChunkSize is the maximum size of each compressed input read.
	ChunkSize ByteSize `yaml:"chunkSize"`
	// Compression is the compression configuration.
	Compression struct {
		// Format is the compression format.
		Format compression.Format `yaml:"format"`
		// Level is the compression level. Zero selects a format default.
		Level int `yaml:"level"`
	} `yaml:"compression"`
	// Digest is the digest configuration.
	Digest struct {
		// Algorithm is the digest algorithm.
		Algorithm digest.Algorithm `yaml:"algorithm"`
	} `yaml:"digest"`
	// LogLevel is the name of the log level.
	LogLevel string `yaml:"logLevel"`
}

// Default returns a configuration populated with default values.
func Default() *Configuration {
	result := &Configuration{
		BufferSize: stream.DefaultBufferSize,
		ChunkSize:  compression.DefaultChunkSize,
		LogLevel:   logging.LevelInfo.String(),
	}
	result.Compression.Format = compression.DefaultFormat
	result.Digest.Algorithm = digest.DefaultAlgorithm
	return result
}

// Load loads a YAML configuration file from the specified path, applies any
// environment variable overrides from the specified dotenv file and the process
// environment (in that order of increasing precedence), and validates the
// result. If path is empty or doesn't exist, default values are used. If
// environmentFile is empty, only the process environment is consulted. The
// returned structure is not re-used, so its members can be freely mutated.
func Load(path, environmentFile string) (*Configuration, error) {
	// Create a configuration with default values. Nothing will be modified in
	// this structure if the configuration file doesn't exist.
	result := Default()

	// Attempt to load the configuration from disk.
	if path != "" {
		if err := encoding.LoadAndUnmarshalYAML(path, result); err != nil {
			if !os.IsNotExist(err) {
				return nil, errors.Wrap(err, "unable to load configuration file")
			}
		}
	}

	// Apply environment overrides.
	environment, err := LoadEnvironment(environmentFile)
	if err != nil {
		return nil, err
	}
	if err := result.ApplyEnvironment(environment); err != nil {
		return nil, errors.Wrap(err, "invalid environment override")
	}

	// Validate the result.
	if err := result.EnsureValid(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	// Success.
	return result, nil
}

// EnsureValid ensures that the configuration is valid.
func (c *Configuration) EnsureValid() error {
	// A nil configuration is not valid.
	if c == nil {
		return errors.New("nil configuration")
	}

	// Verify sizes.
	if c.BufferSize == 0 {
		return errors.New("buffer size must be non-zero")
	} else if c.BufferSize > math.MaxInt32 {
		return errors.Errorf("buffer size too large: %d", c.BufferSize)
	}
	if c.ChunkSize == 0 {
		return errors.New("chunk size must be non-zero")
	} else if c.ChunkSize > math.MaxInt32 {
		return errors.Errorf("chunk size too large: %d", c.ChunkSize)
	}

	// Verify compression settings.
	if !c.Compression.Format.IsDefault() && !c.Compression.Format.IsValid() {
		return errors.Wrapf(compression.ErrUnknownFormat, "format %d", c.Compression.Format)
	}
	compressionOptions := &compression.Options{Level: c.Compression.Level}
	if err := compressionOptions.EnsureValid(); err != nil {
		return err
	}

	// Verify digest settings.
	if !c.Digest.Algorithm.IsDefault() {
		if _, err := c.Digest.Algorithm.New(); err != nil {
			return err
		}
	}

	// Verify the log level.
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}

	// Success.
	return nil
}

// Level returns the configured log level. It assumes that the configuration is
// valid.
func (c *Configuration) Level() logging.Level {
	level, _ := logging.NameToLevel(c.LogLevel)
	return level
}

// Format returns the configured compression format, resolving the default.
func (c *Configuration) Format() compression.Format {
	if c.Compression.Format.IsDefault() {
		return compression.DefaultFormat
	}
	return c.Compression.Format
}

// Algorithm returns the configured digest algorithm, resolving the default.
func (c *Configuration) Algorithm() digest.Algorithm {
	if c.Digest.Algorithm.IsDefault() {
		return digest.DefaultAlgorithm
	}
	return c.Digest.Algorithm
}

// StreamOptions returns base stream options reflecting the configuration and
// using the specified logger.
func (c *Configuration) StreamOptions(logger *logging.Logger) *stream.Options {
	return &stream.Options{
		BufferSize: int(c.BufferSize),
		Logger:     logger,
	}
}

// CompressionOptions returns compression stream options reflecting the
// configuration and using the specified logger.
func (c *Configuration) CompressionOptions(logger *logging.Logger) *compression.Options {
	return &compression.Options{
		Options:   *c.StreamOptions(logger),
		Level:     c.Compression.Level,
		ChunkSize: int(c.ChunkSize),
	}
}
