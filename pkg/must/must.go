// Package must provides wrappers for operations whose failures can only be
// reported, such as deferred closures.
package must

import (
	"io"

	"github.com/pkg/errors"

	"github.com/mutagen-io/bufstream/pkg/logging"
)

// Close closes c, logging a warning on failure.
func Close(c io.Closer, logger *logging.Logger) {
	if err := c.Close(); err != nil {
		logger.Warn(errors.Wrap(err, "unable to close"))
	}
}

// Finalize finalizes s, logging a warning on failure.
func Finalize(s interface{ Finalize() error }, logger *logging.Logger) {
	if err := s.Finalize(); err != nil {
		logger.Warn(errors.Wrap(err, "unable to finalize"))
	}
}
