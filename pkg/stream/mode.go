package stream

import (
	"github.com/pkg/errors"
)

// ErrUnknownMode is returned when parsing an unrecognized stream mode.
var ErrUnknownMode = errors.New("unknown stream mode")

// Mode represents the direction of a Stream. It is fixed at construction.
type Mode uint8

const (
	// ModeRead indicates a stream that refills its buffer from its transport.
	ModeRead Mode = iota + 1
	// ModeWrite indicates a stream that accumulates output and overflows it to
	// its transport.
	ModeWrite
)

// ParseMode converts a textual mode specification into a Mode. It accepts "r"
// and "read" for ModeRead and "w" and "write" for ModeWrite.
func ParseMode(name string) (Mode, error) {
	switch name {
	case "r", "read":
		return ModeRead, nil
	case "w", "write":
		return ModeWrite, nil
	default:
		return 0, errors.Wrapf(ErrUnknownMode, "%q", name)
	}
}

// String provides a human-readable representation of a mode.
func (m Mode) String() string {
	switch m {
	case ModeRead:
		return "read"
	case ModeWrite:
		return "write"
	default:
		return "unknown"
	}
}
