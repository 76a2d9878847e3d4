package compression

import (
	"github.com/pkg/errors"
)

// ErrUnknownFormat is returned when an unrecognized compression format is
// requested.
var ErrUnknownFormat = errors.New("unknown compression format")

// Format identifies a compressed stream container.
type Format uint8

const (
	// FormatDeflate indicates a raw DEFLATE stream with no container header or
	// trailer.
	FormatDeflate Format = iota + 1
	// FormatZlib indicates a DEFLATE stream in a zlib container (RFC 1950).
	FormatZlib
	// FormatGzip indicates a DEFLATE stream in a gzip container (RFC 1952).
	FormatGzip
	// FormatZstd indicates a Zstandard stream.
	FormatZstd
	// FormatLZ4 indicates an LZ4 frame stream.
	FormatLZ4
)

// DefaultFormat is the format used when none is specified.
const DefaultFormat = FormatGzip

const (
	// maximumWindowBits is the base-2 logarithm of the DEFLATE window size.
	maximumWindowBits = 15
	// gzipWindowBitsOffset is added to window bits to select a gzip container
	// under zlib's conventions.
	gzipWindowBitsOffset = 16
)

// ParseFormat converts a format name to a Format.
func ParseFormat(name string) (Format, error) {
	switch name {
	case "deflate", "raw":
		return FormatDeflate, nil
	case "zlib":
		return FormatZlib, nil
	case "gzip":
		return FormatGzip, nil
	case "zstd":
		return FormatZstd, nil
	case "lz4":
		return FormatLZ4, nil
	default:
		return 0, errors.Wrapf(ErrUnknownFormat, "%q", name)
	}
}

// FormatFromWindowBits maps a zlib-style window bits selector to a DEFLATE
// format: -8 through -15 select raw DEFLATE, 8 through 15 select the zlib
// container, and 24 through 31 select the gzip container.
func FormatFromWindowBits(bits int) (Format, error) {
	switch {
	case bits <= -8 && bits >= -maximumWindowBits:
		return FormatDeflate, nil
	case bits >= 8 && bits <= maximumWindowBits:
		return FormatZlib, nil
	case bits >= 8+gzipWindowBitsOffset && bits <= maximumWindowBits+gzipWindowBitsOffset:
		return FormatGzip, nil
	default:
		return 0, errors.Wrapf(ErrUnknownFormat, "window bits %d", bits)
	}
}

// WindowBits returns the zlib-style window bits selector for DEFLATE formats,
// or 0 for formats that have no such selector.
func (f Format) WindowBits() int {
	switch f {
	case FormatDeflate:
		return -maximumWindowBits
	case FormatZlib:
		return maximumWindowBits
	case FormatGzip:
		return maximumWindowBits + gzipWindowBitsOffset
	default:
		return 0
	}
}

// IsValid returns whether or not the format is a known format.
func (f Format) IsValid() bool {
	return f >= FormatDeflate && f <= FormatLZ4
}

// String provides a human-readable representation of a format.
func (f Format) String() string {
	switch f {
	case FormatDeflate:
		return "deflate"
	case FormatZlib:
		return "zlib"
	case FormatGzip:
		return "gzip"
	case FormatZstd:
		return "zstd"
	case FormatLZ4:
		return "lz4"
	default:
		return "unknown"
	}
}

// IsDefault indicates whether or not the format is the zero value, which
// selects DefaultFormat.
func (f Format) IsDefault() bool {
	return f == 0
}

// MarshalText implements encoding.TextMarshaler.MarshalText.
func (f Format) MarshalText() ([]byte, error) {
	if f.IsDefault() {
		return nil, nil
	}
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.UnmarshalText.
func (f *Format) UnmarshalText(textBytes []byte) error {
	format, err := ParseFormat(string(textBytes))
	if err != nil {
		return err
	}
	*f = format
	return nil
}
