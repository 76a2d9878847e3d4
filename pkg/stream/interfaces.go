package stream

import (
	"io"
)

// DualModeReader represents a reader that can perform both regular and
// single-byte reads efficiently.
type DualModeReader interface {
	io.ByteReader
	io.Reader
}

// Flusher represents a stream that performs internal buffering that may need to
// be flushed to ensure transmission.
type Flusher interface {
	// Flush forces transmission of any buffered stream data.
	Flush() error
}

// WriteFlushCloser represents a stream with writing, flushing, and closing
// functionality.
type WriteFlushCloser interface {
	io.Writer
	Flusher
	io.Closer
}

// Codec is the transformation layer of a Stream. A codec is bound to the same
// transport as its Stream and is invoked only in the Stream's mode: Overflow for
// write-mode streams and Underflow for read-mode streams.
type Codec interface {
	// Overflow transmits pending output to the transport. The pending slice is
	// only valid for the duration of the call. If end is true, then this is the
	// final overflow for the stream and the codec should emit any stream
	// terminator. Overflow may be called with an empty pending slice.
	Overflow(pending []byte, end bool) error
	// Underflow refills buffer with input from the transport and returns the
	// number of bytes placed in it. It returns io.EOF (with or without bytes)
	// once the source is exhausted. Returning zero bytes with a nil error is
	// also treated as exhaustion.
	Underflow(buffer []byte) (int, error)
}

// Syncer is an optional interface for write-mode codecs that hold internal
// state beyond the Stream's buffer. Sync is invoked by Stream.Flush after
// pending output has been overflowed and must push all output so far to the
// transport in a form decodable by a peer, without terminating the stream.
type Syncer interface {
	Sync() error
}
