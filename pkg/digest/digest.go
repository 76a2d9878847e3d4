// Package digest implements a transparent running-digest pass-through as a
// stream codec.
package digest

import (
	"encoding/hex"
	"hash"
	"io"

	"github.com/pkg/errors"

	"github.com/mutagen-io/bufstream/pkg/logging"
	"github.com/mutagen-io/bufstream/pkg/stream"
)

// codec implements stream.Codec by hashing bytes as they cross the transport.
type codec struct {
	// reader is the transport in read mode.
	reader io.Reader
	// writer is the transport in write mode.
	writer io.Writer
	// hasher is the running hash.
	hasher hash.Hash
	// logger is the codec logger.
	logger *logging.Logger
}

// Overflow implements stream.Codec.Overflow.
func (c *codec) Overflow(pending []byte, _ bool) error {
	// Hash the data. Hash writes never fail.
	c.hasher.Write(pending)

	// Pass the data through unmodified.
	if len(pending) > 0 {
		if _, err := c.writer.Write(pending); err != nil {
			return errors.Wrap(err, "unable to write to transport")
		}
	}
	return nil
}

// Underflow implements stream.Codec.Underflow.
func (c *codec) Underflow(buffer []byte) (int, error) {
	// Read as much as the buffer will hold. A short read means that the source
	// is exhausted.
	n, err := io.ReadFull(c.reader, buffer)
	c.hasher.Write(buffer[:n])
	c.logger.Tracef("hashed %d bytes", n)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return n, io.EOF
	} else if err != nil {
		return n, errors.Wrap(err, "unable to read from transport")
	}
	return n, nil
}

// Stream is a stream.Stream that maintains a running digest of all bytes that
// cross its transport.
type Stream struct {
	*stream.Stream
	// algorithm is the digest algorithm.
	algorithm Algorithm
	// codec is the digest codec.
	codec *codec
}

// newStream is the shared constructor implementation.
func newStream(mode stream.Mode, transport interface{}, algorithm Algorithm, options *stream.Options) (*Stream, error) {
	// Create the hasher. This also validates the algorithm.
	hasher, err := algorithm.New()
	if err != nil {
		return nil, err
	}

	// Create the codec.
	options = options.Derive("digest")
	codec := &codec{hasher: hasher, logger: options.Logger}

	// Create the underlying stream.
	var base *stream.Stream
	if mode == stream.ModeRead {
		codec.reader = transport.(io.Reader)
		base, err = stream.NewReader(codec.reader, codec, options)
	} else {
		codec.writer = transport.(io.Writer)
		base, err = stream.NewWriter(codec.writer, codec, options)
	}
	if err != nil {
		return nil, err
	}

	// Done.
	return &Stream{base, algorithm, codec}, nil
}

// NewReader creates a new read-mode stream that passes input from source
// through unmodified while digesting it.
func NewReader(source io.Reader, algorithm Algorithm, options *stream.Options) (*Stream, error) {
	return newStream(stream.ModeRead, source, algorithm, options)
}

// NewWriter creates a new write-mode stream that passes output to destination
// unmodified while digesting it.
func NewWriter(destination io.Writer, algorithm Algorithm, options *stream.Options) (*Stream, error) {
	return newStream(stream.ModeWrite, destination, algorithm, options)
}

// Algorithm returns the stream's digest algorithm.
func (s *Stream) Algorithm() Algorithm {
	return s.algorithm
}

// Sum returns the digest of all bytes that have crossed the transport so far:
// bytes read from the source in read mode (including any not yet consumed from
// the stream buffer) or bytes written to the destination in write mode
// (excluding any still pending in the stream buffer). It does not affect
// further accumulation and may be called at any point, including after Close.
func (s *Stream) Sum() []byte {
	return s.codec.hasher.Sum(nil)
}

// HexSum returns the lowercase hexadecimal encoding of Sum.
func (s *Stream) HexSum() string {
	return hex.EncodeToString(s.Sum())
}

// Digest returns Sum, or its lowercase hexadecimal encoding if asHex is true.
func (s *Stream) Digest(asHex bool) []byte {
	if asHex {
		return []byte(s.HexSum())
	}
	return s.Sum()
}
