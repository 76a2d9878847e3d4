package stream

import (
	"io"

	"github.com/pkg/errors"

	"github.com/mutagen-io/bufstream/pkg/logging"
)

const (
	// DefaultBufferSize is the buffer capacity used when none is specified.
	DefaultBufferSize = 1024
)

var (
	// ErrClosed is returned by operations on a closed stream.
	ErrClosed = errors.New("stream closed")
	// ErrWrongMode is returned when reading from a write-mode stream or writing
	// to a read-mode stream.
	ErrWrongMode = errors.New("operation not supported in stream mode")
	// ErrInvalidBufferSize is returned when a negative buffer size is
	// requested.
	ErrInvalidBufferSize = errors.New("invalid buffer size")
)

// Options are the construction parameters shared by all streams. A nil
// *Options is equivalent to the zero value.
type Options struct {
	// BufferSize is the fixed capacity of the stream's buffer. A value of 0
	// selects DefaultBufferSize.
	BufferSize int
	// Logger is the logger for stream activity. It may be nil.
	Logger *logging.Logger
}

// EnsureValid ensures that options are valid.
func (o *Options) EnsureValid() error {
	if o == nil {
		return nil
	}
	if o.BufferSize < 0 {
		return errors.Wrapf(ErrInvalidBufferSize, "%d", o.BufferSize)
	}
	return nil
}

// Derive creates a copy of the options whose logger is a sublogger with the
// specified name. It is used by codec packages to label their streams.
func (o *Options) Derive(name string) *Options {
	if o == nil {
		return &Options{}
	}
	result := *o
	result.Logger = o.Logger.Sublogger(name)
	return &result
}

// LoggerOrNil returns the configured logger, which may be nil.
func (o *Options) LoggerOrNil() *logging.Logger {
	if o == nil {
		return nil
	}
	return o.Logger
}

// bufferSize returns the effective buffer size.
func (o *Options) bufferSize() int {
	if o == nil || o.BufferSize == 0 {
		return DefaultBufferSize
	}
	return o.BufferSize
}

// Stream is a fixed-capacity buffered stream bound to a single transport and a
// single mode. The transformation applied between the buffer and the transport
// is delegated to a Codec. A Stream owns its transport: closing the Stream
// closes the transport (if it implements io.Closer) exactly once, so callers
// should defer Close immediately after construction.
//
// Stream is not safe for concurrent use.
type Stream struct {
	// mode is the stream direction.
	mode Mode
	// codec is the stream's transformation layer.
	codec Codec
	// flusher is the transport's flushing interface, if any.
	flusher Flusher
	// closer is the transport's closing interface, if any.
	closer io.Closer
	// buffer is the fixed-capacity stream buffer.
	buffer []byte
	// cursor is the current offset into buffer. In write mode, buffer[:cursor]
	// is pending output. In read mode, buffer[cursor:filled] is unread input.
	cursor int
	// filled is the number of valid bytes in buffer (read mode only).
	filled int
	// exhausted indicates that the codec has reported the end of its input
	// (read mode only).
	exhausted bool
	// err is any sticky codec error. Once set, all further transfers fail with
	// it rather than risking corrupted output.
	err error
	// closed indicates whether or not the stream has been closed.
	closed bool
	// logger is the stream logger.
	logger *logging.Logger
}

// newStream is the shared constructor implementation.
func newStream(mode Mode, transport interface{}, codec Codec, options *Options) (*Stream, error) {
	// Validate options.
	if err := options.EnsureValid(); err != nil {
		return nil, err
	}

	// Create the stream.
	stream := &Stream{
		mode:   mode,
		codec:  codec,
		buffer: make([]byte, options.bufferSize()),
		logger: options.LoggerOrNil(),
	}

	// Record optional transport behavior.
	if flusher, ok := transport.(Flusher); ok {
		stream.flusher = flusher
	}
	if closer, ok := transport.(io.Closer); ok {
		stream.closer = closer
	}

	// Done.
	stream.logger.Debugf("created %s stream with %d byte buffer", mode, len(stream.buffer))
	return stream, nil
}

// NewReader creates a new read-mode stream that refills its buffer from source
// using codec.
func NewReader(source io.Reader, codec Codec, options *Options) (*Stream, error) {
	return newStream(ModeRead, source, codec, options)
}

// NewWriter creates a new write-mode stream that overflows its buffer to
// destination using codec.
func NewWriter(destination io.Writer, codec Codec, options *Options) (*Stream, error) {
	return newStream(ModeWrite, destination, codec, options)
}

// Mode returns the stream's mode.
func (s *Stream) Mode() Mode {
	return s.mode
}

// BufferSize returns the capacity of the stream's buffer.
func (s *Stream) BufferSize() int {
	return len(s.buffer)
}

// Buffered returns the number of bytes currently held in the buffer: pending
// output in write mode or unread input in read mode.
func (s *Stream) Buffered() int {
	if s.mode == ModeWrite {
		return s.cursor
	}
	return s.filled - s.cursor
}

// overflow hands pending output to the codec and resets the cursor.
func (s *Stream) overflow(end bool) error {
	// Watch for previous failures.
	if s.err != nil {
		return s.err
	}

	// Perform the overflow.
	s.logger.Tracef("overflowing %d bytes (end: %t)", s.cursor, end)
	err := s.codec.Overflow(s.buffer[:s.cursor], end)
	s.cursor = 0
	if err != nil {
		s.err = errors.Wrap(err, "overflow failed")
		return s.err
	}

	// Success.
	return nil
}

// underflow refills the buffer from the codec.
func (s *Stream) underflow() error {
	// Watch for previous failures.
	if s.err != nil {
		return s.err
	}

	// Perform the underflow.
	n, err := s.codec.Underflow(s.buffer)
	s.logger.Tracef("underflowed %d bytes", n)
	s.cursor = 0
	s.filled = n

	// Handle exhaustion and failure.
	if err == io.EOF || (err == nil && n == 0) {
		s.logger.Debug("source exhausted")
		s.exhausted = true
	} else if err != nil {
		s.filled = 0
		s.err = errors.Wrap(err, "underflow failed")
		return s.err
	}

	// Success.
	return nil
}

// Write implements io.Writer.Write. Data is copied into the stream buffer,
// which is overflowed each time it fills.
func (s *Stream) Write(data []byte) (int, error) {
	// Validate state.
	if s.mode != ModeWrite {
		return 0, ErrWrongMode
	} else if s.closed {
		return 0, ErrClosed
	} else if s.err != nil {
		return 0, s.err
	}

	// Copy data into the buffer, overflowing as necessary.
	var written int
	for written < len(data) {
		copied := copy(s.buffer[s.cursor:], data[written:])
		s.cursor += copied
		written += copied
		if s.cursor == len(s.buffer) {
			if err := s.overflow(false); err != nil {
				return written, err
			}
		}
	}

	// Success.
	return written, nil
}

// Read implements io.Reader.Read. Unlike many readers, it fills buffer
// completely unless the stream's source is exhausted, refilling the stream
// buffer as many times as necessary. It returns io.EOF once no data remains.
func (s *Stream) Read(buffer []byte) (int, error) {
	// Validate state.
	if s.mode != ModeRead {
		return 0, ErrWrongMode
	} else if s.closed {
		return 0, ErrClosed
	} else if len(buffer) == 0 {
		return 0, nil
	}

	// Drain the stream buffer, refilling until the request is satisfied or the
	// source is exhausted.
	var read int
	for read < len(buffer) {
		if s.cursor == s.filled {
			if s.exhausted {
				break
			} else if err := s.underflow(); err != nil {
				return read, err
			}
			continue
		}
		copied := copy(buffer[read:], s.buffer[s.cursor:s.filled])
		s.cursor += copied
		read += copied
	}

	// Signal exhaustion if nothing was available.
	if read == 0 {
		return 0, io.EOF
	}
	return read, nil
}

// Drain reads up to size bytes from the stream, or until the end of the stream
// if size is negative. The result is only shorter than size if the end of the
// stream is reached, which is not treated as an error.
func (s *Stream) Drain(size int) ([]byte, error) {
	// Handle unbounded reads.
	if size < 0 {
		return io.ReadAll(s)
	}

	// Handle bounded reads.
	result := make([]byte, size)
	n, err := s.Read(result)
	if err == io.EOF {
		err = nil
	}
	return result[:n], err
}

// Flush forces any pending output through the codec, requests a
// synchronization flush from codecs that support it, and then flushes the
// transport if it supports flushing. It is a no-op for read-mode streams.
func (s *Stream) Flush() error {
	// Validate state.
	if s.mode != ModeWrite {
		return nil
	} else if s.closed {
		return ErrClosed
	}

	// Overflow any pending output.
	if s.cursor > 0 {
		if err := s.overflow(false); err != nil {
			return err
		}
	} else if s.err != nil {
		return s.err
	}

	// Synchronize the codec.
	if syncer, ok := s.codec.(Syncer); ok {
		if err := syncer.Sync(); err != nil {
			s.err = errors.Wrap(err, "unable to synchronize codec")
			return s.err
		}
	}

	// Flush the transport.
	if s.flusher != nil {
		if err := s.flusher.Flush(); err != nil {
			return errors.Wrap(err, "unable to flush transport")
		}
	}

	// Success.
	return nil
}

// Close closes the stream. In write mode, it performs the final overflow and
// flushes the transport. In both modes, it releases codec resources and closes
// the transport. The transport is closed even if a prior step fails, in which
// case the first error encountered is returned. Subsequent calls are no-ops.
func (s *Stream) Close() error {
	// Watch for repeated closure.
	if s.closed {
		return nil
	}
	s.closed = true
	s.logger.Debugf("closing %s stream", s.mode)

	// Track the first error encountered.
	var firstErr error

	// Perform mode-specific finalization.
	if s.mode == ModeWrite {
		if err := s.overflow(true); err != nil {
			firstErr = err
		} else if s.flusher != nil {
			if err := s.flusher.Flush(); err != nil {
				firstErr = errors.Wrap(err, "unable to flush transport")
			}
		}
	}

	// Release codec resources.
	if closer, ok := s.codec.(io.Closer); ok {
		if err := closer.Close(); err != nil && firstErr == nil {
			firstErr = errors.Wrap(err, "unable to close codec")
		}
	}

	// Close the transport.
	if s.closer != nil {
		if err := s.closer.Close(); err != nil && firstErr == nil {
			firstErr = errors.Wrap(err, "unable to close transport")
		}
	}

	// Done.
	return firstErr
}
