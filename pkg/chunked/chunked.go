// Package chunked implements HTTP/1.1 chunked transfer coding as a stream
// codec.
package chunked

import (
	"bytes"
	"io"
	"strconv"

	"github.com/pkg/errors"

	"github.com/mutagen-io/bufstream/pkg/logging"
	"github.com/mutagen-io/bufstream/pkg/stream"
)

const (
	// maximumLineLength is the maximum length of a chunk header or trailer
	// line, excluding its line feed.
	maximumLineLength = 4096
)

var (
	// crlf is the line terminator for chunk headers and bodies.
	crlf = []byte("\r\n")
	// terminalChunk is the zero-length chunk (with an empty trailer section)
	// that ends a chunked body.
	terminalChunk = []byte("0\r\n\r\n")
)

var (
	// ErrMalformedChunkHeader indicates a chunk header that is not terminated
	// by a line feed or that does not contain a valid hexadecimal size.
	ErrMalformedChunkHeader = errors.New("malformed chunk header")
	// ErrMalformedChunkTerminator indicates a chunk body or trailer section
	// that is not followed by a carriage return and line feed.
	ErrMalformedChunkTerminator = errors.New("malformed chunk terminator")
	// ErrTruncatedChunk indicates that the source ended in the middle of a
	// chunk body.
	ErrTruncatedChunk = errors.New("truncated chunk")

	// errLineTooLong indicates a header or trailer line exceeding
	// maximumLineLength.
	errLineTooLong = errors.Errorf("line exceeds %d bytes", maximumLineLength)
)

// byteReader adapts an io.Reader to io.ByteReader without reading ahead, so
// that no bytes beyond the chunked body are consumed from the transport.
type byteReader struct {
	io.Reader
	// scratch is the single-byte read buffer.
	scratch [1]byte
}

// ReadByte implements io.ByteReader.ReadByte.
func (r *byteReader) ReadByte() (byte, error) {
	if _, err := io.ReadFull(r.Reader, r.scratch[:]); err != nil {
		return 0, err
	}
	return r.scratch[0], nil
}

// codec implements stream.Codec for chunked transfer coding.
type codec struct {
	// reader is the transport in read mode.
	reader stream.DualModeReader
	// writer is the transport in write mode.
	writer io.Writer
	// header is a reusable buffer for encoding chunk headers.
	header []byte
	// remaining is the number of bytes remaining in the current chunk. A value
	// of 0 indicates that a chunk header should be read next.
	remaining int64
	// done indicates that the terminal chunk has been consumed.
	done bool
	// logger is the codec logger.
	logger *logging.Logger
}

// NewWriter creates a new write-mode stream that encodes its output to
// destination using chunked transfer coding. Each overflow of the stream buffer
// becomes one chunk, and closing the stream emits the terminal chunk.
func NewWriter(destination io.Writer, options *stream.Options) (*stream.Stream, error) {
	options = options.Derive("chunked")
	return stream.NewWriter(destination, &codec{
		writer: destination,
		header: make([]byte, 0, 2*strconv.IntSize/8+len(crlf)),
		logger: options.Logger,
	}, options)
}

// NewReader creates a new read-mode stream that decodes a chunked body from
// source. The stream ends at the terminal chunk, and no bytes beyond the
// body's trailer section are consumed from source.
func NewReader(source io.Reader, options *stream.Options) (*stream.Stream, error) {
	options = options.Derive("chunked")
	reader, ok := source.(stream.DualModeReader)
	if !ok {
		reader = &byteReader{Reader: source}
	}
	return stream.NewReader(source, &codec{
		reader: reader,
		logger: options.Logger,
	}, options)
}

// write writes data to the transport in its entirety.
func (c *codec) write(data []byte) error {
	if _, err := c.writer.Write(data); err != nil {
		return errors.Wrap(err, "unable to write to transport")
	}
	return nil
}

// Overflow implements stream.Codec.Overflow.
func (c *codec) Overflow(pending []byte, end bool) error {
	// Emit pending data as a chunk. Empty chunks are never emitted here since
	// they would terminate the body.
	if len(pending) > 0 {
		c.header = strconv.AppendInt(c.header[:0], int64(len(pending)), 16)
		c.header = append(c.header, crlf...)
		if err := c.write(c.header); err != nil {
			return err
		} else if err = c.write(pending); err != nil {
			return err
		} else if err = c.write(crlf); err != nil {
			return err
		}
		c.logger.Tracef("wrote %d byte chunk", len(pending))
	}

	// Emit the terminal chunk if this is the end of the body.
	if end {
		if err := c.write(terminalChunk); err != nil {
			return err
		}
		c.logger.Tracef("wrote terminal chunk")
	}

	// Success.
	return nil
}

// readLine reads a line terminated by a line feed, returning it without the
// line feed or any carriage return preceding it. It returns io.EOF if the
// source ends before a line feed is encountered.
func (c *codec) readLine() ([]byte, error) {
	var line []byte
	for {
		b, err := c.reader.ReadByte()
		if err != nil {
			return nil, err
		} else if b == '\n' {
			break
		} else if len(line) == maximumLineLength {
			return nil, errLineTooLong
		}
		line = append(line, b)
	}
	return bytes.TrimSuffix(line, crlf[:1]), nil
}

// parseSize parses a chunk header line, ignoring any chunk extensions.
func parseSize(line []byte) (int64, error) {
	// Strip chunk extensions and optional whitespace.
	if index := bytes.IndexByte(line, ';'); index >= 0 {
		line = line[:index]
	}
	line = bytes.Trim(line, " \t")

	// Parse the size. ParseUint rejects signs, prefixes, and empty input.
	size, err := strconv.ParseUint(string(line), 16, 63)
	if err != nil {
		return 0, errors.Wrapf(ErrMalformedChunkHeader, "invalid chunk size %q", line)
	}
	return int64(size), nil
}

// readHeader reads and parses the next chunk header.
func (c *codec) readHeader() (int64, error) {
	line, err := c.readLine()
	if err == io.EOF {
		return 0, errors.Wrap(ErrMalformedChunkHeader, "missing line feed")
	} else if err == errLineTooLong {
		return 0, errors.Wrap(ErrMalformedChunkHeader, err.Error())
	} else if err != nil {
		return 0, errors.Wrap(err, "unable to read chunk header")
	}
	return parseSize(line)
}

// readTrailers consumes the trailer section that follows the terminal chunk,
// up to and including the empty line that ends it.
func (c *codec) readTrailers() error {
	for {
		line, err := c.readLine()
		if err == io.EOF {
			return errors.Wrap(ErrMalformedChunkTerminator, "missing final line")
		} else if err == errLineTooLong {
			return errors.Wrap(ErrMalformedChunkTerminator, err.Error())
		} else if err != nil {
			return errors.Wrap(err, "unable to read trailer")
		} else if len(line) == 0 {
			return nil
		}
		c.logger.Tracef("discarding trailer %q", line)
	}
}

// readTerminator consumes the line terminator following a chunk body.
func (c *codec) readTerminator() error {
	var terminator [2]byte
	if _, err := io.ReadFull(c.reader, terminator[:]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return errors.Wrap(ErrMalformedChunkTerminator, "missing terminator")
		}
		return errors.Wrap(err, "unable to read chunk terminator")
	} else if !bytes.Equal(terminator[:], crlf) {
		return errors.Wrapf(ErrMalformedChunkTerminator, "unexpected terminator %q", terminator[:])
	}
	return nil
}

// Underflow implements stream.Codec.Underflow.
func (c *codec) Underflow(buffer []byte) (int, error) {
	// If we've already consumed the terminal chunk, then we're done.
	if c.done {
		return 0, io.EOF
	}

	// Read the next chunk header if the current chunk has been consumed.
	if c.remaining == 0 {
		size, err := c.readHeader()
		if err != nil {
			return 0, err
		}
		c.logger.Tracef("read header for %d byte chunk", size)

		// Handle the terminal chunk.
		if size == 0 {
			c.done = true
			if err := c.readTrailers(); err != nil {
				return 0, err
			}
			return 0, io.EOF
		}
		c.remaining = size
	}

	// Read as much of the chunk body as will fit in the buffer.
	count := len(buffer)
	if int64(count) > c.remaining {
		count = int(c.remaining)
	}
	n, err := io.ReadFull(c.reader, buffer[:count])
	c.remaining -= int64(n)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return n, errors.Wrapf(ErrTruncatedChunk, "%d bytes missing", c.remaining)
	} else if err != nil {
		return n, errors.Wrap(err, "unable to read chunk body")
	}

	// If the chunk is complete, then consume its terminator.
	if c.remaining == 0 {
		if err := c.readTerminator(); err != nil {
			return n, err
		}
	}

	// Success.
	return n, nil
}
