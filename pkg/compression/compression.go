// Package compression implements streaming compression and decompression as a
// stream codec, with a selectable container format.
package compression

import (
	"io"

	"github.com/pkg/errors"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"

	"github.com/pierrec/lz4/v4"

	"github.com/mutagen-io/bufstream/pkg/logging"
	"github.com/mutagen-io/bufstream/pkg/stream"
)

const (
	// defaultDeflateLevel is the default compression level to use for DEFLATE
	// based formats.
	defaultDeflateLevel = 6
	// maximumLevel is the maximum supported compression level.
	maximumLevel = 9
	// DefaultChunkSize is the default maximum size of each read of compressed
	// input from the transport.
	DefaultChunkSize = 1024
)

// ErrInvalidLevel is returned when an out-of-range compression level is
// requested.
var ErrInvalidLevel = errors.New("invalid compression level")

// lz4Levels maps compression levels to LZ4 compression levels.
var lz4Levels = [maximumLevel + 1]lz4.CompressionLevel{
	lz4.Fast,
	lz4.Level1, lz4.Level2, lz4.Level3,
	lz4.Level4, lz4.Level5, lz4.Level6,
	lz4.Level7, lz4.Level8, lz4.Level9,
}

// Options are the construction parameters for compression streams. A nil
// *Options is equivalent to the zero value.
type Options struct {
	stream.Options
	// Level is the compression level, from 1 (fastest) to 9 (smallest). A
	// value of 0 selects a format-specific default. It is ignored for reading.
	Level int
	// ChunkSize is the maximum number of compressed bytes requested from the
	// transport per read. It is independent of the buffer size, which bounds
	// decompressed output per underflow. A value of 0 selects
	// DefaultChunkSize.
	ChunkSize int
}

// EnsureValid ensures that options are valid.
func (o *Options) EnsureValid() error {
	if o == nil {
		return nil
	} else if err := o.Options.EnsureValid(); err != nil {
		return err
	} else if o.Level < 0 || o.Level > maximumLevel {
		return errors.Wrapf(ErrInvalidLevel, "%d", o.Level)
	} else if o.ChunkSize < 0 {
		return errors.Errorf("invalid chunk size: %d", o.ChunkSize)
	}
	return nil
}

// streamOptions returns the base stream options labeled for format.
func (o *Options) streamOptions(format Format) *stream.Options {
	if o == nil {
		return (*stream.Options)(nil).Derive(format.String())
	}
	return o.Options.Derive(format.String())
}

// level returns the configured level.
func (o *Options) level() int {
	if o == nil {
		return 0
	}
	return o.Level
}

// chunkSize returns the effective chunk size.
func (o *Options) chunkSize() int {
	if o == nil || o.ChunkSize == 0 {
		return DefaultChunkSize
	}
	return o.ChunkSize
}

// newCompressor creates a compressor for the specified format and level. The
// compressor's Flush method performs a synchronization flush, while its Close
// method performs a terminal flush and writes any format trailer without
// closing destination.
func newCompressor(destination io.Writer, format Format, level int) (stream.WriteFlushCloser, error) {
	switch format {
	case FormatDeflate:
		if level == 0 {
			level = defaultDeflateLevel
		}
		return flate.NewWriter(destination, level)
	case FormatZlib:
		if level == 0 {
			level = defaultDeflateLevel
		}
		return zlib.NewWriterLevel(destination, level)
	case FormatGzip:
		if level == 0 {
			level = defaultDeflateLevel
		}
		return gzip.NewWriterLevel(destination, level)
	case FormatZstd:
		encoderLevel := zstd.SpeedDefault
		if level != 0 {
			encoderLevel = zstd.EncoderLevelFromZstd(level)
		}
		return zstd.NewWriter(destination,
			zstd.WithEncoderLevel(encoderLevel),
			zstd.WithEncoderConcurrency(1),
			zstd.WithZeroFrames(true),
		)
	case FormatLZ4:
		writer := lz4.NewWriter(destination)
		if err := writer.Apply(lz4.CompressionLevelOption(lz4Levels[level])); err != nil {
			return nil, err
		}
		return writer, nil
	default:
		return nil, errors.Wrapf(ErrUnknownFormat, "format %d", format)
	}
}

// newDecompressor creates a decompressor for the specified format. Container
// formats read their headers from source during creation.
func newDecompressor(source io.Reader, format Format) (io.Reader, error) {
	switch format {
	case FormatDeflate:
		return flate.NewReader(source), nil
	case FormatZlib:
		return zlib.NewReader(source)
	case FormatGzip:
		reader, err := gzip.NewReader(source)
		if err != nil {
			return nil, err
		}
		reader.Multistream(false)
		return reader, nil
	case FormatZstd:
		decoder, err := zstd.NewReader(source, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, err
		}
		return decoder.IOReadCloser(), nil
	case FormatLZ4:
		return lz4.NewReader(source), nil
	default:
		return nil, errors.Wrapf(ErrUnknownFormat, "format %d", format)
	}
}

// chunkReader is an io.Reader that bounds the size of each read from an
// underlying reader.
type chunkReader struct {
	// reader is the underlying reader.
	reader io.Reader
	// size is the maximum size of each read.
	size int
	// consumed is the total number of bytes read so far.
	consumed int64
}

// Read implements io.Reader.Read.
func (r *chunkReader) Read(buffer []byte) (int, error) {
	if len(buffer) > r.size {
		buffer = buffer[:r.size]
	}
	n, err := r.reader.Read(buffer)
	r.consumed += int64(n)
	return n, err
}

// codec implements stream.Codec and stream.Syncer for compression.
type codec struct {
	// format is the stream format.
	format Format
	// compressor is the compressor in write mode.
	compressor stream.WriteFlushCloser
	// finished indicates that the compressor has written its trailer.
	finished bool
	// source is the chunked compressed input in read mode.
	source *chunkReader
	// decompressor is the decompressor in read mode. It is created on the first
	// underflow so that construction performs no transport reads.
	decompressor io.Reader
	// logger is the codec logger.
	logger *logging.Logger
}

// NewWriter creates a new write-mode stream that compresses its output to
// destination using the specified format.
func NewWriter(destination io.Writer, format Format, options *Options) (*stream.Stream, error) {
	// Validate parameters.
	if !format.IsValid() {
		return nil, errors.Wrapf(ErrUnknownFormat, "format %d", format)
	} else if err := options.EnsureValid(); err != nil {
		return nil, err
	}

	// Create the compressor.
	compressor, err := newCompressor(destination, format, options.level())
	if err != nil {
		return nil, errors.Wrap(err, "unable to create compressor")
	}

	// Create the stream.
	streamOptions := options.streamOptions(format)
	return stream.NewWriter(destination, &codec{
		format:     format,
		compressor: compressor,
		logger:     streamOptions.Logger,
	}, streamOptions)
}

// NewReader creates a new read-mode stream that decompresses input from source
// using the specified format.
func NewReader(source io.Reader, format Format, options *Options) (*stream.Stream, error) {
	// Validate parameters.
	if !format.IsValid() {
		return nil, errors.Wrapf(ErrUnknownFormat, "format %d", format)
	} else if err := options.EnsureValid(); err != nil {
		return nil, err
	}

	// Create the stream.
	streamOptions := options.streamOptions(format)
	return stream.NewReader(source, &codec{
		format: format,
		source: &chunkReader{reader: source, size: options.chunkSize()},
		logger: streamOptions.Logger,
	}, streamOptions)
}

// Overflow implements stream.Codec.Overflow.
func (c *codec) Overflow(pending []byte, end bool) error {
	// Feed pending data to the compressor, which may or may not emit anything.
	if len(pending) > 0 {
		if _, err := c.compressor.Write(pending); err != nil {
			return errors.Wrap(err, "unable to compress data")
		}
	}

	// Finish the compressed stream if this is the final overflow.
	if end && !c.finished {
		c.finished = true
		if err := c.compressor.Close(); err != nil {
			return errors.Wrap(err, "unable to finish compressed stream")
		}
		c.logger.Tracef("finished %s stream", c.format)
	}

	// Success.
	return nil
}

// Sync implements stream.Syncer.Sync.
func (c *codec) Sync() error {
	if err := c.compressor.Flush(); err != nil {
		return errors.Wrap(err, "unable to flush compressor")
	}
	c.logger.Tracef("synchronized %s stream", c.format)
	return nil
}

// emptySource returns whether or not err indicates that the compressed source
// ended before yielding any bytes, in which case the stream is empty.
func (c *codec) emptySource(err error) bool {
	return c.source.consumed == 0 && (err == io.EOF || err == io.ErrUnexpectedEOF)
}

// Underflow implements stream.Codec.Underflow.
func (c *codec) Underflow(buffer []byte) (int, error) {
	// Create the decompressor if necessary. A source that ends before any
	// container header is an empty stream.
	if c.decompressor == nil {
		decompressor, err := newDecompressor(c.source, c.format)
		if c.emptySource(err) {
			return 0, io.EOF
		} else if err != nil {
			return 0, errors.Wrap(err, "unable to create decompressor")
		}
		c.decompressor = decompressor
	}

	// Fill the buffer with decompressed data. A single read of compressed input
	// may yield any amount of output (including none), so keep reading until
	// the buffer is full or the compressed stream ends.
	var n int
	for n < len(buffer) {
		read, err := c.decompressor.Read(buffer[n:])
		n += read
		if err == io.EOF || (n == 0 && c.emptySource(err)) {
			return n, io.EOF
		} else if err != nil {
			return n, errors.Wrap(err, "unable to decompress data")
		}
	}

	// Success.
	return n, nil
}

// Close implements io.Closer.Close, releasing decompressor resources.
func (c *codec) Close() error {
	if closer, ok := c.decompressor.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
