package stream

import (
	"io"
)

// CountingReader is an io.Reader that tallies the bytes read through it.
type CountingReader struct {
	// reader is the underlying reader.
	reader io.Reader
	// count is the number of bytes read so far.
	count uint64
}

// NewCountingReader creates a new CountingReader wrapping reader.
func NewCountingReader(reader io.Reader) *CountingReader {
	return &CountingReader{reader: reader}
}

// Read implements io.Reader.Read.
func (r *CountingReader) Read(buffer []byte) (int, error) {
	n, err := r.reader.Read(buffer)
	r.count += uint64(n)
	return n, err
}

// Count returns the number of bytes read so far.
func (r *CountingReader) Count() uint64 {
	return r.count
}

// CountingWriter is an io.Writer that tallies the bytes successfully written
// through it. Flushing and closing are forwarded to the underlying writer when
// it supports them, so a CountingWriter can sit between a Stream and its
// transport without hiding either capability.
type CountingWriter struct {
	// writer is the underlying writer.
	writer io.Writer
	// count is the number of bytes written so far.
	count uint64
}

// NewCountingWriter creates a new CountingWriter wrapping writer.
func NewCountingWriter(writer io.Writer) *CountingWriter {
	return &CountingWriter{writer: writer}
}

// Write implements io.Writer.Write.
func (w *CountingWriter) Write(buffer []byte) (int, error) {
	n, err := w.writer.Write(buffer)
	w.count += uint64(n)
	return n, err
}

// Flush implements Flusher.Flush.
func (w *CountingWriter) Flush() error {
	if flusher, ok := w.writer.(Flusher); ok {
		return flusher.Flush()
	}
	return nil
}

// Close implements io.Closer.Close.
func (w *CountingWriter) Close() error {
	if closer, ok := w.writer.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Count returns the number of bytes written so far.
func (w *CountingWriter) Count() uint64 {
	return w.count
}
