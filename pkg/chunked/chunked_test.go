package chunked

import (
	"bytes"
	"io"
	"math/rand"
	"strings"
	"testing"

	"github.com/pkg/errors"

	"github.com/mutagen-io/bufstream/pkg/stream"
)

// encode chunk-encodes data using a writer with the specified buffer size,
// writing data in pieces of at most writeSize bytes.
func encode(t *testing.T, data []byte, bufferSize, writeSize int) []byte {
	t.Helper()
	output := &bytes.Buffer{}
	writer, err := NewWriter(output, &stream.Options{BufferSize: bufferSize})
	if err != nil {
		t.Fatal("unable to create writer:", err)
	}
	for remaining := data; len(remaining) > 0; {
		size := writeSize
		if size > len(remaining) {
			size = len(remaining)
		}
		if _, err := writer.Write(remaining[:size]); err != nil {
			t.Fatal("unable to write:", err)
		}
		remaining = remaining[size:]
	}
	if err := writer.Close(); err != nil {
		t.Fatal("unable to close writer:", err)
	}
	return output.Bytes()
}

// decode decodes a chunked body using a reader with the specified buffer size.
func decode(encoded []byte, bufferSize int) ([]byte, error) {
	reader, err := NewReader(bytes.NewReader(encoded), &stream.Options{BufferSize: bufferSize})
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return reader.Drain(-1)
}

// TestFramingExactness tests the exact wire format for a small body.
func TestFramingExactness(t *testing.T) {
	encoded := encode(t, []byte("abc"), 16, 16)
	if string(encoded) != "3\r\nabc\r\n0\r\n\r\n" {
		t.Errorf("encoded form mismatch: %q", encoded)
	}
}

// TestEmptyBody tests that an empty body encodes to the terminal chunk alone
// and decodes to nothing.
func TestEmptyBody(t *testing.T) {
	encoded := encode(t, nil, 16, 16)
	if string(encoded) != "0\r\n\r\n" {
		t.Errorf("encoded form mismatch: %q", encoded)
	}
	decoded, err := decode(encoded, 16)
	if err != nil {
		t.Fatal("unable to decode:", err)
	} else if len(decoded) != 0 {
		t.Error("decoded data is non-empty:", len(decoded))
	}
}

// TestLowercaseHexHeaders tests that chunk sizes are encoded in lowercase
// hexadecimal.
func TestLowercaseHexHeaders(t *testing.T) {
	data := bytes.Repeat([]byte{'x'}, 0xab)
	encoded := encode(t, data, 0xab, 0xab)
	if !bytes.HasPrefix(encoded, []byte("ab\r\n")) {
		t.Errorf("unexpected header: %q", encoded[:4])
	}
}

// TestRoundTrip tests that encoding then decoding reproduces the original data
// for lengths around buffer capacity boundaries and for mismatched reader and
// writer capacities.
func TestRoundTrip(t *testing.T) {
	random := rand.New(rand.NewSource(42))
	capacities := []int{1, 7, 64, 1024}
	for _, capacity := range capacities {
		lengths := []int{0, 1, capacity - 1, capacity, capacity + 1, 2 * capacity, 5*capacity + 3}
		for _, length := range lengths {
			if length < 0 {
				continue
			}
			data := make([]byte, length)
			random.Read(data)
			for _, readerCapacity := range []int{1, capacity, 3*capacity + 1} {
				encoded := encode(t, data, capacity, 5)
				decoded, err := decode(encoded, readerCapacity)
				if err != nil {
					t.Fatal("unable to decode:", err)
				}
				if !bytes.Equal(decoded, data) {
					t.Errorf("round trip mismatch: length %d, writer capacity %d, reader capacity %d",
						length, capacity, readerCapacity)
				}
			}
		}
	}
}

// TestLargeChunkDrainedAcrossUnderflows tests that a chunk larger than the
// reader's buffer is drained in capacity-bounded pieces.
func TestLargeChunkDrainedAcrossUnderflows(t *testing.T) {
	reader, err := NewReader(strings.NewReader("a\r\n0123456789\r\n0\r\n\r\n"), &stream.Options{BufferSize: 4})
	if err != nil {
		t.Fatal("unable to create reader:", err)
	}
	defer reader.Close()

	var pieces []string
	for {
		piece, err := reader.Drain(4)
		if err != nil {
			t.Fatal("unable to read:", err)
		} else if len(piece) == 0 {
			break
		}
		pieces = append(pieces, string(piece))
	}
	if strings.Join(pieces, "|") != "0123|4567|89" {
		t.Error("unexpected read pieces:", pieces)
	}
}

// TestFlushEmitsChunk tests that flushing emits pending data as a chunk without
// terminating the body.
func TestFlushEmitsChunk(t *testing.T) {
	output := &bytes.Buffer{}
	writer, err := NewWriter(output, nil)
	if err != nil {
		t.Fatal("unable to create writer:", err)
	}
	if _, err := writer.Write([]byte("hello")); err != nil {
		t.Fatal("unable to write:", err)
	} else if err = writer.Flush(); err != nil {
		t.Fatal("unable to flush:", err)
	}
	if output.String() != "5\r\nhello\r\n" {
		t.Errorf("unexpected flushed output: %q", output.String())
	}
	if err := writer.Flush(); err != nil {
		t.Fatal("unable to flush:", err)
	} else if output.String() != "5\r\nhello\r\n" {
		t.Errorf("empty flush emitted data: %q", output.String())
	}
	if err := writer.Close(); err != nil {
		t.Fatal("unable to close:", err)
	} else if output.String() != "5\r\nhello\r\n0\r\n\r\n" {
		t.Errorf("unexpected final output: %q", output.String())
	}
}

// TestExtensionsAndTrailers tests that chunk extensions and trailer fields are
// tolerated and discarded.
func TestExtensionsAndTrailers(t *testing.T) {
	encoded := "4;name=value\r\nWiki\r\n5 \r\npedia\r\n0\r\nExpires: never\r\n\r\n"
	decoded, err := decode([]byte(encoded), 1024)
	if err != nil {
		t.Fatal("unable to decode:", err)
	} else if string(decoded) != "Wikipedia" {
		t.Error("decoded data mismatch:", string(decoded))
	}
}

// TestBodyBoundary tests that the decoder doesn't consume bytes beyond the
// chunked body.
func TestBodyBoundary(t *testing.T) {
	source := bytes.NewBufferString("3\r\nabc\r\n0\r\n\r\nNEXT")
	reader, err := NewReader(source, nil)
	if err != nil {
		t.Fatal("unable to create reader:", err)
	}
	defer reader.Close()
	if decoded, err := reader.Drain(-1); err != nil {
		t.Fatal("unable to decode:", err)
	} else if string(decoded) != "abc" {
		t.Error("decoded data mismatch:", string(decoded))
	}
	if source.String() != "NEXT" {
		t.Errorf("unexpected remaining source content: %q", source.String())
	}
}

// nonByteReader hides any io.ByteReader implementation of its reader.
type nonByteReader struct {
	reader io.Reader
}

// Read implements io.Reader.Read.
func (r *nonByteReader) Read(buffer []byte) (int, error) {
	return r.reader.Read(buffer)
}

// TestPlainReaderSource tests decoding from a source that doesn't implement
// io.ByteReader.
func TestPlainReaderSource(t *testing.T) {
	source := &nonByteReader{strings.NewReader("2\r\nhi\r\n0\r\n\r\n")}
	reader, err := NewReader(source, nil)
	if err != nil {
		t.Fatal("unable to create reader:", err)
	}
	defer reader.Close()
	if decoded, err := reader.Drain(-1); err != nil {
		t.Fatal("unable to decode:", err)
	} else if string(decoded) != "hi" {
		t.Error("decoded data mismatch:", string(decoded))
	}
}

// TestMalformedInput tests that framing errors are reported.
func TestMalformedInput(t *testing.T) {
	testCases := []struct {
		encoded  string
		expected error
	}{
		{"", ErrMalformedChunkHeader},
		{"3", ErrMalformedChunkHeader},
		{"zz\r\nabc\r\n", ErrMalformedChunkHeader},
		{"\r\nabc\r\n", ErrMalformedChunkHeader},
		{"-3\r\nabc\r\n", ErrMalformedChunkHeader},
		{"0x3\r\nabc\r\n", ErrMalformedChunkHeader},
		{strings.Repeat("0", maximumLineLength+1) + "3\r\n", ErrMalformedChunkHeader},
		{"3\r\nabcXY0\r\n\r\n", ErrMalformedChunkTerminator},
		{"3\r\nabc", ErrMalformedChunkTerminator},
		{"3\r\nab", ErrTruncatedChunk},
		{"3\r\nabc\r\n0\r\n", ErrMalformedChunkTerminator},
	}
	for _, testCase := range testCases {
		_, err := decode([]byte(testCase.encoded), 16)
		if !errors.Is(err, testCase.expected) {
			t.Errorf("unexpected error for %q: %v", testCase.encoded, err)
		}
	}
}

// TestStackedOverChunked tests that a chunked reader can consume the output of
// another stream.
func TestStackedOverChunked(t *testing.T) {
	// Encode data twice.
	inner := encode(t, []byte("nested"), 4, 4)
	outer := encode(t, inner, 8, 8)

	// Decode through two stacked readers.
	outerReader, err := NewReader(bytes.NewReader(outer), &stream.Options{BufferSize: 3})
	if err != nil {
		t.Fatal("unable to create outer reader:", err)
	}
	innerReader, err := NewReader(outerReader, &stream.Options{BufferSize: 5})
	if err != nil {
		t.Fatal("unable to create inner reader:", err)
	}
	defer innerReader.Close()
	if decoded, err := innerReader.Drain(-1); err != nil {
		t.Fatal("unable to decode:", err)
	} else if string(decoded) != "nested" {
		t.Error("decoded data mismatch:", string(decoded))
	}
}
