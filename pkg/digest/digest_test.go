package digest

import (
	"bytes"
	"io"
	"testing"

	"github.com/pkg/errors"

	"github.com/mutagen-io/bufstream/pkg/chunked"
	"github.com/mutagen-io/bufstream/pkg/stream"
)

// emptyDigests are the hexadecimal digests of empty input for a selection of
// algorithms.
var emptyDigests = map[Algorithm]string{
	AlgorithmMD5:    "d41d8cd98f00b204e9800998ecf8427e",
	AlgorithmSHA1:   "da39a3ee5e6b4b0d3255bfef95601890afd80709",
	AlgorithmSHA256: "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
	AlgorithmBLAKE3: "af1349b9f5f9a1a6a0404dea36dcc9499bcb25c9adc112b7cc9a93cae41f3262",
}

// countingReader is an io.Reader that records the number of reads performed.
type countingReader struct {
	// reader is the underlying reader.
	reader io.Reader
	// reads is the number of reads performed.
	reads int
}

// Read implements io.Reader.Read.
func (r *countingReader) Read(buffer []byte) (int, error) {
	r.reads++
	return r.reader.Read(buffer)
}

// TestParseAlgorithm tests algorithm name parsing.
func TestParseAlgorithm(t *testing.T) {
	for _, algorithm := range Algorithms() {
		if parsed, err := ParseAlgorithm(algorithm.String()); err != nil {
			t.Error("unable to parse algorithm name", algorithm, ":", err)
		} else if parsed != algorithm {
			t.Error("algorithm mismatch:", parsed, "!=", algorithm)
		}
	}
	if _, err := ParseAlgorithm("crc32"); !errors.Is(err, ErrUnknownAlgorithm) {
		t.Error("unexpected error for unknown algorithm:", err)
	}
}

// TestUnknownAlgorithm tests that streams can't be created with an unknown
// algorithm.
func TestUnknownAlgorithm(t *testing.T) {
	if _, err := NewWriter(&bytes.Buffer{}, Algorithm(0), nil); !errors.Is(err, ErrUnknownAlgorithm) {
		t.Error("unexpected error for unknown writer algorithm:", err)
	}
	if _, err := NewReader(&bytes.Buffer{}, Algorithm(200), nil); !errors.Is(err, ErrUnknownAlgorithm) {
		t.Error("unexpected error for unknown reader algorithm:", err)
	}
}

// TestEmptyDigests tests the digests of empty streams, before and after close.
func TestEmptyDigests(t *testing.T) {
	for algorithm, expected := range emptyDigests {
		writer, err := NewWriter(&bytes.Buffer{}, algorithm, nil)
		if err != nil {
			t.Fatal("unable to create writer:", err)
		}
		if digest := string(writer.Digest(true)); digest != expected {
			t.Error("empty digest mismatch for", algorithm, ":", digest, "!=", expected)
		}
		if err := writer.Close(); err != nil {
			t.Fatal("unable to close writer:", err)
		}
		if digest := writer.HexSum(); digest != expected {
			t.Error("empty digest mismatch after close for", algorithm, ":", digest)
		}
	}
}

// TestDigestSizes tests that raw digests have the expected length and that the
// hexadecimal form is their encoding.
func TestDigestSizes(t *testing.T) {
	sizes := map[Algorithm]int{
		AlgorithmMD5:        16,
		AlgorithmSHA1:       20,
		AlgorithmSHA256:     32,
		AlgorithmSHA512:     64,
		AlgorithmSHA3_256:   32,
		AlgorithmSHA3_512:   64,
		AlgorithmBLAKE2b256: 32,
		AlgorithmBLAKE2b512: 64,
		AlgorithmBLAKE3:     32,
	}
	for algorithm, size := range sizes {
		writer, err := NewWriter(&bytes.Buffer{}, algorithm, nil)
		if err != nil {
			t.Fatal("unable to create writer:", err)
		}
		if raw := writer.Digest(false); len(raw) != size {
			t.Error("raw digest length mismatch for", algorithm, ":", len(raw), "!=", size)
		}
		if hexadecimal := writer.Digest(true); len(hexadecimal) != 2*size {
			t.Error("hex digest length mismatch for", algorithm, ":", len(hexadecimal))
		}
		writer.Close()
	}
}

// TestWritePassThrough tests that write-mode streams pass data through
// unmodified and that the digest is independent of write granularity.
func TestWritePassThrough(t *testing.T) {
	data := []byte("The quick brown fox jumps over the lazy dog")

	// Write all at once.
	whole := &bytes.Buffer{}
	writer, err := NewWriter(whole, AlgorithmMD5, &stream.Options{BufferSize: 8})
	if err != nil {
		t.Fatal("unable to create writer:", err)
	}
	if _, err := writer.Write(data); err != nil {
		t.Fatal("unable to write:", err)
	} else if err = writer.Close(); err != nil {
		t.Fatal("unable to close writer:", err)
	}
	if !bytes.Equal(whole.Bytes(), data) {
		t.Error("pass-through data mismatch")
	}
	if digest := writer.HexSum(); digest != "9e107d9d372bb6826bd81d3542a419d6" {
		t.Error("digest mismatch:", digest)
	}

	// Write one byte at a time.
	pieces := &bytes.Buffer{}
	piecewise, err := NewWriter(pieces, AlgorithmMD5, &stream.Options{BufferSize: 3})
	if err != nil {
		t.Fatal("unable to create writer:", err)
	}
	for _, b := range data {
		if _, err := piecewise.Write([]byte{b}); err != nil {
			t.Fatal("unable to write:", err)
		}
	}
	if err := piecewise.Close(); err != nil {
		t.Fatal("unable to close writer:", err)
	}
	if !bytes.Equal(pieces.Bytes(), data) {
		t.Error("piecewise pass-through data mismatch")
	}
	if !bytes.Equal(piecewise.Sum(), writer.Sum()) {
		t.Error("digest depends on write granularity")
	}
}

// TestDigestSnapshot tests that taking a digest doesn't disturb accumulation
// and that pending output isn't covered until it reaches the destination.
func TestDigestSnapshot(t *testing.T) {
	writer, err := NewWriter(&bytes.Buffer{}, AlgorithmSHA256, &stream.Options{BufferSize: 64})
	if err != nil {
		t.Fatal("unable to create writer:", err)
	}
	defer writer.Close()

	// Pending data isn't yet covered.
	if _, err := writer.Write([]byte("abc")); err != nil {
		t.Fatal("unable to write:", err)
	}
	if digest := writer.HexSum(); digest != emptyDigests[AlgorithmSHA256] {
		t.Error("pending data included in digest:", digest)
	}

	// Flushed data is covered, and repeated snapshots agree.
	if err := writer.Flush(); err != nil {
		t.Fatal("unable to flush:", err)
	}
	expected := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	for i := 0; i < 3; i++ {
		if digest := string(writer.Digest(true)); digest != expected {
			t.Error("digest mismatch on snapshot", i, ":", digest)
		}
	}
}

// TestReadPassThrough tests that read-mode streams pass data through
// unmodified and digest the bytes read from the source.
func TestReadPassThrough(t *testing.T) {
	data := []byte("The quick brown fox jumps over the lazy dog")
	reader, err := NewReader(bytes.NewReader(data), AlgorithmMD5, &stream.Options{BufferSize: 5})
	if err != nil {
		t.Fatal("unable to create reader:", err)
	}
	defer reader.Close()
	result, err := reader.Drain(-1)
	if err != nil {
		t.Fatal("unable to read:", err)
	} else if !bytes.Equal(result, data) {
		t.Error("pass-through data mismatch")
	}
	if digest := reader.HexSum(); digest != "9e107d9d372bb6826bd81d3542a419d6" {
		t.Error("digest mismatch:", digest)
	}
}

// TestShortReadTermination tests that a short transport read ends the stream
// without a further read of the source.
func TestShortReadTermination(t *testing.T) {
	source := &countingReader{reader: bytes.NewReader([]byte("0123456789"))}
	reader, err := NewReader(source, AlgorithmMD5, &stream.Options{BufferSize: 8})
	if err != nil {
		t.Fatal("unable to create reader:", err)
	}
	defer reader.Close()
	result, err := reader.Drain(-1)
	if err != nil {
		t.Fatal("unable to read:", err)
	} else if string(result) != "0123456789" {
		t.Error("data mismatch:", string(result))
	}
	reads := source.reads
	if n, err := reader.Read(make([]byte, 4)); n != 0 || err != io.EOF {
		t.Error("unexpected result after end of stream:", n, err)
	} else if source.reads != reads {
		t.Error("source read after end of stream")
	}
}

// TestStackedOverChunked tests digesting the framed output of a chunked stream
// by stacking streams.
func TestStackedOverChunked(t *testing.T) {
	// Create a digest stream over a buffer and a chunked stream over that.
	output := &bytes.Buffer{}
	digester, err := NewWriter(output, AlgorithmSHA1, &stream.Options{BufferSize: 4})
	if err != nil {
		t.Fatal("unable to create digest writer:", err)
	}
	framer, err := chunked.NewWriter(digester, &stream.Options{BufferSize: 4})
	if err != nil {
		t.Fatal("unable to create chunked writer:", err)
	}

	// Write through the stack. Closing the outer stream closes the inner one.
	if _, err := framer.Write([]byte("hello, world")); err != nil {
		t.Fatal("unable to write:", err)
	} else if err = framer.Close(); err != nil {
		t.Fatal("unable to close chunked writer:", err)
	}

	// Verify the digest against an independent digest of the framed bytes.
	independent, err := NewWriter(&bytes.Buffer{}, AlgorithmSHA1, nil)
	if err != nil {
		t.Fatal("unable to create writer:", err)
	}
	if _, err := independent.Write(output.Bytes()); err != nil {
		t.Fatal("unable to write:", err)
	} else if err = independent.Close(); err != nil {
		t.Fatal("unable to close writer:", err)
	}
	if digester.HexSum() != independent.HexSum() {
		t.Error("stacked digest mismatch")
	}
	if !bytes.HasSuffix(output.Bytes(), []byte("0\r\n\r\n")) {
		t.Errorf("framed output missing terminal chunk: %q", output.Bytes())
	}
}
