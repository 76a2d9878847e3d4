package main

import (
	"bufio"
	"context"
	"io"
	"os"
	"os/signal"

	"github.com/pkg/errors"

	"github.com/mutagen-io/bufstream/cmd"

	"github.com/mutagen-io/bufstream/pkg/stream"
)

const (
	// transferPreemptionInterval is the number of writes allowed between
	// checks for a termination signal during a transfer.
	transferPreemptionInterval = 8
	// inputBufferSize is the size of the read-ahead buffer placed in front of
	// inputs to framing decoders, which perform byte-wise header reads.
	inputBufferSize = 32 * 1024
)

// outputFile is an opened output. It may be closed more than once, and closing it
// never closes the process' standard output.
type outputFile struct {
	io.Writer
	// closer is the underlying closer, if any.
	closer io.Closer
	// closed indicates whether or not the output has been closed.
	closed bool
}

// Close implements io.Closer.Close.
func (o *outputFile) Close() error {
	if o.closed || o.closer == nil {
		return nil
	}
	o.closed = true
	return o.closer.Close()
}

// isStandard returns whether or not a path selects a standard stream.
func isStandard(path string) bool {
	return path == "" || path == "-"
}

// openInput opens the configured input.
func openInput() (io.ReadCloser, error) {
	if isStandard(rootConfiguration.input) {
		return io.NopCloser(os.Stdin), nil
	}
	file, err := os.Open(rootConfiguration.input)
	if err != nil {
		return nil, errors.Wrap(err, "unable to open input")
	}
	return file, nil
}

// openBufferedInput opens the configured input behind a read-ahead buffer.
// The returned reader satisfies stream.DualModeReader, and closing the returned
// closer closes the input.
func openBufferedInput() (stream.DualModeReader, *stream.CountingReader, io.Closer, error) {
	input, err := openInput()
	if err != nil {
		return nil, nil, nil, err
	}
	counter := stream.NewCountingReader(input)
	return bufio.NewReaderSize(counter, inputBufferSize), counter, input, nil
}

// openOutput opens the configured output. If binary is true and the output is
// a terminal, then the open fails unless force is true.
func openOutput(binary, force bool) (io.WriteCloser, error) {
	if isStandard(rootConfiguration.output) {
		if binary {
			if err := cmd.EnsureBinarySafe(os.Stdout, force); err != nil {
				return nil, err
			}
		}
		return &outputFile{Writer: os.Stdout}, nil
	}
	file, err := os.Create(rootConfiguration.output)
	if err != nil {
		return nil, errors.Wrap(err, "unable to create output")
	}
	return &outputFile{Writer: file, closer: file}, nil
}

// transfer copies source to destination, stopping early if a termination
// signal is received. If syncInterval is positive, destination is flushed
// after each syncInterval bytes. It returns the number of bytes copied.
func transfer(destination stream.WriteFlushCloser, source io.Reader, syncInterval int64) (int64, error) {
	// Set up preemption on termination signals.
	ctx, cancel := signal.NotifyContext(context.Background(), cmd.TerminationSignals...)
	defer cancel()
	preemptable := stream.NewPreemptableWriter(ctx, destination, transferPreemptionInterval)

	// Handle unsynchronized transfers.
	if syncInterval <= 0 {
		copied, err := io.Copy(preemptable, source)
		return copied, transferError(err)
	}

	// Perform a synchronized transfer.
	var total int64
	for {
		copied, err := io.CopyN(preemptable, source, syncInterval)
		total += copied
		if err == io.EOF {
			return total, nil
		} else if err != nil {
			return total, transferError(err)
		}
		if err := destination.Flush(); err != nil {
			return total, errors.Wrap(err, "unable to synchronize output")
		}
		logger.Debugf("synchronized output after %d bytes", total)
	}
}

// transferError converts preemption errors to cancellation errors.
func transferError(err error) error {
	if errors.Is(err, stream.ErrWritePreempted) {
		return errors.New("transfer cancelled")
	}
	return err
}
