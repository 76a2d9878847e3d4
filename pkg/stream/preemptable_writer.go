package stream

import (
	"context"
	"io"

	"github.com/pkg/errors"
)

var (
	// ErrWritePreempted indicates that a write operation was preempted.
	ErrWritePreempted = errors.New("write preempted")
)

// preemptableWriter is an io.Writer implementation that checks for preemption
// every N writes.
type preemptableWriter struct {
	// ctx is the context whose cancellation indicates preemption.
	ctx context.Context
	// writer is the underlying writer.
	writer io.Writer
	// checkInterval is the number of writes to allow between preemption checks.
	checkInterval uint
	// writeCount is the number of writes since the last preemption check.
	writeCount uint
}

// NewPreemptableWriter wraps an io.Writer and provides preemption capabilities
// for long copy operations. Once ctx is cancelled, writes fail with
// ErrWritePreempted. The interval specifies the maximum number of Write calls
// that should be processed between cancellation checks. If interval is 0, a
// cancellation check will be performed before every write.
func NewPreemptableWriter(ctx context.Context, writer io.Writer, interval uint) io.Writer {
	return &preemptableWriter{
		ctx:           ctx,
		writer:        writer,
		checkInterval: interval,
	}
}

// Write implements io.Writer.Write.
func (w *preemptableWriter) Write(data []byte) (int, error) {
	// Handle preemption checking.
	if w.writeCount == w.checkInterval {
		if w.ctx.Err() != nil {
			return 0, ErrWritePreempted
		}
		w.writeCount = 0
	} else {
		w.writeCount++
	}

	// Perform the write.
	return w.writer.Write(data)
}
