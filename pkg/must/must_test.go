package must

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/pkg/errors"

	"github.com/mutagen-io/bufstream/pkg/logging"
)

func init() {
	// Disable colorization so that log output can be matched exactly.
	color.NoColor = true
}

// failer fails all operations.
type failer struct{}

// Close implements io.Closer.Close.
func (failer) Close() error {
	return errors.New("close failed")
}

// Finalize fails.
func (failer) Finalize() error {
	return errors.New("finalize failed")
}

// TestFailuresAreLogged tests that failures are logged as warnings.
func TestFailuresAreLogged(t *testing.T) {
	output := &bytes.Buffer{}
	logger := logging.NewLogger(logging.LevelWarn, output)
	Close(failer{}, logger)
	Finalize(failer{}, logger)
	if !strings.Contains(output.String(), "Warning: unable to close: close failed") {
		t.Error("close failure not logged:", output.String())
	}
	if !strings.Contains(output.String(), "Warning: unable to finalize: finalize failed") {
		t.Error("finalize failure not logged:", output.String())
	}
}

// TestNilLogger tests that failures with a nil logger are silently dropped.
func TestNilLogger(t *testing.T) {
	Close(failer{}, nil)
	Finalize(failer{}, nil)
}
