package logging

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/fatih/color"

	"github.com/mutagen-io/bufstream/pkg/bufstream"
)

// Logger is the main logger type. It has the novel property that it still
// functions if nil, but it doesn't log anything. Loggers derived from the same
// root share an underlying standard library logger, so it is safe for
// concurrent usage.
type Logger struct {
	// level is the maximum level that the logger will emit.
	level Level
	// prefix is any prefix specified for the logger.
	prefix string
	// output is the underlying logger.
	output *log.Logger
}

// NewLogger creates a new root logger that writes lines at or below the
// specified level to destination.
func NewLogger(level Level, destination io.Writer) *Logger {
	return &Logger{
		level:  level,
		output: log.New(destination, "", log.LstdFlags),
	}
}

// RootLogger is the root logger from which all other loggers derive. It writes
// to standard error at the info level, or the debug level if BUFSTREAM_DEBUG
// is set.
var RootLogger *Logger

func init() {
	level := LevelInfo
	if bufstream.DebugEnabled {
		level = LevelDebug
	}
	RootLogger = NewLogger(level, os.Stderr)
}

// Sublogger creates a new sublogger with the specified name.
func (l *Logger) Sublogger(name string) *Logger {
	// If the logger is nil, then the sublogger will be as well.
	if l == nil {
		return nil
	}

	// Compute the new prefix.
	prefix := name
	if l.prefix != "" {
		prefix = l.prefix + "." + name
	}

	// Create the new logger.
	return &Logger{
		level:  l.level,
		prefix: prefix,
		output: l.output,
	}
}

// Level returns the logger's level. A nil logger is disabled.
func (l *Logger) Level() Level {
	if l == nil {
		return LevelDisabled
	}
	return l.level
}

// Enabled returns whether or not messages at the specified level are emitted.
func (l *Logger) Enabled(level Level) bool {
	return l != nil && level != LevelDisabled && level <= l.level
}

// emit is the internal logging method.
func (l *Logger) emit(calldepth int, line string) {
	// Add a prefix if necessary.
	if l.prefix != "" {
		line = fmt.Sprintf("[%s] %s", l.prefix, line)
	}

	// Log.
	l.output.Output(calldepth, line)
}

// Error logs error information with an error prefix and red color.
func (l *Logger) Error(err error) {
	if l.Enabled(LevelError) {
		l.emit(3, color.RedString("Error: %v", err))
	}
}

// Warn logs error information with a warning prefix and yellow color.
func (l *Logger) Warn(err error) {
	if l.Enabled(LevelWarn) {
		l.emit(3, color.YellowString("Warning: %v", err))
	}
}

// Infof logs information with semantics equivalent to fmt.Printf.
func (l *Logger) Infof(format string, v ...interface{}) {
	if l.Enabled(LevelInfo) {
		l.emit(3, fmt.Sprintf(format, v...))
	}
}

// Debug logs information with semantics equivalent to fmt.Print, but only if
// the logger is at the debug level or above.
func (l *Logger) Debug(v ...interface{}) {
	if l.Enabled(LevelDebug) {
		l.emit(3, fmt.Sprint(v...))
	}
}

// Debugf logs information with semantics equivalent to fmt.Printf, but only if
// the logger is at the debug level or above.
func (l *Logger) Debugf(format string, v ...interface{}) {
	if l.Enabled(LevelDebug) {
		l.emit(3, fmt.Sprintf(format, v...))
	}
}

// Tracef logs information with semantics equivalent to fmt.Printf, but only if
// the logger is at the trace level.
func (l *Logger) Tracef(format string, v ...interface{}) {
	if l.Enabled(LevelTrace) {
		l.emit(3, fmt.Sprintf(format, v...))
	}
}
