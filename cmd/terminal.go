package cmd

import (
	"os"

	"github.com/pkg/errors"

	isatty "github.com/mattn/go-isatty"
)

// IsTerminal returns whether or not the specified file is a terminal, including
// mintty-based terminals on Windows.
func IsTerminal(file *os.File) bool {
	descriptor := file.Fd()
	return isatty.IsTerminal(descriptor) || isatty.IsCygwinTerminal(descriptor)
}

// EnsureBinarySafe ensures that binary data can be written to the specified
// file, which is not the case for terminals unless force is specified.
func EnsureBinarySafe(file *os.File, force bool) error {
	if !force && IsTerminal(file) {
		return errors.New("refusing to write binary data to a terminal (use --force to override)")
	}
	return nil
}
