package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/mutagen-io/bufstream/cmd"

	"github.com/mutagen-io/bufstream/pkg/digest"
	"github.com/mutagen-io/bufstream/pkg/must"
	"github.com/mutagen-io/bufstream/pkg/stream"
)

// discardOutput is a stream.WriteFlushCloser that discards all data.
type discardOutput struct{}

// Write implements io.Writer.Write.
func (discardOutput) Write(data []byte) (int, error) {
	return len(data), nil
}

// Flush implements stream.Flusher.Flush.
func (discardOutput) Flush() error {
	return nil
}

// Close implements io.Closer.Close.
func (discardOutput) Close() error {
	return nil
}

// ensureReportSafe ensures that a digest can be printed to report. Raw digests
// are binary data.
func ensureReportSafe(report *os.File, hex, force bool) error {
	if hex {
		return nil
	}
	return cmd.EnsureBinarySafe(report, force)
}

// digestMain is the entry point for the digest command.
func digestMain(_ *cobra.Command, _ []string) error {
	// Compute the algorithm.
	algorithm := settings.Algorithm()
	if digestConfiguration.algorithm != "" {
		a, err := digest.ParseAlgorithm(digestConfiguration.algorithm)
		if err != nil {
			return err
		}
		algorithm = a
	}

	// Open the input and wrap it in a digest stream, which takes ownership.
	input, err := openInput()
	if err != nil {
		return err
	}
	reader, err := digest.NewReader(input, algorithm, settings.StreamOptions(logger))
	if err != nil {
		input.Close()
		return errors.Wrap(err, "unable to create digest stream")
	}
	defer must.Close(reader, logger)

	// Determine where passed-through data goes and where the digest is
	// printed. The digest goes to standard output unless that's where data is
	// going.
	var output stream.WriteFlushCloser = discardOutput{}
	report := os.Stdout
	if digestConfiguration.passthrough {
		o, err := openOutput(false, false)
		if err != nil {
			return err
		}
		defer must.Close(o, logger)
		output = stream.NewCountingWriter(o)
		if isStandard(rootConfiguration.output) {
			report = os.Stderr
		}
	}
	if err := ensureReportSafe(report, digestConfiguration.hex, digestConfiguration.force); err != nil {
		return err
	}

	// Perform the transfer.
	copied, err := transfer(output, reader, 0)
	if err != nil {
		return errors.Wrap(err, "unable to digest data")
	} else if err = output.Close(); err != nil {
		return errors.Wrap(err, "unable to close output")
	}
	logger.Debugf("Digested %s using %s", humanize.Bytes(uint64(copied)), algorithm)

	// Print the digest.
	if digestConfiguration.hex {
		fmt.Fprintln(report, reader.HexSum())
	} else if _, err := report.Write(reader.Digest(false)); err != nil {
		return errors.Wrap(err, "unable to write digest")
	}

	// Success.
	return nil
}

// digestCommand is the digest command.
var digestCommand = &cobra.Command{
	Use:   "digest",
	Short: "Compute a digest of input",
	Args:  cmd.DisallowArguments,
	Run:   cmd.Mainify(withProfile(digestMain)),
}

// digestConfiguration stores configuration for the digest command.
var digestConfiguration struct {
	// help indicates whether or not to show help information and exit.
	help bool
	// algorithm is the digest algorithm name.
	algorithm string
	// hex indicates whether or not to print the digest in hexadecimal.
	hex bool
	// passthrough indicates whether or not input should be copied to output.
	passthrough bool
	// force indicates that a raw digest should be printed to a terminal.
	force bool
}

func init() {
	// Grab a handle for the command line flags.
	flags := digestCommand.Flags()

	// Disable alphabetical sorting of flags in help output.
	flags.SortFlags = false

	// Manually add a help flag to override the default message. Cobra will
	// still implement its logic automatically.
	flags.BoolVarP(&digestConfiguration.help, "help", "h", false, "Show help information")

	// Wire up digest flags.
	flags.StringVarP(&digestConfiguration.algorithm, "algorithm", "a", "", "Specify the digest algorithm (md5|sha1|sha256|sha512|sha3-256|sha3-512|blake2b-256|blake2b-512|blake3)")
	flags.BoolVarP(&digestConfiguration.hex, "hex", "x", true, "Print the digest in hexadecimal")
	flags.BoolVarP(&digestConfiguration.passthrough, "passthrough", "p", false, "Copy input to output while digesting")
	flags.BoolVar(&digestConfiguration.force, "force", false, "Print a raw digest to a terminal")
}
