package main

import (
	"math"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/mutagen-io/bufstream/cmd"

	"github.com/mutagen-io/bufstream/pkg/compression"
	"github.com/mutagen-io/bufstream/pkg/configuration"
	"github.com/mutagen-io/bufstream/pkg/must"
	"github.com/mutagen-io/bufstream/pkg/stream"
)

// compressionFlags are the flags shared by the compress and decompress
// commands.
type compressionFlags struct {
	// help indicates whether or not to show help information and exit.
	help bool
	// format is the compression format name.
	format string
	// windowBits is a zlib-style window bits selector, used instead of format
	// if non-zero.
	windowBits int
}

// resolveFormat computes the effective compression format.
func (f *compressionFlags) resolveFormat() (compression.Format, error) {
	if f.windowBits != 0 {
		if f.format != "" {
			return 0, errors.New("--format and --window-bits are mutually exclusive")
		}
		return compression.FormatFromWindowBits(f.windowBits)
	} else if f.format != "" {
		return compression.ParseFormat(f.format)
	}
	return settings.Format(), nil
}

// register registers the shared flags with a command's flag set.
func (f *compressionFlags) register(flags *pflag.FlagSet) {
	flags.SortFlags = false
	flags.BoolVarP(&f.help, "help", "h", false, "Show help information")
	flags.StringVarP(&f.format, "format", "f", "", "Specify the compression format (deflate|zlib|gzip|zstd|lz4)")
	flags.IntVarP(&f.windowBits, "window-bits", "w", 0, "Select a DEFLATE format using zlib window bits (-15, 15, or 31)")
}

// syncInterval converts a synchronization interval to a transfer interval.
func syncInterval(size configuration.ByteSize) (int64, error) {
	if size > math.MaxInt64 {
		return 0, errors.Errorf("synchronization interval too large: %d", size)
	}
	return int64(size), nil
}

// compressMain is the entry point for the compress command.
func compressMain(command *cobra.Command, _ []string) error {
	// Compute settings.
	format, err := compressConfiguration.resolveFormat()
	if err != nil {
		return err
	}
	options := settings.CompressionOptions(logger)
	if command.Flags().Changed("level") {
		options.Level = compressConfiguration.level
	}
	interval, err := syncInterval(compressConfiguration.syncEvery)
	if err != nil {
		return err
	}

	// Open the input.
	input, err := openInput()
	if err != nil {
		return err
	}
	defer must.Close(input, logger)

	// Open the output and wrap it in a compression stream, which takes
	// ownership.
	output, err := openOutput(true, compressConfiguration.force)
	if err != nil {
		return err
	}
	counter := stream.NewCountingWriter(output)
	writer, err := compression.NewWriter(counter, format, options)
	if err != nil {
		output.Close()
		return errors.Wrap(err, "unable to create compression stream")
	}
	defer must.Close(writer, logger)

	// Perform the transfer and finish the compressed stream.
	copied, err := transfer(writer, input, interval)
	if err != nil {
		return errors.Wrap(err, "unable to compress data")
	} else if err = writer.Close(); err != nil {
		return errors.Wrap(err, "unable to finish compressed stream")
	}
	logger.Infof("Compressed %s into %s (%s)",
		humanize.Bytes(uint64(copied)), humanize.Bytes(counter.Count()), format,
	)

	// Success.
	return nil
}

// compressCommand is the compress command.
var compressCommand = &cobra.Command{
	Use:   "compress",
	Short: "Compress input",
	Args:  cmd.DisallowArguments,
	Run:   cmd.Mainify(withProfile(compressMain)),
}

// compressConfiguration stores configuration for the compress command.
var compressConfiguration struct {
	compressionFlags
	// level is the compression level.
	level int
	// syncEvery is the number of input bytes after which a synchronization
	// flush is issued.
	syncEvery configuration.ByteSize
	// force indicates that compressed output should be written to a terminal.
	force bool
}

// decompressMain is the entry point for the decompress command.
func decompressMain(command *cobra.Command, _ []string) error {
	// Compute settings.
	format, err := decompressConfiguration.resolveFormat()
	if err != nil {
		return err
	}
	options := settings.CompressionOptions(logger)
	if command.Flags().Changed("chunk-size") {
		options.ChunkSize = int(decompressConfiguration.chunkSize)
	}

	// Open the input and wrap it in a decompression stream.
	input, err := openInput()
	if err != nil {
		return err
	}
	defer must.Close(input, logger)
	counter := stream.NewCountingReader(input)
	reader, err := compression.NewReader(counter, format, options)
	if err != nil {
		return errors.Wrap(err, "unable to create decompression stream")
	}
	defer must.Close(reader, logger)

	// Open the output.
	output, err := openOutput(false, false)
	if err != nil {
		return err
	}
	defer must.Close(output, logger)

	// Perform the transfer.
	copied, err := transfer(stream.NewCountingWriter(output), reader, 0)
	if err != nil {
		return errors.Wrap(err, "unable to decompress data")
	} else if err = output.Close(); err != nil {
		return errors.Wrap(err, "unable to close output")
	}
	logger.Infof("Decompressed %s into %s (%s)",
		humanize.Bytes(counter.Count()), humanize.Bytes(uint64(copied)), format,
	)

	// Success.
	return nil
}

// decompressCommand is the decompress command.
var decompressCommand = &cobra.Command{
	Use:   "decompress",
	Short: "Decompress input",
	Args:  cmd.DisallowArguments,
	Run:   cmd.Mainify(withProfile(decompressMain)),
}

// decompressConfiguration stores configuration for the decompress command.
var decompressConfiguration struct {
	compressionFlags
	// chunkSize overrides the maximum size of each compressed input read.
	chunkSize configuration.ByteSize
}

func init() {
	// Configure the compress command's flags.
	flags := compressCommand.Flags()
	compressConfiguration.register(flags)
	flags.IntVarP(&compressConfiguration.level, "level", "L", 0, "Specify the compression level (1-9)")
	flags.Var(byteSizeValue{&compressConfiguration.syncEvery}, "sync-every", "Issue a synchronization flush after every N input bytes")
	flags.BoolVar(&compressConfiguration.force, "force", false, "Write compressed output to a terminal")

	// Configure the decompress command's flags.
	flags = decompressCommand.Flags()
	decompressConfiguration.register(flags)
	flags.Var(byteSizeValue{&decompressConfiguration.chunkSize}, "chunk-size", "Specify the maximum size of each compressed input read")
}
