package main

import (
	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/mutagen-io/bufstream/cmd"

	"github.com/mutagen-io/bufstream/pkg/chunked"
	"github.com/mutagen-io/bufstream/pkg/must"
	"github.com/mutagen-io/bufstream/pkg/stream"
)

// chunkMain is the entry point for the chunk command.
func chunkMain(_ *cobra.Command, _ []string) error {
	// Open the input.
	input, err := openInput()
	if err != nil {
		return err
	}
	defer must.Close(input, logger)

	// Open the output and wrap it in a chunked stream, which takes ownership.
	output, err := openOutput(false, false)
	if err != nil {
		return err
	}
	counter := stream.NewCountingWriter(output)
	writer, err := chunked.NewWriter(counter, settings.StreamOptions(logger))
	if err != nil {
		output.Close()
		return errors.Wrap(err, "unable to create chunked stream")
	}
	defer must.Close(writer, logger)

	// Perform the transfer and emit the terminal chunk.
	copied, err := transfer(writer, input, chunkConfiguration.flushEvery)
	if err != nil {
		return errors.Wrap(err, "unable to chunk data")
	} else if err = writer.Close(); err != nil {
		return errors.Wrap(err, "unable to finish chunked stream")
	}
	logger.Infof("Chunked %s into %s", humanize.Bytes(uint64(copied)), humanize.Bytes(counter.Count()))

	// Success.
	return nil
}

// chunkCommand is the chunk command.
var chunkCommand = &cobra.Command{
	Use:   "chunk",
	Short: "Encode input using HTTP/1.1 chunked transfer coding",
	Args:  cmd.DisallowArguments,
	Run:   cmd.Mainify(withProfile(chunkMain)),
}

// chunkConfiguration stores configuration for the chunk command.
var chunkConfiguration struct {
	// help indicates whether or not to show help information and exit.
	help bool
	// flushEvery is the number of input bytes after which the stream is
	// flushed, which ends the current chunk early.
	flushEvery int64
}

// dechunkMain is the entry point for the dechunk command.
func dechunkMain(_ *cobra.Command, _ []string) error {
	// Open the input and wrap it in a chunked stream.
	input, counter, closer, err := openBufferedInput()
	if err != nil {
		return err
	}
	defer must.Close(closer, logger)
	reader, err := chunked.NewReader(input, settings.StreamOptions(logger))
	if err != nil {
		return errors.Wrap(err, "unable to create chunked stream")
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
		return errors.Wrap(err, "unable to dechunk data")
	} else if err = output.Close(); err != nil {
		return errors.Wrap(err, "unable to close output")
	}
	logger.Infof("Dechunked %s into %s", humanize.Bytes(counter.Count()), humanize.Bytes(uint64(copied)))

	// Success.
	return nil
}

// dechunkCommand is the dechunk command.
var dechunkCommand = &cobra.Command{
	Use:   "dechunk",
	Short: "Decode input encoded with HTTP/1.1 chunked transfer coding",
	Args:  cmd.DisallowArguments,
	Run:   cmd.Mainify(withProfile(dechunkMain)),
}

// dechunkConfiguration stores configuration for the dechunk command.
var dechunkConfiguration struct {
	// help indicates whether or not to show help information and exit.
	help bool
}

func init() {
	// Configure the chunk command's flags.
	flags := chunkCommand.Flags()
	flags.SortFlags = false
	flags.BoolVarP(&chunkConfiguration.help, "help", "h", false, "Show help information")
	flags.Int64Var(&chunkConfiguration.flushEvery, "flush-every", 0, "Flush (ending the current chunk) after every N input bytes")

	// Configure the dechunk command's flags.
	flags = dechunkCommand.Flags()
	flags.SortFlags = false
	flags.BoolVarP(&dechunkConfiguration.help, "help", "h", false, "Show help information")
}
