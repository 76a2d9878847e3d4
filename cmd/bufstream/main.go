package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/mutagen-io/bufstream/cmd"
	"github.com/mutagen-io/bufstream/cmd/profile"

	"github.com/mutagen-io/bufstream/pkg/bufstream"
	"github.com/mutagen-io/bufstream/pkg/configuration"
	"github.com/mutagen-io/bufstream/pkg/logging"
	"github.com/mutagen-io/bufstream/pkg/must"
)

// rootCommand is the root command.
var rootCommand = &cobra.Command{
	Use:               "bufstream",
	Version:           bufstream.Version,
	Short:             "Chunk, compress, and digest byte streams",
	PersistentPreRunE: rootPreRun,
	SilenceUsage:      true,
}

// rootConfiguration stores configuration for the root command.
var rootConfiguration struct {
	// help indicates whether or not to show help information and exit.
	help bool
	// input is the input path. An empty path or "-" selects standard input.
	input string
	// output is the output path. An empty path or "-" selects standard output.
	output string
	// bufferSize overrides the configured stream buffer size.
	bufferSize configuration.ByteSize
	// configurationPath is the configuration file path. If empty, the default
	// per-user configuration path is used.
	configurationPath string
	// environmentFile is the path of a dotenv file with environment overrides.
	environmentFile string
	// logLevel overrides the configured log level.
	logLevel string
	// profile is the name of a CPU and heap profile to record.
	profile string
}

// byteSizeValue adapts configuration.ByteSize to pflag.Value so that sizes
// can be specified in human-friendly form.
type byteSizeValue struct {
	*configuration.ByteSize
}

// String implements pflag.Value.String.
func (v byteSizeValue) String() string {
	if v.ByteSize == nil || *v.ByteSize == 0 {
		return ""
	}
	text, _ := v.ByteSize.MarshalText()
	return string(text)
}

// Set implements pflag.Value.Set.
func (v byteSizeValue) Set(text string) error {
	return v.ByteSize.UnmarshalText([]byte(text))
}

// Type implements pflag.Value.Type.
func (v byteSizeValue) Type() string {
	return "size"
}

var (
	// settings is the effective configuration, loaded before any subcommand
	// runs.
	settings *configuration.Configuration
	// logger is the command logger.
	logger *logging.Logger
)

// rootPreRun loads the effective configuration and sets up logging. Settings
// are resolved from defaults, the configuration file, the environment, and
// then command line flags, in order of increasing precedence.
func rootPreRun(command *cobra.Command, _ []string) error {
	// Compute the configuration path.
	path := rootConfiguration.configurationPath
	if path == "" {
		if p, err := configuration.DefaultConfigurationPath(); err != nil {
			cmd.Warning(err.Error())
		} else {
			path = p
		}
	}

	// Load the configuration.
	loaded, err := configuration.Load(path, rootConfiguration.environmentFile)
	if err != nil {
		return err
	}

	// Apply flag overrides and revalidate.
	flags := command.Flags()
	if flags.Changed("buffer-size") {
		loaded.BufferSize = rootConfiguration.bufferSize
	}
	if flags.Changed("log-level") {
		loaded.LogLevel = rootConfiguration.logLevel
	}
	if err := loaded.EnsureValid(); err != nil {
		return err
	}
	settings = loaded

	// Create the logger. Debugging via the environment always wins.
	level := settings.Level()
	if bufstream.DebugEnabled && level < logging.LevelDebug {
		level = logging.LevelDebug
	}
	logger = logging.NewLogger(level, os.Stderr)
	logger.Debugf("loaded configuration (buffer size %d, chunk size %d)",
		settings.BufferSize, settings.ChunkSize,
	)

	// Success.
	return nil
}

// withProfile wraps an entry point so that it's profiled if requested.
func withProfile(entry func(*cobra.Command, []string) error) func(*cobra.Command, []string) error {
	return func(command *cobra.Command, arguments []string) error {
		if rootConfiguration.profile != "" {
			p, err := profile.New(rootConfiguration.profile)
			if err != nil {
				return err
			}
			defer must.Finalize(p, logger)
		}
		return entry(command, arguments)
	}
}

func init() {
	// Disable Cobra's command sorting behavior. By default, it sorts commands
	// alphabetically in the help output.
	cobra.EnableCommandSorting = false

	// Disable Cobra's use of mousetrap. Double-clicking a stream filter is
	// never useful.
	cobra.MousetrapHelpText = ""

	// Set the template used by the version flag.
	rootCommand.SetVersionTemplate("bufstream version {{ .Version }}\n")

	// Grab a handle for the command line flags.
	flags := rootCommand.Flags()

	// Disable alphabetical sorting of flags in help output.
	flags.SortFlags = false

	// Manually add a help flag to override the default message. Cobra will
	// still implement its logic automatically.
	flags.BoolVarP(&rootConfiguration.help, "help", "h", false, "Show help information")

	// Wire up persistent flags.
	persistentFlags := rootCommand.PersistentFlags()
	persistentFlags.SortFlags = false
	persistentFlags.StringVarP(&rootConfiguration.input, "input", "i", "", "Specify the input path (defaults to standard input)")
	persistentFlags.StringVarP(&rootConfiguration.output, "output", "o", "", "Specify the output path (defaults to standard output)")
	persistentFlags.VarP(byteSizeValue{&rootConfiguration.bufferSize}, "buffer-size", "b", "Specify the stream buffer size")
	persistentFlags.StringVarP(&rootConfiguration.configurationPath, "config", "c", "", "Specify the configuration file path")
	persistentFlags.StringVar(&rootConfiguration.environmentFile, "env-file", "", "Specify a dotenv file with environment overrides")
	persistentFlags.StringVarP(&rootConfiguration.logLevel, "log-level", "l", "", "Set the log level (disabled|error|warn|info|debug|trace)")
	persistentFlags.StringVar(&rootConfiguration.profile, "profile", "", "Record CPU and heap profiles with the specified name prefix")
	persistentFlags.MarkHidden("profile")

	// Register commands. We do this here (rather than in individual init
	// functions) so that we can control the order.
	rootCommand.AddCommand(
		chunkCommand,
		dechunkCommand,
		compressCommand,
		decompressCommand,
		digestCommand,
		versionCommand,
	)
}

func main() {
	// Execute the root command.
	if err := rootCommand.Execute(); err != nil {
		os.Exit(1)
	}
}
