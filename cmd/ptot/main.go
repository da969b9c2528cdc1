package main

import (
	"fmt"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/provide-io/ptot/pkg/logging"
	"github.com/provide-io/ptot/pkg/ptot/convert"
	perrors "github.com/provide-io/ptot/pkg/ptot/errors"
	"github.com/provide-io/ptot/pkg/ptot/inflate"
	"github.com/provide-io/ptot/pkg/utils/permissions"
	"github.com/spf13/cobra"
)

const version = "0.3.0"

var (
	outputPath  string
	format      string
	logLevel    string
	scratchMode string
	scratchDir  string
	inflater    string
	byteOrder   string
	outputMode  string
	checkOnly   bool
	versionFlag bool
	rootCmd     *cobra.Command
)

func getBuildTimestamp() string {
	// Try to get vcs.time from build info
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.time" {
				if t, err := time.Parse(time.RFC3339, setting.Value); err == nil {
					return t.UTC().Format(time.RFC3339)
				}
			}
		}
	}
	// Fallback to binary modification time
	if exePath, err := os.Executable(); err == nil {
		if stat, err := os.Stat(exePath); err == nil {
			return stat.ModTime().UTC().Format(time.RFC3339)
		}
	}
	return time.Now().UTC().Format(time.RFC3339)
}

func printVersion() {
	fmt.Printf("ptot %s\n", version)
	fmt.Printf("Built: %s\n", getBuildTimestamp())
}

func init() {
	rootCmd = &cobra.Command{
		Use:           "ptot [flags] <input[.png]>",
		Short:         "Convert PNG images to TIFF",
		Long:          `Convert a PNG image to an uncompressed baseline TIFF (or a PPM), keeping its metadata.`,
		Args:          cobra.MaximumNArgs(1),
		RunE:          run,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	defaults := convert.OptionsFromEnv()

	rootCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output path (defaults to the input with a .tif or .ppm extension)")
	rootCmd.Flags().StringVarP(&format, "format", "f", defaults.Format, "Output format (tiff, ppm)")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
	rootCmd.Flags().StringVar(&scratchMode, "scratch", defaults.Scratch, "Scratch storage (file, memory, zstd)")
	rootCmd.Flags().StringVar(&scratchDir, "scratch-dir", defaults.ScratchDir, "Directory for scratch files")
	rootCmd.Flags().StringVar(&inflater, "inflater", defaults.Inflater, "Decompressor ("+strings.Join(inflate.Names(), ", ")+")")
	rootCmd.Flags().StringVar(&byteOrder, "byte-order", defaults.ByteOrder, "TIFF byte order (host, little, big)")
	rootCmd.Flags().StringVar(&outputMode, "mode", permissions.FormatOctal(defaults.OutputMode), "Permissions of a newly created output file (octal)")
	rootCmd.Flags().BoolVar(&checkOnly, "check", false, "Decode and report problems without writing output")
	rootCmd.Flags().BoolVarP(&versionFlag, "version", "V", false, "Show version information")
}

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "PANIC: %v\n", r)
			debug.PrintStack()
			os.Exit(perrors.ExitPanic)
		}
	}()

	// Handle --version or -V before cobra parses other flags
	if len(os.Args) > 1 && (os.Args[1] == "--version" || os.Args[1] == "-V") {
		printVersion()
		os.Exit(perrors.ExitSuccess)
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("ptot: %v", err))
		os.Exit(perrors.ExitCode(err))
	}
}

func run(cmd *cobra.Command, args []string) error {
	if versionFlag {
		printVersion()
		return nil
	}
	if len(args) == 0 {
		return fmt.Errorf("%w: missing input file", perrors.ErrInvalidOption)
	}

	if logLevel == "" {
		logLevel = logging.GetLogLevel()
	}
	logger := logging.NewLogger("ptot", logLevel, logging.GetLogOutput())

	mode, err := permissions.ParseOctalString(outputMode)
	if err != nil {
		return fmt.Errorf("%w: %v", perrors.ErrInvalidOption, err)
	}

	opts := convert.OptionsFromEnv()
	opts.Format = strings.ToLower(format)
	opts.Scratch = strings.ToLower(scratchMode)
	opts.ScratchDir = scratchDir
	opts.Inflater = inflater
	opts.ByteOrder = byteOrder
	opts.OutputMode = mode
	opts.Logger = logger

	conv, err := convert.New(opts)
	if err != nil {
		return err
	}

	input := convert.InputPath(args[0])

	if checkOnly {
		f, err := os.Open(input)
		if err != nil {
			return fmt.Errorf("%w: %v", perrors.ErrRead, err)
		}
		defer f.Close()

		res, err := conv.Check(f)
		if err != nil {
			return err
		}
		summarize(input, "", res)
		return nil
	}

	output := outputPath
	if output == "" {
		output = convert.OutputPath(input, opts.Format)
	}

	res, err := conv.ConvertFile(input, output)
	if err != nil {
		return err
	}
	summarize(input, output, res)
	return nil
}

func summarize(input, output string, res *convert.Result) {
	target := "checked"
	if output != "" {
		target = "→ " + output
	}
	line := fmt.Sprintf("%s %s (%dx%d, %d-bit, %d warning(s))",
		input, target, res.Width, res.Height, res.BitDepth, len(res.Warnings))

	if len(res.Warnings) == 0 {
		fmt.Fprintln(os.Stderr, color.GreenString("✅ %s", line))
		return
	}
	fmt.Fprintln(os.Stderr, color.YellowString("⚠️  %s", line))
}
