package main

import (
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/provide-io/pwakit/pkg/logging"
)

const version = "0.1.0"

var (
	logLevel     string
	settingsPath string
	versionFlag  bool
	rootCmd      *cobra.Command

	// logOutput holds the prefix writer of the command logger, if any
	logOutput *logging.PrefixWriter
)

func getBuilderTimestamp() string {
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
	fmt.Printf("pwakit %s\n", version)
	fmt.Printf("Built: %s\n", getBuilderTimestamp())
}

func newLogger() hclog.Logger {
	logger, pw := logging.NewLoggerWithWriter("pwakit", logging.ResolveLevel(logLevel), nil)
	logOutput = pw
	return logger
}

// exit flushes pending log output, which os.Exit would otherwise drop.
func exit(code int) {
	_ = logOutput.Flush()
	os.Exit(code)
}

func init() {
	rootCmd = &cobra.Command{
		Use:   "pwakit",
		Short: "Generate the asset bundle of a minimal progressive web app",
		Long: `pwakit turns one source image and a few text fields into a zip archive
with icons, favicon.ico, manifest.json, index.html and service worker scripts.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if versionFlag {
				printVersion()
				return nil
			}
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&settingsPath, "settings", "", "Settings file (defaults to $PWAKIT_SETTINGS or the user config directory)")
	rootCmd.Flags().BoolVarP(&versionFlag, "version", "V", false, "Show version information")
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", errInvalidArgs, err)
	})

	rootCmd.AddCommand(
		newGenerateCmd(),
		newInspectCmd(),
		newWatchCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Show version information",
			Run:   func(*cobra.Command, []string) { printVersion() },
		},
	)
}

func main() {
	// Set up panic recovery to return specific exit code
	defer func() {
		if r := recover(); r != nil {
			_ = logOutput.Flush()
			fmt.Fprintf(os.Stderr, "PANIC: %v\n", r)
			debug.PrintStack()
			os.Exit(ExitPanic)
		}
	}()

	// Handle --version or -V before cobra parses other flags
	if len(os.Args) > 1 && (os.Args[1] == "--version" || os.Args[1] == "-V") {
		printVersion()
		os.Exit(ExitSuccess)
	}

	if err := rootCmd.Execute(); err != nil {
		_ = logOutput.Flush()
		fmt.Fprintln(os.Stderr, err)
		exit(exitCode(err))
	}
	exit(ExitSuccess)
}
