package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/querysync/internal/config"
	"github.com/vango-dev/querysync/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// globalFlags are the persistent flags of the root command.
type globalFlags struct {
	configPath string
	logLevel   string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		errors.Print(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "querysync",
		Short: "Keep observable properties in sync with URL query parameters",
		Long: `querysync binds observable properties to URL query parameters.

Property changes are encoded into the URL, batched into one navigation
per loop turn, and URL changes are decoded back into the properties.

Commands in this tool exercise the value codec and run the library
catalog demo against an in-memory router.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(cmd.ErrOrStderr(), flags.logLevel)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Path to querysync.json (default: search the working directory)")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn, error (default from querysync.json)")

	rootCmd.AddCommand(
		encodeCmd(),
		decodeCmd(),
		demoCmd(flags),
		configCmd(flags),
		versionCmd(),
	)
	return rootCmd
}

// setupLogging installs a text handler on stderr as the default logger.
// An empty level keeps warnings and errors only until the config is read.
func setupLogging(w io.Writer, level string) error {
	lvl := slog.LevelWarn
	if level != "" {
		parsed, err := config.ParseLevel(level)
		if err != nil {
			return err
		}
		lvl = parsed
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})))
	return nil
}

// loadConfig reads the config named by --config, or searches for one.
func loadConfig(flags *globalFlags) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if flags.configPath != "" {
		cfg, err = config.LoadFile(flags.configPath)
	} else {
		cfg, err = config.LoadFromWorkingDir()
	}
	if err != nil {
		return nil, err
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  %s\n", fmt.Sprintf(format, args...))
}
