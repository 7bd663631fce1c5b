package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ardnew/softnic/config"
	"github.com/ardnew/softnic/pkg"
)

// Component identifier for CLI logging.
const componentCLI pkg.Component = "cli"

var (
	// Global flags
	cfgFile    string
	verbose    bool
	jsonLog    bool
	socketPath string

	// Shared state set during PersistentPreRun
	cfg *config.Config
)

// rootCmd is the base command for softnic.
var rootCmd = &cobra.Command{
	Use:   "softnic",
	Short: "Software network interface driver bridging an Ethernet controller to a shared-memory ring",
	Long: `softnic moves frames received by an Ethernet controller into a
fixed-slot ring in shared memory for a network stack to consume, and sends
the frames that stack places in its transmit region.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path := cfgFile
		if path == "" {
			path = config.DefaultPath()
		}
		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		// Override config with flags
		if socketPath != "" {
			cfg.Socket = socketPath
		}
		if verbose {
			cfg.Log.Level = "debug"
		}
		if jsonLog {
			cfg.Log.Format = "json"
		}

		return setupLogging(cfg.Log)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default "+config.DefaultPath()+")")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose (debug) logging")
	rootCmd.PersistentFlags().BoolVar(&jsonLog, "json", false, "use JSON log format")
	rootCmd.PersistentFlags().StringVar(&socketPath, "socket", "", "control socket path")
}

func setupLogging(lc config.LogConfig) error {
	level, err := pkg.ParseLogLevel(lc.Level)
	if err != nil {
		return fmt.Errorf("log level %q: %w", lc.Level, err)
	}
	format, ok := pkg.ParseLogFormat(lc.Format)
	if !ok {
		return fmt.Errorf("log format %q: %w", lc.Format, pkg.ErrInvalidParameter)
	}

	pkg.SetLogLevel(level)
	pkg.SetLogFormat(format)
	pkg.LogDebug(componentCLI, "logging configured", "level", level.String(), "format", lc.Format)
	return nil
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		pkg.LogError(componentCLI, "command failed", "error", err)
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// levelOf is used by commands that print at a level-dependent detail.
func levelOf() slog.Level {
	return pkg.GetLogLevel()
}
