package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/micro-nova/nowplaying/internal/config"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Global flags
var (
	flagSettings  string
	flagEnvFiles  []string
	flagConfigDir string
	flagLogLevel  string
	flagLogFormat string
	flagMock      bool
	flagJSON      bool
)

// settings holds the loaded settings (merged: defaults < file < env < flags).
var settings *config.Settings

var rootCmd = &cobra.Command{
	Use:   "nowplaying",
	Short: "Follow what your media players are playing",
	Long: `nowplaying watches the MPRIS media players on the D-Bus session bus,
binds the one you are listening to and serves its track, status, volume
and album art over a small HTTP API.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadSettings,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagSettings, "settings", "", "settings file (default: "+config.DefaultSettingsPath()+")")
	pf.StringSliceVar(&flagEnvFiles, "env-file", []string{".env"}, "env files read for NOWPLAYING_* variables")
	pf.StringVar(&flagConfigDir, "config-dir", "", "player config directory (default: "+config.DefaultConfigDir()+")")
	pf.StringVar(&flagLogLevel, "log-level", "", "log level: debug | info | warn | error")
	pf.StringVar(&flagLogFormat, "log-format", "", "log format: text | json")
	pf.BoolVar(&flagMock, "mock", false, "use simulated players instead of the session bus")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(playersCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadSettings loads and merges settings, then installs the logger.
func loadSettings(cmd *cobra.Command, args []string) error {
	var err error
	settings, err = config.LoadSettings(flagSettings, flagEnvFiles...)
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}

	// CLI flags override file and environment values
	if flagConfigDir != "" {
		settings.ConfigDir = flagConfigDir
	}
	if flagLogLevel != "" {
		settings.LogLevel = flagLogLevel
	}
	if flagLogFormat != "" {
		settings.LogFormat = flagLogFormat
	}
	if cmd.Flags().Changed("addr") {
		settings.Addr = flagAddr
	}
	if cmd.Flags().Changed("zeroconf") {
		settings.Zeroconf = flagZeroconf
	}
	if cmd.Flags().Changed("api-key") {
		settings.APIKey = flagAPIKey
	}

	// Re-validate after flag overrides
	if err := settings.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	slog.SetDefault(newLogger(settings.LogLevel, settings.LogFormat))
	return nil
}

// newLogger returns a structured logger writing to stderr.
func newLogger(level, format string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}

	var h slog.Handler
	if strings.ToLower(format) == "json" {
		h = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		h = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(h)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "nowplaying", Version)
	},
}
