// Package cli wires the timelane commands together.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/timelane/timelane/internal/config"
)

var (
	cfgFile    string
	noColor    bool
	jsonOutput bool
	verbose    bool

	// Build information, set by the release pipeline via ldflags.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "timelane",
	Short: "Browse a folder of files along a timeline",
	Long: `Timelane indexes a folder, stores file metadata in a local catalog,
and lets you seek through the files chronologically.

Quick Start:
  timelane serve --root ~/Pictures     # Index and serve the catalog
  timelane browse                      # Open the timeline UI
  timelane index --root ~/Pictures     # One-shot scan without serving`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor || os.Getenv("TIMELANE_NO_COLOR") != "" {
			lipgloss.SetColorProfile(termenv.Ascii)
		}
		setupLogging()
	},
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		if !jsonOutput {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		return err
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path (default "+config.DefaultPath()+")")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "machine-readable JSON output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(
		newServeCmd(),
		newBrowseCmd(),
		newIndexCmd(),
		newVersionCmd(),
	)
}

func setupLogging() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

// loadConfig reads the config file (or defaults) and applies flag overrides.
func loadConfig(overrides func(*config.Config)) (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if overrides != nil {
		overrides(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
