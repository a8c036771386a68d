package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/philipparndt/arview/internal/platform/config"
	"github.com/philipparndt/arview/internal/platform/logger"
	"github.com/philipparndt/arview/version"
	"github.com/spf13/cobra"
)

var (
	envFile   string
	logLevel  string
	logFormat string
	webRoot   string
)

var rootCmd = &cobra.Command{
	Use:   "arview",
	Short: "3D model viewer with an orbit preview and AR placement",
	Long: `arview serves a model viewer page, decides how AR is launched on each
device and hosts a desktop preview with a simulated AR session.`,
	Version:       version.GetVersion(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "dotenv file to load before reading ARVIEW_* variables")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (text, json)")
	rootCmd.PersistentFlags().StringVar(&webRoot, "web-root", "", "directory the page and assets are served from")
}

// loadConfig reads the environment and applies the persistent flag overrides
func loadConfig(cmd *cobra.Command) config.Viewer {
	// a missing .env is fine
	_ = config.Load(envFile)
	cfg := config.FromEnv()

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = logFormat
	}
	if flags.Changed("web-root") {
		cfg.WebRoot = webRoot
	}
	return cfg
}

func newLogger(cfg config.Viewer) *slog.Logger {
	return logger.New(cfg.LogLevel, cfg.LogFormat)
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
