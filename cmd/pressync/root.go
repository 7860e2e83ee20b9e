package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/pressync/internal/config"
)

// Version is set at build time via ldflags: -ldflags "-X main.Version=1.0.0"
var Version = "dev"

var (
	cfg        *config.Config
	configPath string
	siteFlag   string
)

var rootCmd = &cobra.Command{
	Use:   "pressync [csv-file]",
	Short: "Bulk-sync CSV content into a WordPress site",
	Long: `pressync reads post rows from a CSV file and creates or updates them on a
WordPress site over its REST API, resolving categories, tags, and featured
images along the way. Without arguments it prompts for the CSV path.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if configPath != "" {
			cfg, err = config.LoadFromFile(configPath)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return err
		}
		initLogger(cfg)
		return nil
	},
	// The bare invocation is create-mode sync.
	RunE: runSync,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to config file (default config/pressync.yaml, or PRESSYNC_CONFIG_PATH)")
	rootCmd.PersistentFlags().StringVar(&siteFlag, "site", "",
		"Named site from the config to sync against (default: default_site)")

	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(runsCmd)
}

// initLogger configures the process-wide slog handler from config.
func initLogger(cfg *config.Config) {
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Log.Level)}
	var handler slog.Handler
	if cfg.Log.Format == "text" {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
