package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"photoorganizer/internal/config"
	"photoorganizer/internal/logging"
)

var (
	cfgPath   string
	dbPath    string
	workers   int
	logLevel  string
	logFormat string

	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "photoorganizer",
	Short: "Deduplicate and organize a photo collection",
	Long: `photoorganizer copies a folder of photos into a date-partitioned library.

Byte-identical copies are detected by content hash and verified before they
are merged. Visually identical images (same difference hash) are merged too,
keeping the earliest capture. Every duplicate is copied into a flat
duplicates folder for review; source files are never modified.

Example usage:
  photoorganizer organize -i ./inbox -o ./library -d ./duplicates
  photoorganizer list                   # Review groups of the last run
  photoorganizer history                # Past runs and their counters
  photoorganizer config init            # Write a sample config file`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "Path to config file (default ~/.config/photoorganizer/config.toml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to SQLite database (overrides config)")
	rootCmd.PersistentFlags().IntVar(&workers, "workers", 0, "Number of parallel workers (0 = config or CPU count)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: console or json")
}

// loadConfig resolves the config file and applies flag overrides before
// any subcommand runs.
func loadConfig(cmd *cobra.Command, args []string) error {
	loaded, _, _, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	if dbPath != "" {
		if loaded.Paths.Database, err = config.ExpandPath(dbPath); err != nil {
			return fmt.Errorf("--db: %w", err)
		}
	}
	if workers > 0 {
		loaded.Organize.Workers = workers
	}
	if logLevel != "" {
		loaded.Logging.Level = logLevel
	}
	if logFormat != "" {
		loaded.Logging.Format = logFormat
	}
	if err := loaded.Validate(); err != nil {
		return err
	}

	l, err := logging.NewFromConfig(loaded)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	cfg = loaded
	logger = l
	return nil
}
