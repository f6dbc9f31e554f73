package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/scrimsight/go-scrim-metrics/internal/config"
	"github.com/scrimsight/go-scrim-metrics/internal/engine"
	"github.com/scrimsight/go-scrim-metrics/internal/logstore"
	"github.com/scrimsight/go-scrim-metrics/internal/storage"
	"github.com/scrimsight/go-scrim-metrics/internal/translate"
)

var (
	cfgPath  string
	dbPath   string
	logDir   string
	logLevel string

	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "scrimmetrics",
	Short: "Scrim match log processing engine",
	Long:  "Process raw scrim telemetry logs into per-round and per-match statistics, kill feeds and MVP rankings.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup()
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "path to SQLite database (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logDir, "log-dir", "", "directory holding raw match logs (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")

	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
}

// setup loads the config, applies flag overrides and installs the logger.
func setup() error {
	var err error
	if cfgPath != "" {
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return err
		}
	} else {
		cfg = config.Default()
	}
	if dbPath != "" {
		cfg.Database.Path = dbPath
	}
	if logDir != "" {
		cfg.Logs.Dir = logDir
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	logger = slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level: parseLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)
	return nil
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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

// openEngine opens the database and assembles the processing engine.
// The caller owns the returned DB handle.
func openEngine() (*storage.DB, *engine.Engine, error) {
	db, err := storage.Open(cfg.Database.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("open storage: %w", err)
	}

	tables, err := translate.Load()
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("load translation tables: %w", err)
	}

	return db, engine.New(db, newStore(), tables, logger), nil
}

// newStore picks the log store backend the config selects.
func newStore() logstore.Store {
	if cfg.Logs.BaseURL != "" {
		return logstore.NewHTTPStore(cfg.Logs.BaseURL, cfg.Logs.APIKey)
	}
	return logstore.NewDirStore(cfg.Logs.Dir)
}
