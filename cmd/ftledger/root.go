package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"TransferSentinel/internal/collector"
	"TransferSentinel/internal/config"
	"TransferSentinel/internal/logging"
)

var configPath string

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config YAML (default $CONFIG_PATH or configs/config.yaml)")
}

var rootCmd = &cobra.Command{
	Use:   "ftledger",
	Short: "Track Fantasy Premier League free transfers",
	Long: `ftledger replays a manager's season gameweek by gameweek and reports how
many free transfers they will have for the next gameweek.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// app is everything a command needs after startup.
type app struct {
	cfg    *config.Config
	log    *zap.Logger
	source collector.Source
	close  func() error
}

func (a *app) Close() {
	if a.close != nil {
		if err := a.close(); err != nil {
			a.log.Warn("close source", zap.Error(err))
		}
	}
	_ = a.log.Sync()
}

func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return "configs/config.yaml"
}

func setup() (*app, error) {
	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}

	src, closer, err := openSource(cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}
	logger.Debug("data source ready", zap.String("source", src.Name()))

	return &app{cfg: cfg, log: logger, source: src, close: closer}, nil
}

// openSource builds the configured source behind the event cache.
func openSource(cfg *config.Config, logger *zap.Logger) (collector.Source, func() error, error) {
	var (
		src    collector.Source
		closer func() error
	)
	switch cfg.Source.Kind {
	case config.SourceSQLite:
		s, err := collector.NewSQLiteSource(cfg.Source.SQLitePath, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("init sqlite source: %w", err)
		}
		src, closer = s, s.Close
	default:
		src = collector.NewPayloadSource(cfg.Source.PayloadDir)
	}
	return collector.NewEventCache(src, cfg.Source.EventCacheTTL, nil), closer, nil
}

func parseEntryID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid entry id %q", arg)
	}
	return id, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
