package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"busboard.dev/timetable"
	"busboard.dev/timetable/config"
	"busboard.dev/timetable/downloader"
	"busboard.dev/timetable/internal/logging"
	"busboard.dev/timetable/metrics"
	"busboard.dev/timetable/model"
	"busboard.dev/timetable/storage"
)

var rootCmd = &cobra.Command{
	Use:               "timetable",
	Short:             "Bus timetable tool",
	Long:              "Queries departures, timetables and routes from a timetable snapshot",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

var (
	configPath  string
	dataSource  string
	storageKind string
	atFlag      string

	cfg       *config.Config
	collector *metrics.Collector
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to YAML config file")
	rootCmd.PersistentFlags().StringVarP(&dataSource, "data", "", "", "Directory, zip archive or URL of the timetable snapshot")
	rootCmd.PersistentFlags().StringVarP(&storageKind, "storage", "", "", "Storage backend: memory, sqlite or postgres")
	rootCmd.PersistentFlags().StringVarP(&atFlag, "at", "", "", "Reference time as 'YYYY-MM-DD HH:MM' (default now)")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setup(cmd *cobra.Command, args []string) error {
	if storageKind != "" {
		os.Setenv("TIMETABLE_STORAGE", storageKind)
	}

	var err error
	cfg, err = config.Load(configPath)
	if err != nil {
		return err
	}
	if dataSource != "" {
		cfg.Data = dataSource
	}

	if err := logging.Setup(cfg.LogFormat, cfg.LogLevel); err != nil {
		return err
	}

	if cfg.MetricsAddr != "" {
		collector = metrics.New()
		collector.Serve(cfg.MetricsAddr)
	}

	return nil
}

// The reference time, from --at or the clock, in the timetable's
// location.
func now() (time.Time, error) {
	if atFlag == "" {
		return time.Now().In(cfg.Location), nil
	}
	t, err := time.ParseInLocation("2006-01-02 15:04", atFlag, cfg.Location)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --at: %w", err)
	}
	return t, nil
}

func openStorage() (storage.Storage, error) {
	switch cfg.Storage {
	case "sqlite":
		return storage.NewSQLiteStorage(storage.SQLiteConfig{OnDisk: true, Directory: cfg.SQLiteDir})
	case "postgres":
		return storage.NewPSQLStorage(cfg.PostgresDSN, false)
	}
	return storage.NewMemoryStorage(), nil
}

// Loads the configured snapshot and builds a query context for when.
func loadStatic(ctx context.Context, when time.Time) (*timetable.Static, error) {
	if cfg.Data == "" {
		return nil, fmt.Errorf("no timetable data configured, use --data or TIMETABLE_DATA")
	}

	s, err := openStorage()
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}

	manager := timetable.NewManager(s)
	manager.Location = cfg.Location
	manager.Metrics = collector

	if cfg.Storage != "memory" {
		cache, err := downloader.NewFilesystem(".timetable-cache")
		if err != nil {
			return nil, fmt.Errorf("creating download cache: %w", err)
		}
		manager.Downloader = cache
		manager.CacheTTL = time.Hour
	}

	static, err := manager.LoadStatic(ctx, cfg.Data, when)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("schedule", static.Schedule.ID).
		Str("valid_from", static.Schedule.ValidFrom).
		Int("lines", len(static.Lines())).
		Msg("timetable loaded")

	return static, nil
}

func parseDayType(s string, when time.Time) (model.DayType, error) {
	if s == "" {
		return model.DayTypeOf(when), nil
	}
	dayType := model.DayType(s)
	if !dayType.Valid() {
		return "", fmt.Errorf("day type must be weekday or weekend, got '%s'", s)
	}
	return dayType, nil
}
