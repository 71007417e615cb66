package main

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"busboard.dev/timetable/migrate"
	"busboard.dev/timetable/parse"
	"busboard.dev/timetable/storage"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate <legacy_dir> <out_dir>",
	Short: "Converts legacy schedules.json and shapes.json into the relational files",
	Args:  cobra.ExactArgs(2),
	RunE:  runMigrate,
}

var (
	scheduleID        string
	validFrom         string
	directionSuffixes []string
)

func init() {
	migrateCmd.Flags().StringVarP(&scheduleID, "schedule-id", "", migrate.DefaultScheduleID, "ID of the schedule version produced")
	migrateCmd.Flags().StringVarP(&validFrom, "valid-from", "", migrate.DefaultValidFrom, "valid_from of the schedule version produced")
	migrateCmd.Flags().StringSliceVarP(
		&directionSuffixes,
		"direction-suffix",
		"",
		[]string{},
		"Direction ID suffix as <legacy direction id>=<suffix>",
	)
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	suffixes := map[string]string{}
	for _, s := range directionSuffixes {
		key, value, found := strings.Cut(s, "=")
		if !found {
			return fmt.Errorf("'%s' is not on form <key>=<value>", s)
		}
		suffixes[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}

	schedules, shapes, err := migrate.ReadLegacy(args[0])
	if err != nil {
		return err
	}

	result, err := migrate.Migrate(schedules, shapes, migrate.Options{
		ScheduleID:        scheduleID,
		ValidFrom:         validFrom,
		DirectionSuffixes: suffixes,
	})
	if err != nil {
		return err
	}

	if err := result.WriteDataset(args[1]); err != nil {
		return err
	}

	// Verify the output parses
	writer, err := storage.NewMemoryStorage().GetWriter("migrated")
	if err != nil {
		return err
	}
	if _, err := parse.ParseDir(writer, args[1]); err != nil {
		return fmt.Errorf("migrated data does not parse: %w", err)
	}

	log.Info().
		Str("out", args[1]).
		Int("skipped_stages", result.SkippedStages).
		Int("skipped_segments", result.SkippedSegments).
		Int("platform_fallbacks", result.PlatformFallbacks).
		Msg("migration written")
	return nil
}
