package parse

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"
	"github.com/rs/zerolog/log"

	"busboard.dev/timetable/model"
	"busboard.dev/timetable/storage"
)

type NonOperatingDayCSV struct {
	ScheduleID string `csv:"schedule_id"`
	Date       string `csv:"date"`
	Name       string `csv:"name"`
}

// Parses non_operating_days.csv, attaching each row to an already
// written schedule. Rows for unknown schedules are skipped.
func ParseNonOperatingDays(
	writer storage.FeedWriter,
	data io.Reader,
	schedules map[string]bool,
) (int, error) {

	dayCsv := []*NonOperatingDayCSV{}
	if err := gocsv.Unmarshal(data, &dayCsv); err != nil {
		return 0, fmt.Errorf("unmarshaling non_operating_days csv: %w", err)
	}

	knownScheduleDate := map[string]bool{}
	count := 0

	for i, d := range dayCsv {
		if _, err := model.ParseDate(d.Date); err != nil {
			return 0, fmt.Errorf("parsing date '%s' (row %d): %w", d.Date, i+1, err)
		}

		if !schedules[d.ScheduleID] {
			log.Warn().
				Str("schedule", d.ScheduleID).
				Str("date", d.Date).
				Msg("non-operating day references unknown schedule")
			continue
		}

		scheduleDate := fmt.Sprintf("%s-%s", d.Date, d.ScheduleID)
		if knownScheduleDate[scheduleDate] {
			return 0, fmt.Errorf("duplicate schedule/date: '%s'", scheduleDate)
		}
		knownScheduleDate[scheduleDate] = true

		err := writer.WriteNonOperatingDay(d.ScheduleID, &model.NonOperatingDay{
			Date: d.Date,
			Name: d.Name,
		})
		if err != nil {
			return 0, fmt.Errorf("writing non-operating day (row %d): %w", i+1, err)
		}
		count++
	}

	return count, nil
}
