package parse

import (
	"fmt"
	"io"

	"github.com/rs/zerolog/log"

	"busboard.dev/timetable/model"
	"busboard.dev/timetable/storage"
)

// Parses schedule versions. Returns the set of schedule IDs along
// with the earliest and latest valid_from seen.
func ParseSchedules(
	writer storage.FeedWriter,
	data io.Reader,
	lines map[string]bool,
) (map[string]bool, string, string, error) {
	schedules, err := decodeArray[model.Schedule](data)
	if err != nil {
		return nil, "", "", err
	}

	scheduleIDs := map[string]bool{}
	var minDate, maxDate string
	for i, s := range schedules {
		if s.ID == "" {
			return nil, "", "", fmt.Errorf("empty id (record %d)", i)
		}
		if scheduleIDs[s.ID] {
			return nil, "", "", fmt.Errorf("repeated schedule id '%s'", s.ID)
		}
		scheduleIDs[s.ID] = true

		if _, err := model.ParseDate(s.ValidFrom); err != nil {
			return nil, "", "", fmt.Errorf("parsing valid_from '%s' of schedule '%s': %w", s.ValidFrom, s.ID, err)
		}
		if err := validateDates(nonOperatingDates(s)); err != nil {
			return nil, "", "", fmt.Errorf("non_operating_days of schedule '%s': %w", s.ID, err)
		}

		for _, lineID := range s.Lines {
			if !lines[lineID] {
				log.Warn().
					Str("schedule", s.ID).
					Str("line", lineID).
					Msg("schedule references unknown line")
			}
		}

		if s.Lines == nil {
			s.Lines = []string{}
		}

		if minDate == "" || s.ValidFrom < minDate {
			minDate = s.ValidFrom
		}
		if maxDate == "" || s.ValidFrom > maxDate {
			maxDate = s.ValidFrom
		}

		if err := writer.WriteSchedule(s); err != nil {
			return nil, "", "", fmt.Errorf("writing schedule '%s': %w", s.ID, err)
		}
	}

	return scheduleIDs, minDate, maxDate, nil
}

func nonOperatingDates(s *model.Schedule) []string {
	dates := make([]string, 0, len(s.NonOperatingDays))
	for _, d := range s.NonOperatingDays {
		dates = append(dates, d.Date)
	}
	return dates
}
