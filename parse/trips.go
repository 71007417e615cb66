package parse

import (
	"fmt"
	"io"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"busboard.dev/timetable/model"
	"busboard.dev/timetable/storage"
)

func validateDates(dates []string) error {
	for _, d := range dates {
		if _, err := model.ParseDate(d); err != nil {
			return fmt.Errorf("invalid date '%s'", d)
		}
	}
	return nil
}

// Parses trips. Clock times, day groups and override dates must be
// well formed. Unknown directions and platforms, as well as stages
// out of chronological order, are logged but kept.
func ParseTrips(
	writer storage.FeedWriter,
	data io.Reader,
	directions map[string]bool,
	platforms map[string]bool,
) (map[string]bool, error) {
	trips, err := decodeArray[model.Trip](data)
	if err != nil {
		return nil, err
	}

	tripIDs := map[string]bool{}
	for i, t := range trips {
		if t.ID == "" {
			return nil, fmt.Errorf("empty id (record %d)", i)
		}
		if tripIDs[t.ID] {
			return nil, fmt.Errorf("repeated trip id '%s'", t.ID)
		}
		tripIDs[t.ID] = true

		if t.DaysGroup != model.DayTypeNone && !t.DaysGroup.Valid() {
			return nil, fmt.Errorf("invalid daysGroup '%s' for trip '%s'", t.DaysGroup, t.ID)
		}
		if err := validateDates(t.DaysInclude); err != nil {
			return nil, errors.Wrapf(err, "daysInclude of trip '%s'", t.ID)
		}
		if err := validateDates(t.DaysExclude); err != nil {
			return nil, errors.Wrapf(err, "daysExclude of trip '%s'", t.ID)
		}

		if !directions[t.ParentDirection] {
			log.Warn().
				Str("trip", t.ID).
				Str("direction", t.ParentDirection).
				Msg("trip references unknown direction")
		}

		var prev time.Duration = -1
		for j, stage := range t.Stages {
			offset, err := model.ParseClock(stage.Time)
			if err != nil {
				return nil, errors.Wrapf(err, "parsing time of trip '%s' (stage %d)", t.ID, j)
			}
			if offset <= prev {
				log.Warn().
					Str("trip", t.ID).
					Int("stage", j).
					Str("time", stage.Time).
					Msg("stage times not strictly increasing")
			}
			prev = offset

			if !platforms[stage.Platform] {
				log.Warn().
					Str("trip", t.ID).
					Str("platform", stage.Platform).
					Msg("stage references unknown platform")
			}
		}

		if err := writer.WriteTrip(t); err != nil {
			return nil, errors.Wrapf(err, "writing trip '%s'", t.ID)
		}
	}

	return tripIDs, nil
}
