package timetable

import (
	"errors"
	"time"

	"busboard.dev/timetable/model"
)

// Returned when no schedule version is valid on the reference date.
// This means service is unknown, not that there is no service.
var ErrNoActiveSchedule = errors.New("no active schedule version")

// Selects the schedule version in effect on date: the greatest
// valid_from not after date, ties broken by greatest ID. Returns nil
// if every version is future dated.
func CurrentSchedule(schedules []*model.Schedule, date time.Time) *model.Schedule {
	today := date.Format(model.DateFormat)

	var current *model.Schedule
	for _, s := range schedules {
		if s.ValidFrom > today {
			continue
		}
		if current == nil ||
			s.ValidFrom > current.ValidFrom ||
			(s.ValidFrom == current.ValidFrom && s.ID > current.ID) {
			current = s
		}
	}
	return current
}
