package timetable

import (
	"fmt"
	"time"

	"busboard.dev/timetable/model"
	"busboard.dev/timetable/storage"
)

// Query context for a single timetable snapshot, as seen on a
// reference date. The schedule version in effect on that date
// decides which lines, directions and trips are visible.
//
// A Static is read-only once constructed and safe for concurrent
// use. Build a new one when the reference date moves to a day where
// another schedule version may apply.
type Static struct {
	Metadata      *storage.FeedMetadata
	Schedule      *model.Schedule
	ReferenceDate time.Time
	Location      *time.Location
	Calendar      *Calendar

	*Index
}

// Builds a query context for the schedule version in effect at when,
// as observed in location. Returns ErrNoActiveSchedule if every
// version in the feed is future dated.
func NewStatic(
	reader storage.FeedReader,
	metadata *storage.FeedMetadata,
	when time.Time,
	location *time.Location,
) (*Static, error) {
	if location == nil {
		location = time.Local
	}
	when = when.In(location)

	schedules, err := reader.Schedules()
	if err != nil {
		return nil, fmt.Errorf("reading schedules: %w", err)
	}

	schedule := CurrentSchedule(schedules, when)
	if schedule == nil {
		return nil, ErrNoActiveSchedule
	}

	index, err := NewIndex(reader, schedule.Lines)
	if err != nil {
		return nil, fmt.Errorf("indexing schedule %s: %w", schedule.ID, err)
	}

	return &Static{
		Metadata:      metadata,
		Schedule:      schedule,
		ReferenceDate: startOfDay(when),
		Location:      location,
		Calendar:      NewCalendar(schedule.NonOperatingDays),
		Index:         index,
	}, nil
}

// Service status of the date, per the active version's calendar.
func (s *Static) ServiceStatus(date time.Time) model.ServiceStatus {
	return s.Calendar.ServiceStatus(date.In(s.Location))
}

// The stop a platform belongs to, or "" if the platform is unknown.
func (s *Static) stopOfPlatform(platformID string) string {
	p, found := s.Platform(platformID)
	if !found {
		return ""
	}
	return p.ParentStop
}
