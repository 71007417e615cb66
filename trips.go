package timetable

import (
	"sort"
	"time"

	"busboard.dev/timetable/model"
)

// Reports whether a trip is scheduled on a concrete date.
//
// daysExclude takes precedence over daysInclude, which in turn
// overrides the day group. A trip without a day group but with
// explicit inclusions runs on those dates only; a trip with neither
// runs every day.
//
// Non-operating calendar days are not considered here, see
// Calendar.IsOperating.
func TripRunsOn(trip *model.Trip, date time.Time) bool {
	day := date.Format(model.DateFormat)

	for _, d := range trip.DaysExclude {
		if d == day {
			return false
		}
	}
	for _, d := range trip.DaysInclude {
		if d == day {
			return true
		}
	}

	if trip.DaysGroup == model.DayTypeNone {
		return len(trip.DaysInclude) == 0
	}
	return trip.DaysGroup == model.DayTypeOf(date)
}

// Trips of a direction running on date, ordered by first departure.
// Empty on non-operating days.
func (s *Static) TripsOnDate(directionID string, date time.Time) []*model.Trip {
	date = date.In(s.Location)
	trips := []*model.Trip{}
	if !s.Calendar.IsOperating(date) {
		return trips
	}
	for _, t := range s.AllTripsForDirection(directionID) {
		if TripRunsOn(t, date) {
			trips = append(trips, t)
		}
	}
	return trips
}

// Finds a trip by its human facing name among the trips of a
// direction and day type.
func (s *Static) TripByName(directionID string, name string, dayType model.DayType) (*model.Trip, bool) {
	for _, t := range s.TripsForDirection(directionID, dayType) {
		if t.Name == name {
			return t, true
		}
	}
	return nil, false
}

// Finds the first trip of the direction departing the stop at the
// given HH:MM time.
func (s *Static) TripByStopAndTime(directionID string, stopID string, clock string, dayType model.DayType) (*model.Trip, bool) {
	for _, t := range s.TripsForDirection(directionID, dayType) {
		for _, stage := range t.Stages {
			if stage.Time == clock && s.stopOfPlatform(stage.Platform) == stopID {
				return t, true
			}
		}
	}
	return nil, false
}

// Active lines with at least one trip running on date, in feed
// order.
func (s *Static) OperatingLines(date time.Time) []*model.Line {
	lines := []*model.Line{}
	for _, l := range s.Lines() {
		for _, d := range s.DirectionsForLine(l.ID) {
			if len(s.TripsOnDate(d.ID, date)) > 0 {
				lines = append(lines, l)
				break
			}
		}
	}
	return lines
}

// All HH:MM times at which trips of the direction call at the stop,
// sorted. A loop trip calling twice contributes both times.
func (s *Static) TimesForStopInDirection(stopID string, directionID string, dayType model.DayType) []string {
	times := []string{}
	for _, t := range s.TripsForDirection(directionID, dayType) {
		times = append(times, s.AllTimesForStopOnTrip(t, stopID)...)
	}
	sort.Strings(times)
	return times
}

// Times at which the trip calls at the stop, in stage order.
func (s *Static) AllTimesForStopOnTrip(trip *model.Trip, stopID string) []string {
	times := []string{}
	for _, stage := range trip.Stages {
		if s.stopOfPlatform(stage.Platform) == stopID {
			times = append(times, stage.Time)
		}
	}
	return times
}
