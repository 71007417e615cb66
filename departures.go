package timetable

import (
	"fmt"
	"math"
	"sort"
	"time"

	"busboard.dev/timetable/model"
)

// Whole minutes from now until the HH:MM clock time on now's date,
// rounded down. Negative once the time has passed. Times are never
// carried over to the next day.
func MinutesUntil(clock string, now time.Time) (int, error) {
	offset, err := model.ParseClock(clock)
	if err != nil {
		return 0, err
	}
	h := int(offset / time.Hour)
	m := int((offset % time.Hour) / time.Minute)
	target := time.Date(now.Year(), now.Month(), now.Day(), h, m, 0, 0, now.Location())
	return int(math.Floor(target.Sub(now).Minutes())), nil
}

// Upcoming departures from a stop, across all active lines, soonest
// first. Ties are ordered by line, direction and platform.
//
// Returns an empty list if now falls on a non-operating day. A trip
// is considered only if it runs on now's date, see TripRunsOn.
//
// If limit is >0, at most limit departures are returned.
func (s *Static) NextDepartures(stopID string, limit int, now time.Time) ([]model.Departure, error) {
	return s.departures(stopID, s.Directions(), limit, now)
}

// Like NextDepartures, restricted to a single direction.
func (s *Static) NextDeparturesForDirection(stopID string, directionID string, limit int, now time.Time) ([]model.Departure, error) {
	d, found := s.Direction(directionID)
	if !found {
		return []model.Departure{}, nil
	}
	return s.departures(stopID, []*model.Direction{d}, limit, now)
}

func (s *Static) departures(stopID string, directions []*model.Direction, limit int, now time.Time) ([]model.Departure, error) {
	now = now.In(s.Location)

	departures := []model.Departure{}
	if !s.ServiceStatus(now).IsOperating {
		return departures, nil
	}

	for _, d := range directions {
		line, found := s.Line(d.ParentLine)
		if !found {
			continue
		}
		for _, t := range s.TripsOnDate(d.ID, now) {
			for _, stage := range t.Stages {
				if s.stopOfPlatform(stage.Platform) != stopID {
					continue
				}
				minutes, err := MinutesUntil(stage.Time, now)
				if err != nil {
					return nil, fmt.Errorf("trip %s: %w", t.ID, err)
				}
				if minutes < 0 {
					continue
				}
				departures = append(departures, model.Departure{
					LineID:          line.ID,
					LineName:        line.Name,
					LineColor:       line.Color,
					DirectionID:     d.ID,
					DestinationName: d.Name,
					PlatformID:      stage.Platform,
					TripID:          t.ID,
					Time:            stage.Time,
					MinutesUntil:    minutes,
				})
			}
		}
	}

	sort.SliceStable(departures, func(i, j int) bool {
		a, b := departures[i], departures[j]
		if a.MinutesUntil != b.MinutesUntil {
			return a.MinutesUntil < b.MinutesUntil
		}
		if a.LineID != b.LineID {
			return a.LineID < b.LineID
		}
		if a.DirectionID != b.DirectionID {
			return a.DirectionID < b.DirectionID
		}
		return a.PlatformID < b.PlatformID
	})

	if limit > 0 && len(departures) > limit {
		departures = departures[:limit]
	}
	return departures, nil
}
