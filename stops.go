package timetable

import (
	"sort"

	"github.com/rs/zerolog/log"

	"busboard.dev/timetable/model"
	"busboard.dev/timetable/storage"
)

// Reports whether any trip of the direction and day type calls at
// the stop.
func (s *Static) IsStopServedBy(stopID string, directionID string, dayType model.DayType) bool {
	for _, t := range s.TripsForDirection(directionID, dayType) {
		for _, stage := range t.Stages {
			if s.stopOfPlatform(stage.Platform) == stopID {
				return true
			}
		}
	}
	return false
}

// Directions with a trip of the day type calling at the stop.
func (s *Static) DirectionsServingStop(stopID string, dayType model.DayType) []*model.Direction {
	directions := []*model.Direction{}
	for _, d := range s.Directions() {
		if s.IsStopServedBy(stopID, d.ID, dayType) {
			directions = append(directions, d)
		}
	}
	return directions
}

// Directions with a trip of the day type calling at the platform.
func (s *Static) DirectionsServingPlatform(platformID string, dayType model.DayType) []*model.Direction {
	directions := []*model.Direction{}
	for _, d := range s.Directions() {
	trips:
		for _, t := range s.TripsForDirection(d.ID, dayType) {
			for _, stage := range t.Stages {
				if stage.Platform == platformID {
					directions = append(directions, d)
					break trips
				}
			}
		}
	}
	return directions
}

// Directions serving the platform on weekdays or weekends.
func (s *Static) AllDirectionsServingPlatform(platformID string) []*model.Direction {
	seen := map[string]bool{}
	directions := []*model.Direction{}
	for _, dayType := range []model.DayType{model.DayTypeWeekday, model.DayTypeWeekend} {
		for _, d := range s.DirectionsServingPlatform(platformID, dayType) {
			if seen[d.ID] {
				continue
			}
			seen[d.ID] = true
			directions = append(directions, d)
		}
	}
	return directions
}

// Lines with a direction serving the stop, in feed order.
func (s *Static) LinesForStop(stopID string, dayType model.DayType) []*model.Line {
	seen := map[string]bool{}
	lines := []*model.Line{}
	for _, d := range s.DirectionsServingStop(stopID, dayType) {
		if seen[d.ParentLine] {
			continue
		}
		l, found := s.Line(d.ParentLine)
		if !found {
			continue
		}
		seen[l.ID] = true
		lines = append(lines, l)
	}
	return lines
}

func (s *Static) LineForDirection(directionID string) (*model.Line, bool) {
	d, found := s.Direction(directionID)
	if !found {
		return nil, false
	}
	return s.Line(d.ParentLine)
}

// Resolves the platform of a stop. If platformID isn't a platform of
// the stop, another platform of the same stop is substituted and a
// warning logged. Reports false if the stop has no platforms.
func (s *Static) PlatformForStop(stopID string, platformID string) (*model.Platform, bool) {
	platforms := s.PlatformsForStop(stopID)
	for _, p := range platforms {
		if p.ID == platformID {
			return p, true
		}
	}
	if len(platforms) == 0 {
		return nil, false
	}

	log.Warn().
		Str("stop", stopID).
		Str("requested", platformID).
		Str("platform", platforms[0].ID).
		Msg("platform not found, using another platform of the stop")
	return platforms[0], true
}

// Distance in meters from lat,lng to a platform of the stop. See
// PlatformForStop for how the platform is resolved.
func (s *Static) DistanceToStop(lat float64, lng float64, stopID string, platformID string) (float64, bool) {
	p, found := s.PlatformForStop(stopID, platformID)
	if !found {
		return 0, false
	}
	return storage.HaversineDistance(lat, lng, p.Lat, p.Lng) * 1000, true
}

// A stop and the distance in meters to its nearest platform.
type NearbyStop struct {
	Stop     *model.Stop
	Platform *model.Platform
	Distance float64
}

// Returns stops ordered by distance from lat,lng to their closest
// platform. Stops without platforms are left out.
//
// If limit is >0, at most limit stops are returned.
func (s *Static) NearbyStops(lat float64, lng float64, limit int) []NearbyStop {
	nearby := []NearbyStop{}
	for _, stop := range s.Stops() {
		var closest *model.Platform
		closestDist := 0.0
		for _, p := range s.PlatformsForStop(stop.ID) {
			dist := storage.HaversineDistance(lat, lng, p.Lat, p.Lng) * 1000
			if closest == nil || dist < closestDist {
				closest = p
				closestDist = dist
			}
		}
		if closest == nil {
			continue
		}
		nearby = append(nearby, NearbyStop{Stop: stop, Platform: closest, Distance: closestDist})
	}

	sort.SliceStable(nearby, func(i, j int) bool {
		return nearby[i].Distance < nearby[j].Distance
	})

	if limit > 0 && len(nearby) > limit {
		nearby = nearby[:limit]
	}
	return nearby
}
