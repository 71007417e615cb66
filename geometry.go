package timetable

import (
	"busboard.dev/timetable/model"
	"busboard.dev/timetable/storage"
)

// Boundary points closer than this, in degrees, are considered the
// same point.
const CoordinateEpsilon = 1e-6

// Used by MapCenter when there are no platforms.
var DefaultMapCenter = model.Coordinate{51.75, 20.5}

type polyline []model.Coordinate

func (p *polyline) add(c model.Coordinate) {
	if n := len(*p); n > 0 && storage.CoordinatesClose((*p)[n-1], c, CoordinateEpsilon) {
		return
	}
	*p = append(*p, c)
}

// Platform coordinates of the trip's stages, skipping unknown
// platforms.
func (s *Static) TripCoordinates(trip *model.Trip) []model.Coordinate {
	coords := []model.Coordinate{}
	for _, stage := range trip.Stages {
		if p, found := s.Platform(stage.Platform); found {
			coords = append(coords, p.Coordinate())
		}
	}
	return coords
}

// Road following polyline of a trip. Each pair of consecutive
// platforms is joined by its authored route if one exists, or by a
// straight line otherwise.
func (s *Static) composeRoute(trip *model.Trip) []model.Coordinate {
	line := polyline{}
	var prev *model.Platform
	for _, stage := range trip.Stages {
		p, found := s.Platform(stage.Platform)
		if !found {
			continue
		}
		if prev != nil {
			if route, found := s.RouteBetween(prev.ID, p.ID); found {
				for _, c := range route.Coordinates {
					line.add(c)
				}
			}
		}
		line.add(p.Coordinate())
		prev = p
	}
	return line
}

// Polyline of the named trip. Empty if the trip isn't found.
func (s *Static) TripRouteCoordinates(directionID string, tripName string, dayType model.DayType) []model.Coordinate {
	trip, found := s.TripByName(directionID, tripName, dayType)
	if !found {
		return []model.Coordinate{}
	}
	return s.composeRoute(trip)
}

// Polyline of the direction's longest trip.
func (s *Static) DirectionRouteCoordinates(directionID string, dayType model.DayType) []model.Coordinate {
	template := s.templateTrip(s.TripsForDirection(directionID, dayType))
	if template == nil {
		return []model.Coordinate{}
	}
	return s.composeRoute(template)
}

// One polyline per direction of the line, leaving out directions
// without trips.
func (s *Static) LineRouteCoordinates(lineID string, dayType model.DayType) [][]model.Coordinate {
	lines := [][]model.Coordinate{}
	for _, d := range s.DirectionsForLine(lineID) {
		if coords := s.DirectionRouteCoordinates(d.ID, dayType); len(coords) > 0 {
			lines = append(lines, coords)
		}
	}
	return lines
}

// Centroid of all platforms. Reports false, with DefaultMapCenter,
// if there are none.
func (s *Static) MapCenter() (model.Coordinate, bool) {
	platforms := s.Platforms()
	if len(platforms) == 0 {
		return DefaultMapCenter, false
	}

	var lat, lng float64
	for _, p := range platforms {
		lat += p.Lat
		lng += p.Lng
	}
	n := float64(len(platforms))
	return model.Coordinate{lat / n, lng / n}, true
}

// One marker per platform called at by trips of the day type, each
// listing the directions serving it.
func (s *Static) PlatformMarkers(dayType model.DayType) []model.PlatformMarker {
	byPlatform := map[string][]model.DirectionInfo{}
	for _, d := range s.Directions() {
		line, found := s.Line(d.ParentLine)
		if !found {
			continue
		}
		info := model.DirectionInfo{
			LineID:        line.ID,
			LineName:      line.Name,
			LineColor:     line.Color,
			DirectionID:   d.ID,
			DirectionName: d.Name,
		}

		seen := map[string]bool{}
		for _, t := range s.TripsForDirection(d.ID, dayType) {
			for _, stage := range t.Stages {
				if seen[stage.Platform] {
					continue
				}
				seen[stage.Platform] = true
				byPlatform[stage.Platform] = append(byPlatform[stage.Platform], info)
			}
		}
	}

	markers := []model.PlatformMarker{}
	for _, p := range s.Platforms() {
		directions, found := byPlatform[p.ID]
		if !found {
			continue
		}
		marker := model.PlatformMarker{
			StopID:     p.ParentStop,
			PlatformID: p.ID,
			Lat:        p.Lat,
			Lng:        p.Lng,
			Directions: directions,
		}
		if stop, found := s.Stop(p.ParentStop); found {
			marker.StopName = stop.Name
		}
		markers = append(markers, marker)
	}
	return markers
}
