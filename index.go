package timetable

import (
	"fmt"
	"sort"

	"busboard.dev/timetable/model"
	"busboard.dev/timetable/storage"
)

type platformPair struct {
	start string
	end   string
}

// Lookup tables over one feed, restricted to the lines of a single
// schedule version. Lines outside the version, and their directions
// and trips, are not indexed. Stops, platforms and routes are kept
// in full.
//
// Lookups of unknown IDs report false rather than failing.
type Index struct {
	stops      []*model.Stop
	platforms  []*model.Platform
	lines      []*model.Line
	directions []*model.Direction

	stopByID      map[string]*model.Stop
	platformByID  map[string]*model.Platform
	lineByID      map[string]*model.Line
	directionByID map[string]*model.Direction
	tripByID      map[string]*model.Trip

	platformsByStop  map[string][]*model.Platform
	directionsByLine map[string][]*model.Direction
	tripsByDirection map[string][]*model.Trip
	routeByPair      map[platformPair]*model.Route
}

// Reads the feed and indexes everything reachable from the given
// line IDs.
func NewIndex(reader storage.FeedReader, activeLines []string) (*Index, error) {
	stops, err := reader.Stops()
	if err != nil {
		return nil, fmt.Errorf("reading stops: %w", err)
	}
	platforms, err := reader.Platforms()
	if err != nil {
		return nil, fmt.Errorf("reading platforms: %w", err)
	}
	routes, err := reader.Routes()
	if err != nil {
		return nil, fmt.Errorf("reading routes: %w", err)
	}
	lines, err := reader.Lines()
	if err != nil {
		return nil, fmt.Errorf("reading lines: %w", err)
	}
	directions, err := reader.Directions()
	if err != nil {
		return nil, fmt.Errorf("reading directions: %w", err)
	}
	trips, err := reader.Trips()
	if err != nil {
		return nil, fmt.Errorf("reading trips: %w", err)
	}

	idx := &Index{
		stops:            stops,
		platforms:        platforms,
		stopByID:         map[string]*model.Stop{},
		platformByID:     map[string]*model.Platform{},
		lineByID:         map[string]*model.Line{},
		directionByID:    map[string]*model.Direction{},
		tripByID:         map[string]*model.Trip{},
		platformsByStop:  map[string][]*model.Platform{},
		directionsByLine: map[string][]*model.Direction{},
		tripsByDirection: map[string][]*model.Trip{},
		routeByPair:      map[platformPair]*model.Route{},
	}

	for _, s := range stops {
		idx.stopByID[s.ID] = s
	}
	for _, p := range platforms {
		idx.platformByID[p.ID] = p
		idx.platformsByStop[p.ParentStop] = append(idx.platformsByStop[p.ParentStop], p)
	}
	for _, r := range routes {
		idx.routeByPair[platformPair{r.ParentPlatformStart, r.ParentPlatformEnd}] = r
	}

	active := map[string]bool{}
	for _, lineID := range activeLines {
		active[lineID] = true
	}
	for _, l := range lines {
		if !active[l.ID] {
			continue
		}
		idx.lines = append(idx.lines, l)
		idx.lineByID[l.ID] = l
	}

	for _, d := range directions {
		if idx.lineByID[d.ParentLine] == nil {
			continue
		}
		idx.directionByID[d.ID] = d
		idx.directionsByLine[d.ParentLine] = append(idx.directionsByLine[d.ParentLine], d)
	}

	// Directions in line order
	for _, l := range idx.lines {
		idx.directions = append(idx.directions, idx.directionsByLine[l.ID]...)
	}

	for _, t := range trips {
		if idx.directionByID[t.ParentDirection] == nil {
			continue
		}
		idx.tripByID[t.ID] = t
		idx.tripsByDirection[t.ParentDirection] = append(idx.tripsByDirection[t.ParentDirection], t)
	}

	// Trips ordered by first departure, then ID.
	for _, dirTrips := range idx.tripsByDirection {
		sort.SliceStable(dirTrips, func(i, j int) bool {
			if dirTrips[i].FirstTime() != dirTrips[j].FirstTime() {
				return dirTrips[i].FirstTime() < dirTrips[j].FirstTime()
			}
			return dirTrips[i].ID < dirTrips[j].ID
		})
	}

	return idx, nil
}

func (idx *Index) Stops() []*model.Stop {
	return idx.stops
}

func (idx *Index) Platforms() []*model.Platform {
	return idx.platforms
}

// Active lines, in feed order.
func (idx *Index) Lines() []*model.Line {
	return idx.lines
}

// Active directions, grouped by line.
func (idx *Index) Directions() []*model.Direction {
	return idx.directions
}

func (idx *Index) Stop(id string) (*model.Stop, bool) {
	s, found := idx.stopByID[id]
	return s, found
}

func (idx *Index) Platform(id string) (*model.Platform, bool) {
	p, found := idx.platformByID[id]
	return p, found
}

func (idx *Index) Line(id string) (*model.Line, bool) {
	l, found := idx.lineByID[id]
	return l, found
}

func (idx *Index) Direction(id string) (*model.Direction, bool) {
	d, found := idx.directionByID[id]
	return d, found
}

func (idx *Index) Trip(id string) (*model.Trip, bool) {
	t, found := idx.tripByID[id]
	return t, found
}

func (idx *Index) PlatformsForStop(stopID string) []*model.Platform {
	return idx.platformsByStop[stopID]
}

func (idx *Index) DirectionsForLine(lineID string) []*model.Direction {
	return idx.directionsByLine[lineID]
}

// All trips of the direction, ordered by first departure.
func (idx *Index) AllTripsForDirection(directionID string) []*model.Trip {
	return idx.tripsByDirection[directionID]
}

// Trips of the direction whose day group matches dayType. Trips
// without a day group match any day type, and DayTypeNone matches
// every trip. Per date overrides are not applied here, see
// TripRunsOn.
func (idx *Index) TripsForDirection(directionID string, dayType model.DayType) []*model.Trip {
	trips := []*model.Trip{}
	for _, t := range idx.tripsByDirection[directionID] {
		if dayType == model.DayTypeNone || t.DaysGroup == model.DayTypeNone || t.DaysGroup == dayType {
			trips = append(trips, t)
		}
	}
	return trips
}

// The authored road geometry from start to end platform, if any.
func (idx *Index) RouteBetween(start, end string) (*model.Route, bool) {
	r, found := idx.routeByPair[platformPair{start, end}]
	return r, found
}
