package timetable

import (
	"busboard.dev/timetable/model"
)

type slot struct {
	platformID string
	stopID     string
}

// Greedy matching of one trip's stages against the slots of a
// sequence. A stage takes the first unused slot of its platform
// after the slot matched by the previous stage, or failing that the
// first unused slot of its platform anywhere.
type slotMatcher struct {
	slots []*slot
	used  map[*slot]bool
	last  int
}

func newSlotMatcher(slots []*slot) *slotMatcher {
	return &slotMatcher{slots: slots, used: map[*slot]bool{}, last: -1}
}

// Returns the index of the matched slot, or -1.
func (m *slotMatcher) match(platformID string) int {
	fallback := -1
	for i, sl := range m.slots {
		if sl.platformID != platformID || m.used[sl] {
			continue
		}
		if i > m.last {
			m.claim(i)
			return i
		}
		if fallback < 0 {
			fallback = i
		}
	}
	if fallback >= 0 {
		m.claim(fallback)
	}
	return fallback
}

func (m *slotMatcher) claim(i int) {
	m.used[m.slots[i]] = true
	m.last = i
}

// Stages of the trip with a known platform.
func (s *Static) resolvedStages(trip *model.Trip) []model.Stage {
	stages := make([]model.Stage, 0, len(trip.Stages))
	for _, stage := range trip.Stages {
		if _, found := s.Platform(stage.Platform); found {
			stages = append(stages, stage)
		}
	}
	return stages
}

// The trip with the most resolvable stages, first in departure order
// on ties.
func (s *Static) templateTrip(trips []*model.Trip) *model.Trip {
	var template *model.Trip
	longest := -1
	for _, t := range trips {
		if n := len(s.resolvedStages(t)); n > longest {
			template = t
			longest = n
		}
	}
	return template
}

// Canonical stop order of a direction's trips of the given day type.
//
// The longest trip forms the skeleton, keeping repeated stops of a
// loop route as separate entries. Stages of the other trips that
// can't be matched to a free slot are inserted right after the slot
// their preceding stage matched, or appended if there is none. This
// is a best effort visual ordering: trips diverging in incompatible
// ways can yield an order no single trip follows.
//
// Positions are 0-based and contiguous.
func (s *Static) StopSequence(directionID string, dayType model.DayType) []model.StopEntry {
	trips := s.TripsForDirection(directionID, dayType)
	template := s.templateTrip(trips)
	if template == nil {
		return []model.StopEntry{}
	}

	slots := []*slot{}
	for _, stage := range s.resolvedStages(template) {
		slots = append(slots, &slot{platformID: stage.Platform, stopID: s.stopOfPlatform(stage.Platform)})
	}

	for _, t := range trips {
		if t == template {
			continue
		}
		m := newSlotMatcher(slots)
		for _, stage := range s.resolvedStages(t) {
			if m.match(stage.Platform) >= 0 {
				continue
			}

			at := m.last + 1
			if m.last < 0 {
				at = len(slots)
			}
			sl := &slot{platformID: stage.Platform, stopID: s.stopOfPlatform(stage.Platform)}
			slots = append(slots, nil)
			copy(slots[at+1:], slots[at:])
			slots[at] = sl

			m.slots = slots
			m.claim(at)
		}
	}

	sequence := make([]model.StopEntry, 0, len(slots))
	for i, sl := range slots {
		entry := model.StopEntry{
			Position:   i,
			StopID:     sl.stopID,
			PlatformID: sl.platformID,
		}
		if stop, found := s.Stop(sl.stopID); found {
			entry.StopName = stop.Name
		}
		sequence = append(sequence, entry)
	}
	return sequence
}

// Maps each stage of the trip to a position in sequence, returning
// position to HH:MM time. Positions the trip doesn't serve are
// absent. Each stage takes the first free slot of its platform
// after the position matched by the previous stage, falling back to
// the first free slot anywhere. A trip joining a loop late thus
// calls at the later occurrence of a repeated stop, and positions
// never go backwards for a trip merged into the sequence.
func BuildTripPositionMap(sequence []model.StopEntry, trip *model.Trip) map[int]string {
	slots := make([]*slot, len(sequence))
	for i, entry := range sequence {
		slots[i] = &slot{platformID: entry.PlatformID, stopID: entry.StopID}
	}

	positions := map[int]string{}
	m := newSlotMatcher(slots)
	for _, stage := range trip.Stages {
		if i := m.match(stage.Platform); i >= 0 {
			positions[sequence[i].Position] = stage.Time
		}
	}
	return positions
}

// A direction's full timetable: the canonical stop sequence as rows
// and one column per trip.
type TimetableGrid struct {
	Stops []model.StopEntry
	Trips []*model.Trip

	// Times[i][pos] is the time trip i calls at sequence position
	// pos, or "" if it doesn't.
	Times [][]string
}

// Builds the timetable of the direction for the day type, trips
// ordered by first departure.
func (s *Static) Timetable(directionID string, dayType model.DayType) *TimetableGrid {
	grid := &TimetableGrid{
		Stops: s.StopSequence(directionID, dayType),
		Trips: s.TripsForDirection(directionID, dayType),
	}

	grid.Times = make([][]string, len(grid.Trips))
	for i, t := range grid.Trips {
		column := make([]string, len(grid.Stops))
		for pos, clock := range BuildTripPositionMap(grid.Stops, t) {
			column[pos] = clock
		}
		grid.Times[i] = column
	}
	return grid
}
