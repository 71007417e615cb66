package timetable_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"busboard.dev/timetable"
	"busboard.dev/timetable/model"
	"busboard.dev/timetable/parse"
	"busboard.dev/timetable/testutil"
)

func sequencePlatforms(sequence []model.StopEntry) []string {
	platforms := []string{}
	for i, entry := range sequence {
		if entry.Position != i {
			panic("positions not contiguous")
		}
		platforms = append(platforms, entry.PlatformID)
	}
	return platforms
}

// Matched positions never decrease along a trip's stages.
func assertMonotonic(t *testing.T, sequence []model.StopEntry, trip *model.Trip) {
	positions := timetable.BuildTripPositionMap(sequence, trip)
	last := -1
	for pos := 0; pos < len(sequence); pos++ {
		if _, found := positions[pos]; !found {
			continue
		}
		assert.True(t, pos > last)
		last = pos
	}

	// And times increase with position
	prev := ""
	for pos := 0; pos < len(sequence); pos++ {
		clock, found := positions[pos]
		if !found {
			continue
		}
		assert.True(t, clock > prev, "trip %s position %d", trip.ID, pos)
		prev = clock
	}
}

func TestStopSequence(t *testing.T) {
	s := buildFixture(t, "memory", monday)

	sequence := s.StopSequence("line1:south", model.DayTypeWeekday)
	assert.Equal(t, []model.StopEntry{
		{Position: 0, StopID: "alpha", StopName: "Alpha", PlatformID: "alpha:south"},
		{Position: 1, StopID: "bravo", StopName: "Bravo", PlatformID: "bravo:south"},
		{Position: 2, StopID: "charlie", StopName: "Charlie", PlatformID: "charlie:south"},
		{Position: 3, StopID: "delta", StopName: "Delta", PlatformID: "delta:south"},
	}, sequence)

	// t3 skips bravo
	t3, _ := s.Trip("s-t3")
	assert.Equal(t, map[int]string{0: "09:00", 2: "09:15", 3: "09:25"}, timetable.BuildTripPositionMap(sequence, t3))

	// No day type covers all trips
	assert.Equal(t, sequence, s.StopSequence("line1:south", model.DayTypeNone))
	assert.Equal(t, []model.StopEntry{}, s.StopSequence("nope", model.DayTypeWeekday))
}

// A stop visited twice by the longest trip gets two entries, and a
// trip visiting it once takes the first.
func TestStopSequenceLoopRoute(t *testing.T) {
	s := buildFixture(t, "memory", monday)

	sequence := s.StopSequence("line2:loop", model.DayTypeWeekday)
	assert.Equal(t, []string{
		"alpha:south",
		"bravo:south",
		"charlie:south",
		"bravo:south",
		"alpha:south",
	}, sequencePlatforms(sequence))

	l1, _ := s.Trip("l-l1")
	assert.Equal(t, map[int]string{
		0: "12:00",
		1: "12:10",
		2: "12:20",
		3: "12:30",
		4: "12:40",
	}, timetable.BuildTripPositionMap(sequence, l1))

	l2, _ := s.Trip("l-l2")
	assert.Equal(t, map[int]string{1: "13:10", 2: "13:20"}, timetable.BuildTripPositionMap(sequence, l2))

	l3, _ := s.Trip("l-l3")
	assert.Equal(t, map[int]string{0: "14:00", 1: "14:10"}, timetable.BuildTripPositionMap(sequence, l3))

	for _, trip := range s.TripsForDirection("line2:loop", model.DayTypeWeekday) {
		assertMonotonic(t, sequence, trip)
	}
}

// A trip deviating from the template gets its extra stop inserted
// after the stage preceding it.
func TestStopSequenceInsertion(t *testing.T) {
	s := buildFixture(t, "memory", monday)

	sequence := s.StopSequence("line1:north", model.DayTypeWeekday)
	assert.Equal(t, []string{
		"charlie:south",
		"delta:north",
		"bravo:north",
		"alpha:north",
	}, sequencePlatforms(sequence))

	n1, _ := s.Trip("n-n1")
	n2, _ := s.Trip("n-n2")
	assert.Equal(t, map[int]string{0: "07:00", 2: "07:10", 3: "07:20"}, timetable.BuildTripPositionMap(sequence, n1))
	assert.Equal(t, map[int]string{0: "07:30", 1: "07:35", 3: "07:50"}, timetable.BuildTripPositionMap(sequence, n2))

	assertMonotonic(t, sequence, n1)
	assertMonotonic(t, sequence, n2)
}

func loopFixture(t *testing.T) *timetable.Static {
	return testutil.BuildStatic(t, "memory", map[string][]string{
		parse.StopsFile: {`[
			{"id": "s", "name": "Square"},
			{"id": "a", "name": "A"},
			{"id": "b", "name": "B"},
			{"id": "c", "name": "C"}
		]`},
		parse.PlatformsFile: {`[
			{"id": "s:1", "parent_stop": "s", "lat": 50.0, "lng": 19.0},
			{"id": "a:1", "parent_stop": "a", "lat": 50.1, "lng": 19.1},
			{"id": "b:1", "parent_stop": "b", "lat": 50.2, "lng": 19.0},
			{"id": "c:1", "parent_stop": "c", "lat": 49.9, "lng": 19.0}
		]`},
		parse.LinesFile:      {`[{"id": "l", "name": "L", "color": "#000000"}]`},
		parse.DirectionsFile: {`[{"id": "l:loop", "name": "Square", "parent_line": "l"}]`},
		parse.TripsFile: {`[
			{"id": "loop", "name": "loop", "parent_direction": "l:loop", "stages": [
				{"platform": "s:1", "time": "06:00"},
				{"platform": "a:1", "time": "06:10"},
				{"platform": "b:1", "time": "06:20"},
				{"platform": "s:1", "time": "06:30"}]},
			{"id": "late", "name": "late", "parent_direction": "l:loop", "stages": [
				{"platform": "b:1", "time": "07:20"},
				{"platform": "s:1", "time": "07:30"}]},
			{"id": "tail", "name": "tail", "parent_direction": "l:loop", "stages": [
				{"platform": "b:1", "time": "08:00"},
				{"platform": "s:1", "time": "08:10"},
				{"platform": "c:1", "time": "08:20"}]}
		]`},
	}, monday)
}

// A trip joining a loop after its first visit to a stop takes the
// later slot of that stop, not the first free one.
func TestStopSequenceLoopJoinedLate(t *testing.T) {
	s := loopFixture(t)

	sequence := s.StopSequence("l:loop", model.DayTypeWeekday)

	late, _ := s.Trip("late")
	assert.Equal(t, map[int]string{2: "07:20", 3: "07:30"}, timetable.BuildTripPositionMap(sequence, late))
	assertMonotonic(t, sequence, late)
}

// A stop following the second visit to a loop stop is inserted after
// that visit.
func TestStopSequenceLoopInsertion(t *testing.T) {
	s := loopFixture(t)

	sequence := s.StopSequence("l:loop", model.DayTypeWeekday)
	assert.Equal(t, []string{"s:1", "a:1", "b:1", "s:1", "c:1"}, sequencePlatforms(sequence))
	assert.Equal(t, model.StopEntry{Position: 4, StopID: "c", StopName: "C", PlatformID: "c:1"}, sequence[4])

	tail, _ := s.Trip("tail")
	assert.Equal(t, map[int]string{2: "08:00", 3: "08:10", 4: "08:20"}, timetable.BuildTripPositionMap(sequence, tail))

	loop, _ := s.Trip("loop")
	assert.Equal(t, map[int]string{0: "06:00", 1: "06:10", 2: "06:20", 3: "06:30"}, timetable.BuildTripPositionMap(sequence, loop))

	for _, trip := range s.TripsForDirection("l:loop", model.DayTypeWeekday) {
		assertMonotonic(t, sequence, trip)
	}
}

// A stage with no known stop before it is appended.
func TestStopSequenceAppend(t *testing.T) {
	s := testutil.BuildStatic(t, "memory", map[string][]string{
		parse.StopsFile: {`[{"id": "a", "name": "A"}, {"id": "b", "name": "B"}, {"id": "c", "name": "C"}]`},
		parse.PlatformsFile: {`[
			{"id": "a:1", "parent_stop": "a", "lat": 50.0, "lng": 19.0},
			{"id": "b:1", "parent_stop": "b", "lat": 50.1, "lng": 19.1},
			{"id": "c:1", "parent_stop": "c", "lat": 50.2, "lng": 19.2}
		]`},
		parse.LinesFile:      {`[{"id": "l", "name": "L", "color": "#000000"}]`},
		parse.DirectionsFile: {`[{"id": "l:d", "name": "D", "parent_line": "l"}]`},
		parse.TripsFile: {`[
			{"id": "long", "name": "long", "parent_direction": "l:d", "stages": [
				{"platform": "a:1", "time": "06:00"},
				{"platform": "b:1", "time": "06:10"}]},
			{"id": "short", "name": "short", "parent_direction": "l:d", "stages": [
				{"platform": "c:1", "time": "07:00"}]},
			{"id": "ghost", "name": "ghost", "parent_direction": "l:d", "stages": [
				{"platform": "nowhere", "time": "05:00"},
				{"platform": "a:1", "time": "05:10"}]}
		]`},
	}, monday)

	// Unknown platforms don't count towards the template or the
	// sequence.
	sequence := s.StopSequence("l:d", model.DayTypeWeekday)
	assert.Equal(t, []string{"a:1", "b:1", "c:1"}, sequencePlatforms(sequence))

	ghost, _ := s.Trip("ghost")
	assert.Equal(t, map[int]string{0: "05:10"}, timetable.BuildTripPositionMap(sequence, ghost))
}

func TestStopSequenceDeterministic(t *testing.T) {
	var reference []model.StopEntry
	var referenceGrid *timetable.TimetableGrid

	for _, backend := range testutil.Backends() {
		s := buildFixture(t, backend, monday)

		// Interleave calls in different order
		grid := s.Timetable("line2:loop", model.DayTypeWeekday)
		first := s.StopSequence("line2:loop", model.DayTypeWeekday)
		s.StopSequence("line1:north", model.DayTypeWeekday)
		second := s.StopSequence("line2:loop", model.DayTypeWeekday)
		assert.Equal(t, first, second)
		assert.Equal(t, first, grid.Stops)

		l1, _ := s.Trip("l-l1")
		assert.Equal(t,
			timetable.BuildTripPositionMap(first, l1),
			timetable.BuildTripPositionMap(second, l1),
		)

		if reference == nil {
			reference = first
			referenceGrid = grid
			continue
		}
		assert.Equal(t, reference, first, backend)
		assert.Equal(t, referenceGrid.Times, grid.Times, backend)
	}
}

func TestTimetable(t *testing.T) {
	s := buildFixture(t, "memory", monday)

	grid := s.Timetable("line1:south", model.DayTypeWeekday)
	require.Equal(t, 4, len(grid.Stops))
	assert.Equal(t, []string{"s-t1", "s-t2", "s-t3"}, tripIDs(grid.Trips))
	assert.Equal(t, [][]string{
		{"08:00", "08:10", "08:20", "08:30"},
		{"08:30", "08:40", "08:50", ""},
		{"09:00", "", "09:15", "09:25"},
	}, grid.Times)

	grid = s.Timetable("line1:south", model.DayTypeWeekend)
	assert.Equal(t, [][]string{{"10:00", "10:10", "10:20", "10:30"}}, grid.Times)

	grid = s.Timetable("nope", model.DayTypeWeekday)
	assert.Equal(t, 0, len(grid.Stops))
	assert.Equal(t, 0, len(grid.Trips))
}
