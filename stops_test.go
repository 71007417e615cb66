package timetable_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"busboard.dev/timetable/model"
)

func TestIsStopServedBy(t *testing.T) {
	s := buildFixture(t, "memory", monday)

	assert.True(t, s.IsStopServedBy("bravo", "line1:south", model.DayTypeWeekday))
	assert.True(t, s.IsStopServedBy("delta", "line1:north", model.DayTypeWeekday))
	assert.False(t, s.IsStopServedBy("delta", "line2:loop", model.DayTypeWeekday))
	assert.False(t, s.IsStopServedBy("delta", "line1:north", model.DayTypeWeekend))
	assert.False(t, s.IsStopServedBy("echo", "line1:south", model.DayTypeWeekday))
}

func TestDirectionsServing(t *testing.T) {
	s := buildFixture(t, "memory", monday)

	assert.Equal(t,
		[]string{"line1:south", "line1:north", "line2:loop"},
		directionIDs(s.DirectionsServingStop("charlie", model.DayTypeWeekday)),
	)
	assert.Equal(t,
		[]string{"line1:south", "line2:loop"},
		directionIDs(s.DirectionsServingStop("alpha", model.DayTypeWeekend)),
	)
	assert.Equal(t, []string{}, directionIDs(s.DirectionsServingStop("zulu", model.DayTypeWeekday)))

	assert.Equal(t,
		[]string{"line1:north"},
		directionIDs(s.DirectionsServingPlatform("alpha:north", model.DayTypeWeekday)),
	)
	assert.Equal(t, []string{}, directionIDs(s.DirectionsServingPlatform("alpha:north", model.DayTypeWeekend)))

	// Union over day types, no duplicates
	assert.Equal(t,
		[]string{"line1:south", "line2:loop"},
		directionIDs(s.AllDirectionsServingPlatform("alpha:south")),
	)
	assert.Equal(t,
		[]string{"line1:north"},
		directionIDs(s.AllDirectionsServingPlatform("delta:north")),
	)
}

func TestLinesForStop(t *testing.T) {
	s := buildFixture(t, "memory", monday)

	assert.Equal(t, []string{"line1", "line2"}, lineIDs(s.LinesForStop("charlie", model.DayTypeWeekday)))
	assert.Equal(t, []string{"line1"}, lineIDs(s.LinesForStop("delta", model.DayTypeWeekday)))
	assert.Equal(t, []string{}, lineIDs(s.LinesForStop("echo", model.DayTypeWeekday)))

	line, found := s.LineForDirection("line2:loop")
	require.True(t, found)
	assert.Equal(t, "line2", line.ID)
	_, found = s.LineForDirection("line9:express")
	assert.False(t, found)
}

func TestPlatformForStop(t *testing.T) {
	s := buildFixture(t, "memory", monday)

	p, found := s.PlatformForStop("alpha", "alpha:north")
	require.True(t, found)
	assert.Equal(t, "alpha:north", p.ID)

	// Falls back to another platform of the same stop
	p, found = s.PlatformForStop("alpha", "alpha:west")
	require.True(t, found)
	assert.Equal(t, "alpha:south", p.ID)

	// A platform of another stop is not accepted
	p, found = s.PlatformForStop("alpha", "bravo:south")
	require.True(t, found)
	assert.Equal(t, "alpha:south", p.ID)

	_, found = s.PlatformForStop("echo", "echo:south")
	assert.False(t, found)
}

func TestDistanceToStop(t *testing.T) {
	s := buildFixture(t, "memory", monday)

	d, found := s.DistanceToStop(51.70, 20.40, "alpha", "alpha:south")
	require.True(t, found)
	assert.InDelta(t, 0, d, 0.001)

	// 0.02 degrees of latitude is roughly 2224 meters
	d, found = s.DistanceToStop(51.70, 20.45, "bravo", "bravo:south")
	require.True(t, found)
	assert.InDelta(t, 2224, d, 5)

	_, found = s.DistanceToStop(51.70, 20.40, "echo", "")
	assert.False(t, found)
}

func TestNearbyStops(t *testing.T) {
	s := buildFixture(t, "memory", monday)

	nearby := s.NearbyStops(51.7001, 20.4001, 0)

	// echo has no platforms
	require.Equal(t, 5, len(nearby))
	assert.Equal(t, "alpha", nearby[0].Stop.ID)
	assert.Equal(t, "alpha:north", nearby[0].Platform.ID)
	assert.InDelta(t, 0, nearby[0].Distance, 0.001)
	assert.Equal(t, "bravo", nearby[1].Stop.ID)
	assert.Equal(t, "charlie", nearby[2].Stop.ID)
	assert.Equal(t, "delta", nearby[3].Stop.ID)
	assert.Equal(t, "zulu", nearby[4].Stop.ID)

	nearby = s.NearbyStops(51.7001, 20.4001, 2)
	require.Equal(t, 2, len(nearby))
	assert.Equal(t, "bravo", nearby[1].Stop.ID)
}
