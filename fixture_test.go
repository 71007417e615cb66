package timetable_test

import (
	"testing"
	"time"

	"busboard.dev/timetable"
	"busboard.dev/timetable/model"
	"busboard.dev/timetable/parse"
	"busboard.dev/timetable/testutil"
)

// Reference dates for the fixture below.
var (
	monday   = time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	tuesday  = time.Date(2024, 6, 4, 0, 0, 0, 0, time.UTC)
	saturday = time.Date(2024, 6, 8, 0, 0, 0, 0, time.UTC)
	sunday   = time.Date(2024, 6, 9, 0, 0, 0, 0, time.UTC)

	// Corpus Christi, a non-operating Thursday
	holiday = time.Date(2024, 5, 30, 0, 0, 0, 0, time.UTC)

	// Covered by the second schedule version
	nextYear = time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
)

func at(day time.Time, hour, minute int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, time.UTC)
}

// A small network:
//
//   - line1:south runs Alpha, Bravo, Charlie, Delta with one trip
//     skipping Bravo.
//   - line1:north runs Charlie to Alpha on north platforms, one trip
//     deviating via Delta.
//   - line2:loop runs Alpha, Bravo, Charlie, Bravo, Alpha.
//   - line9 only exists in the 2025 schedule version.
func fixtureFiles() map[string][]string {
	return map[string][]string{
		parse.StopsFile: {`[
			{"id": "alpha", "name": "Alpha"},
			{"id": "bravo", "name": "Bravo"},
			{"id": "charlie", "name": "Charlie"},
			{"id": "delta", "name": "Delta"},
			{"id": "echo", "name": "Echo"},
			{"id": "zulu", "name": "Zulu"}
		]`},
		parse.PlatformsFile: {`[
			{"id": "alpha:south", "parent_stop": "alpha", "lat": 51.70, "lng": 20.40},
			{"id": "alpha:north", "parent_stop": "alpha", "lat": 51.7001, "lng": 20.4001},
			{"id": "bravo:south", "parent_stop": "bravo", "lat": 51.72, "lng": 20.45},
			{"id": "bravo:north", "parent_stop": "bravo", "lat": 51.7201, "lng": 20.4501},
			{"id": "charlie:south", "parent_stop": "charlie", "lat": 51.74, "lng": 20.50},
			{"id": "delta:south", "parent_stop": "delta", "lat": 51.76, "lng": 20.55},
			{"id": "delta:north", "parent_stop": "delta", "lat": 51.7601, "lng": 20.5501},
			{"id": "zulu:south", "parent_stop": "zulu", "lat": 52.50, "lng": 21.00}
		]`},
		parse.RoutesFile: {`[
			{
				"id": "alpha:south--bravo:south",
				"parent_platform_start": "alpha:south",
				"parent_platform_end": "bravo:south",
				"coordinates": [[51.71, 20.42], [51.715, 20.43]]
			},
			{
				"id": "bravo:south--charlie:south",
				"parent_platform_start": "bravo:south",
				"parent_platform_end": "charlie:south",
				"coordinates": [[51.72, 20.45], [51.73, 20.48]]
			}
		]`},
		parse.LinesFile: {`[
			{"id": "line1", "name": "1", "color": "#e53935"},
			{"id": "line2", "name": "2", "color": "#43a047"},
			{"id": "line9", "name": "9", "color": "#1e88e5"}
		]`},
		parse.DirectionsFile: {`[
			{"id": "line1:south", "name": "Delta", "parent_line": "line1"},
			{"id": "line1:north", "name": "Alpha", "parent_line": "line1"},
			{"id": "line2:loop", "name": "Loop", "parent_line": "line2"},
			{"id": "line9:express", "name": "Express", "parent_line": "line9"}
		]`},
		parse.TripsFile: {`[
			{"id": "s-t1", "name": "t1", "parent_direction": "line1:south", "daysGroup": "weekday", "stages": [
				{"platform": "alpha:south", "time": "08:00"},
				{"platform": "bravo:south", "time": "08:10"},
				{"platform": "charlie:south", "time": "08:20"},
				{"platform": "delta:south", "time": "08:30"}]},
			{"id": "s-t3", "name": "t3", "parent_direction": "line1:south", "daysGroup": "weekday", "stages": [
				{"platform": "alpha:south", "time": "09:00"},
				{"platform": "charlie:south", "time": "09:15"},
				{"platform": "delta:south", "time": "09:25"}]},
			{"id": "s-t2", "name": "t2", "parent_direction": "line1:south", "daysGroup": "weekday", "stages": [
				{"platform": "alpha:south", "time": "08:30"},
				{"platform": "bravo:south", "time": "08:40"},
				{"platform": "charlie:south", "time": "08:50"}]},
			{"id": "s-w1", "name": "w1", "parent_direction": "line1:south", "daysGroup": "weekend", "stages": [
				{"platform": "alpha:south", "time": "10:00"},
				{"platform": "bravo:south", "time": "10:10"},
				{"platform": "charlie:south", "time": "10:20"},
				{"platform": "delta:south", "time": "10:30"}]},
			{"id": "n-n1", "name": "n1", "parent_direction": "line1:north", "daysGroup": "weekday", "stages": [
				{"platform": "charlie:south", "time": "07:00"},
				{"platform": "bravo:north", "time": "07:10"},
				{"platform": "alpha:north", "time": "07:20"}]},
			{"id": "n-n2", "name": "n2", "parent_direction": "line1:north", "daysGroup": "weekday", "stages": [
				{"platform": "charlie:south", "time": "07:30"},
				{"platform": "delta:north", "time": "07:35"},
				{"platform": "alpha:north", "time": "07:50"}]},
			{"id": "l-l1", "name": "l1", "parent_direction": "line2:loop", "daysGroup": "weekday", "stages": [
				{"platform": "alpha:south", "time": "12:00"},
				{"platform": "bravo:south", "time": "12:10"},
				{"platform": "charlie:south", "time": "12:20"},
				{"platform": "bravo:south", "time": "12:30"},
				{"platform": "alpha:south", "time": "12:40"}]},
			{"id": "l-l2", "name": "l2", "parent_direction": "line2:loop", "daysGroup": "weekday", "stages": [
				{"platform": "bravo:south", "time": "13:10"},
				{"platform": "charlie:south", "time": "13:20"}]},
			{"id": "l-l3", "name": "l3", "parent_direction": "line2:loop", "daysInclude": ["2024-06-08"], "stages": [
				{"platform": "alpha:south", "time": "14:00"},
				{"platform": "bravo:south", "time": "14:10"}]},
			{"id": "l-l4", "name": "l4", "parent_direction": "line2:loop", "daysGroup": "weekday", "daysExclude": ["2024-06-04"], "stages": [
				{"platform": "alpha:south", "time": "15:00"}]},
			{"id": "x-x1", "name": "x1", "parent_direction": "line9:express", "daysGroup": "weekday", "stages": [
				{"platform": "alpha:south", "time": "08:05"},
				{"platform": "delta:south", "time": "08:20"}]}
		]`},
		parse.SchedulesFile: {`[
			{
				"id": "2024-v1",
				"updated_at": "2023-12-01",
				"valid_from": "2024-01-01",
				"lines": ["line1", "line2"],
				"non_operating_days": [
					{"date": "2024-05-30", "name": "Corpus Christi"},
					{"date": "2024-12-25", "name": "Christmas Day"},
					{"date": "2024-12-26", "name": "Second Day of Christmas"}
				]
			},
			{
				"id": "2025-v1",
				"updated_at": "2024-12-01",
				"valid_from": "2025-01-01",
				"lines": ["line1", "line2", "line9"]
			}
		]`},
	}
}

func buildFixture(t *testing.T, backend string, when time.Time) *timetable.Static {
	return testutil.BuildStatic(t, backend, fixtureFiles(), when)
}

func tripIDs(trips []*model.Trip) []string {
	ids := []string{}
	for _, t := range trips {
		ids = append(ids, t.ID)
	}
	return ids
}

func directionIDs(directions []*model.Direction) []string {
	ids := []string{}
	for _, d := range directions {
		ids = append(ids, d.ID)
	}
	return ids
}

func lineIDs(lines []*model.Line) []string {
	ids := []string{}
	for _, l := range lines {
		ids = append(ids, l.ID)
	}
	return ids
}
