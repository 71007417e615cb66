package parse

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"busboard.dev/timetable/model"
	"busboard.dev/timetable/storage"
)

func buildZip(t *testing.T, files map[string][]string) []byte {
	buf := &bytes.Buffer{}
	w := zip.NewWriter(buf)
	for filename, content := range files {
		f, err := w.Create(filename)
		require.NoError(t, err)
		_, err = f.Write([]byte(strings.Join(content, "\n")))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	return buf.Bytes()
}

// A small snapshot with all required data
func fixtureSimple() map[string][]string {
	return map[string][]string{
		"stops.json": {
			`[{"id": "rynek", "name": "Rynek"},`,
			` {"id": "dworzec", "name": "Dworzec PKP"}]`,
		},
		"platforms.json": {
			`[{"id": "rynek:south", "parent_stop": "rynek", "lat": 51.75, "lng": 20.5},`,
			` {"id": "dworzec:south", "parent_stop": "dworzec", "lat": 51.76, "lng": 20.51, "description": "stand 3"}]`,
		},
		"routes.json": {
			`[{"id": "rynek:south--dworzec:south", "parent_platform_start": "rynek:south",`,
			`  "parent_platform_end": "dworzec:south", "coordinates": [[51.755, 20.505]]}]`,
		},
		"lines.json": {
			`[{"id": "line1", "name": "1", "color": "#e53935"}]`,
		},
		"directions.json": {
			`[{"id": "line1:dworzec", "name": "Dworzec PKP", "parent_line": "line1"}]`,
		},
		"trips.json": {
			`[{"id": "line1:dworzec:weekday:1", "name": "1", "parent_direction": "line1:dworzec",`,
			`  "stages": [{"platform": "rynek:south", "time": "08:00"}, {"platform": "dworzec:south", "time": "08:07"}],`,
			`  "daysGroup": "weekday", "daysExclude": ["2024-12-24"]}]`,
		},
		"schedules.json": {
			`[{"id": "2024-v1", "updated_at": "2024-01-01T00:00:00Z", "valid_from": "2024-01-01", "lines": ["line1"]},`,
			` {"id": "2025-v1", "updated_at": "2025-01-01T00:00:00Z", "valid_from": "2025-01-01", "lines": ["line1"]}]`,
		},
		"non_operating_days.csv": {
			"schedule_id,date,name",
			"2024-v1,2024-12-25,Boże Narodzenie",
			"2025-v1,2025-01-01,Nowy Rok",
		},
	}
}

func TestParseValidFeed(t *testing.T) {
	for _, backend := range []string{"memory", "sqlite"} {
		t.Run(backend, func(t *testing.T) {
			var s storage.Storage
			if backend == "memory" {
				s = storage.NewMemoryStorage()
			} else {
				var err error
				s, err = storage.NewSQLiteStorage()
				require.NoError(t, err)
			}

			writer, err := s.GetWriter("test")
			require.NoError(t, err)

			metadata, err := ParseStatic(writer, buildZip(t, fixtureSimple()))
			require.NoError(t, err)
			assert.Equal(t, "2024-01-01", metadata.EarliestValidFrom)
			assert.Equal(t, "2025-01-01", metadata.LatestValidFrom)

			reader, err := s.GetReader("test")
			require.NoError(t, err)

			stops, err := reader.Stops()
			require.NoError(t, err)
			assert.Equal(t, []*model.Stop{
				{ID: "rynek", Name: "Rynek"},
				{ID: "dworzec", Name: "Dworzec PKP"},
			}, stops)

			platforms, err := reader.Platforms()
			require.NoError(t, err)
			assert.Equal(t, []*model.Platform{
				{ID: "rynek:south", ParentStop: "rynek", Lat: 51.75, Lng: 20.5},
				{ID: "dworzec:south", ParentStop: "dworzec", Lat: 51.76, Lng: 20.51, Description: "stand 3"},
			}, platforms)

			routes, err := reader.Routes()
			require.NoError(t, err)
			assert.Equal(t, []*model.Route{{
				ID:                  "rynek:south--dworzec:south",
				ParentPlatformStart: "rynek:south",
				ParentPlatformEnd:   "dworzec:south",
				Coordinates:         []model.Coordinate{{51.755, 20.505}},
			}}, routes)

			lines, err := reader.Lines()
			require.NoError(t, err)
			assert.Equal(t, []*model.Line{{ID: "line1", Name: "1", Color: "#e53935"}}, lines)

			directions, err := reader.Directions()
			require.NoError(t, err)
			assert.Equal(t, []*model.Direction{
				{ID: "line1:dworzec", Name: "Dworzec PKP", ParentLine: "line1"},
			}, directions)

			trips, err := reader.Trips()
			require.NoError(t, err)
			assert.Equal(t, []*model.Trip{{
				ID:              "line1:dworzec:weekday:1",
				Name:            "1",
				ParentDirection: "line1:dworzec",
				Stages: []model.Stage{
					{Platform: "rynek:south", Time: "08:00"},
					{Platform: "dworzec:south", Time: "08:07"},
				},
				DaysGroup:   model.DayTypeWeekday,
				DaysExclude: []string{"2024-12-24"},
			}}, trips)

			schedules, err := reader.Schedules()
			require.NoError(t, err)
			require.Equal(t, 2, len(schedules))
			assert.Equal(t, "2024-v1", schedules[0].ID)
			assert.Equal(t, []string{"line1"}, schedules[0].Lines)
			assert.Equal(t, []model.NonOperatingDay{
				{Date: "2024-12-25", Name: "Boże Narodzenie"},
			}, schedules[0].NonOperatingDays)
			assert.Equal(t, "2025-v1", schedules[1].ID)
			assert.Equal(t, []model.NonOperatingDay{
				{Date: "2025-01-01", Name: "Nowy Rok"},
			}, schedules[1].NonOperatingDays)
		})
	}
}

func TestParseMissingRequiredFile(t *testing.T) {
	for _, file := range requiredFiles {
		writer, err := storage.NewMemoryStorage().GetWriter("test")
		require.NoError(t, err)

		files := fixtureSimple()
		delete(files, file)
		_, err = ParseStatic(writer, buildZip(t, files))
		assert.Error(t, err, "missing "+file)
	}

	// Ok for non_operating_days.csv to be missing
	s := storage.NewMemoryStorage()
	writer, err := s.GetWriter("test")
	require.NoError(t, err)
	files := fixtureSimple()
	delete(files, "non_operating_days.csv")
	_, err = ParseStatic(writer, buildZip(t, files))
	require.NoError(t, err)

	reader, err := s.GetReader("test")
	require.NoError(t, err)
	schedules, err := reader.Schedules()
	require.NoError(t, err)
	for _, schedule := range schedules {
		assert.Equal(t, 0, len(schedule.NonOperatingDays))
	}
}

func TestParseZipWithSubdirectory(t *testing.T) {
	files := map[string][]string{}
	for name, content := range fixtureSimple() {
		files["timetable/"+name] = content
	}

	writer, err := storage.NewMemoryStorage().GetWriter("test")
	require.NoError(t, err)
	_, err = ParseStatic(writer, buildZip(t, files))
	assert.NoError(t, err)
}

func TestParseDir(t *testing.T) {
	dir := t.TempDir()
	for name, content := range fixtureSimple() {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(strings.Join(content, "\n")), 0644))
	}

	s := storage.NewMemoryStorage()
	writer, err := s.GetWriter("test")
	require.NoError(t, err)
	metadata, err := ParseDir(writer, dir)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01", metadata.EarliestValidFrom)

	reader, err := s.GetReader("test")
	require.NoError(t, err)
	trips, err := reader.Trips()
	require.NoError(t, err)
	assert.Equal(t, 1, len(trips))

	// Missing required file
	require.NoError(t, os.Remove(filepath.Join(dir, "trips.json")))
	writer, err = storage.NewMemoryStorage().GetWriter("test")
	require.NoError(t, err)
	_, err = ParseDir(writer, dir)
	assert.Error(t, err)
}

func TestParseByteOrderMark(t *testing.T) {
	files := fixtureSimple()
	files["stops.json"][0] = "\ufeff" + files["stops.json"][0]
	files["non_operating_days.csv"][0] = "\ufeff" + files["non_operating_days.csv"][0]

	s := storage.NewMemoryStorage()
	writer, err := s.GetWriter("test")
	require.NoError(t, err)
	_, err = ParseStatic(writer, buildZip(t, files))
	require.NoError(t, err)

	reader, err := s.GetReader("test")
	require.NoError(t, err)
	schedules, err := reader.Schedules()
	require.NoError(t, err)
	assert.Equal(t, 1, len(schedules[0].NonOperatingDays))
}

func TestParseDanglingReferencesAreKept(t *testing.T) {
	files := fixtureSimple()
	files["platforms.json"] = []string{
		`[{"id": "rynek:south", "parent_stop": "rynek", "lat": 51.75, "lng": 20.5},`,
		` {"id": "dworzec:south", "parent_stop": "dworzec", "lat": 51.76, "lng": 20.51},`,
		` {"id": "ghost:north", "parent_stop": "ghost", "lat": 51.7, "lng": 20.4}]`,
	}
	files["trips.json"] = []string{
		`[{"id": "t1", "name": "1", "parent_direction": "nope",`,
		`  "stages": [{"platform": "rynek:south", "time": "08:00"}, {"platform": "missing", "time": "08:05"}]}]`,
	}
	files["schedules.json"] = []string{
		`[{"id": "v1", "updated_at": "", "valid_from": "2024-01-01", "lines": ["line1", "line99"]}]`,
	}
	files["non_operating_days.csv"] = []string{
		"schedule_id,date,name",
		"unknown,2024-12-25,Boże Narodzenie",
	}

	s := storage.NewMemoryStorage()
	writer, err := s.GetWriter("test")
	require.NoError(t, err)
	_, err = ParseStatic(writer, buildZip(t, files))
	require.NoError(t, err)

	reader, err := s.GetReader("test")
	require.NoError(t, err)
	platforms, err := reader.Platforms()
	require.NoError(t, err)
	assert.Equal(t, 3, len(platforms))
	trips, err := reader.Trips()
	require.NoError(t, err)
	assert.Equal(t, 1, len(trips))
	schedules, err := reader.Schedules()
	require.NoError(t, err)
	assert.Equal(t, 0, len(schedules[0].NonOperatingDays))
}

func TestParseStructuralErrors(t *testing.T) {
	for _, tc := range []struct {
		name    string
		file    string
		content []string
	}{
		{"malformed json", "stops.json", []string{`[{"id": "a", "name": "A"}`}},
		{"not an array", "lines.json", []string{`{"id": "line1"}`}},
		{"null record", "lines.json", []string{`[null]`}},
		{"empty stop id", "stops.json", []string{`[{"id": "", "name": "A"}]`}},
		{"empty stop name", "stops.json", []string{`[{"id": "a", "name": ""}]`}},
		{"repeated stop", "stops.json", []string{`[{"id": "a", "name": "A"}, {"id": "a", "name": "B"}]`}},
		{"platform without coordinates", "platforms.json", []string{`[{"id": "rynek:south", "parent_stop": "rynek"}]`}},
		{"platform out of range", "platforms.json", []string{`[{"id": "rynek:south", "parent_stop": "rynek", "lat": 91, "lng": 20}]`}},
		{"repeated route", "routes.json", []string{`[{"id": "r"}, {"id": "r"}]`}},
		{"repeated line", "lines.json", []string{`[{"id": "l"}, {"id": "l"}]`}},
		{"repeated direction", "directions.json", []string{`[{"id": "d"}, {"id": "d"}]`}},
		{"bad stage time", "trips.json", []string{`[{"id": "t", "stages": [{"platform": "rynek:south", "time": "8:00"}]}]`}},
		{"stage hour too large", "trips.json", []string{`[{"id": "t", "stages": [{"platform": "rynek:south", "time": "24:10"}]}]`}},
		{"bad days group", "trips.json", []string{`[{"id": "t", "stages": [], "daysGroup": "holiday"}]`}},
		{"bad include date", "trips.json", []string{`[{"id": "t", "stages": [], "daysInclude": ["2024-13-01"]}]`}},
		{"bad exclude date", "trips.json", []string{`[{"id": "t", "stages": [], "daysExclude": ["20240101"]}]`}},
		{"repeated trip", "trips.json", []string{`[{"id": "t", "stages": []}, {"id": "t", "stages": []}]`}},
		{"bad valid_from", "schedules.json", []string{`[{"id": "v", "valid_from": "01.01.2024", "lines": []}]`}},
		{"no schedules", "schedules.json", []string{`[]`}},
		{"repeated schedule", "schedules.json", []string{`[{"id": "v", "valid_from": "2024-01-01"}, {"id": "v", "valid_from": "2025-01-01"}]`}},
		{"bad non-operating date", "non_operating_days.csv", []string{"schedule_id,date,name", "2024-v1,2024-02-30,x"}},
		{"repeated non-operating date", "non_operating_days.csv", []string{"schedule_id,date,name", "2024-v1,2024-12-25,x", "2024-v1,2024-12-25,y"}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			files := fixtureSimple()
			files[tc.file] = tc.content

			writer, err := storage.NewMemoryStorage().GetWriter("test")
			require.NoError(t, err)
			_, err = ParseStatic(writer, buildZip(t, files))
			assert.Error(t, err)
		})
	}
}

func TestParseOutOfOrderStagesWarnOnly(t *testing.T) {
	files := fixtureSimple()
	files["trips.json"] = []string{
		`[{"id": "t", "name": "t", "parent_direction": "line1:dworzec",`,
		`  "stages": [{"platform": "rynek:south", "time": "09:00"}, {"platform": "dworzec:south", "time": "08:50"}]}]`,
	}

	writer, err := storage.NewMemoryStorage().GetWriter("test")
	require.NoError(t, err)
	_, err = ParseStatic(writer, buildZip(t, files))
	assert.NoError(t, err)
}
