package migrate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spkg/bom"
)

// The legacy monolithic format: schedules.json holding stops, lines,
// directions and trips, with numeric stop IDs and A/B platform
// letters, and shapes.json holding road geometry keyed on
// "{stop}-{platform}_{stop}-{platform}".

type LegacyPlatform struct {
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	Description string  `json:"description,omitempty"`
}

type LegacyStop struct {
	ID        int                        `json:"id"`
	Name      string                     `json:"name"`
	Platforms map[string]*LegacyPlatform `json:"platforms"`
}

type LegacyTripStop struct {
	StopID   int    `json:"stopId"`
	Platform string `json:"platform"`
	Time     string `json:"time"`
}

type LegacyTrip struct {
	TripID string           `json:"tripId"`
	Stops  []LegacyTripStop `json:"stops"`
}

type LegacyDaySchedule struct {
	Trips []LegacyTrip `json:"trips"`
}

type LegacyDirection struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Schedules struct {
		Weekday *LegacyDaySchedule `json:"weekday,omitempty"`
		Weekend *LegacyDaySchedule `json:"weekend,omitempty"`
	} `json:"schedules"`
}

type LegacyLine struct {
	ID            int               `json:"id"`
	Name          string            `json:"name"`
	Color         string            `json:"color"`
	OperatingDays []string          `json:"operatingDays,omitempty"`
	Directions    []LegacyDirection `json:"directions"`
}

type LegacyNonOperatingDay struct {
	Day   int    `json:"day"`
	Month int    `json:"month"`
	Year  int    `json:"year"`
	Name  string `json:"name"`
}

type LegacySchedules struct {
	Metadata struct {
		CityName         string                  `json:"cityName"`
		Timezone         string                  `json:"timezone"`
		LastUpdated      string                  `json:"lastUpdated"`
		NonOperatingDays []LegacyNonOperatingDay `json:"nonOperatingDays"`
	} `json:"metadata"`
	Stops []LegacyStop `json:"stops"`
	Lines []LegacyLine `json:"lines"`
}

type LegacySegment struct {
	Description string       `json:"description,omitempty"`
	Coordinates [][2]float64 `json:"coordinates"`
}

type LegacyShapes struct {
	// Values are kept raw since the map also carries free text
	// "comment..." entries.
	Segments map[string]json.RawMessage `json:"segments"`
}

func readJSON(path string, v interface{}) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := json.NewDecoder(bom.NewReader(f)).Decode(v); err != nil {
		return fmt.Errorf("decoding %s: %w", filepath.Base(path), err)
	}
	return nil
}

// Reads schedules.json and, if present, shapes.json from dir.
func ReadLegacy(dir string) (*LegacySchedules, *LegacyShapes, error) {
	schedules := &LegacySchedules{}
	if err := readJSON(filepath.Join(dir, "schedules.json"), schedules); err != nil {
		return nil, nil, fmt.Errorf("reading schedules: %w", err)
	}

	shapes := &LegacyShapes{}
	err := readJSON(filepath.Join(dir, "shapes.json"), shapes)
	if err != nil && !os.IsNotExist(err) {
		return nil, nil, fmt.Errorf("reading shapes: %w", err)
	}

	return schedules, shapes, nil
}
