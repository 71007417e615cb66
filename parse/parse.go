package parse

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/spkg/bom"

	"busboard.dev/timetable/storage"
)

// Files making up a timetable snapshot. All but the last are
// required.
const (
	StopsFile            = "stops.json"
	PlatformsFile        = "platforms.json"
	RoutesFile           = "routes.json"
	LinesFile            = "lines.json"
	DirectionsFile       = "directions.json"
	TripsFile            = "trips.json"
	SchedulesFile        = "schedules.json"
	NonOperatingDaysFile = "non_operating_days.csv"
)

var requiredFiles = []string{
	StopsFile,
	PlatformsFile,
	RoutesFile,
	LinesFile,
	DirectionsFile,
	TripsFile,
	SchedulesFile,
}

// Parses a zipped snapshot into the writer, closing the writer when
// done. The returned metadata only has the validity range set.
func ParseStatic(writer storage.FeedWriter, buf []byte) (*storage.FeedMetadata, error) {
	file := map[string]io.ReadCloser{}
	for _, name := range requiredFiles {
		file[name] = nil
	}
	file[NonOperatingDaysFile] = nil

	defer func() {
		for _, rc := range file {
			if rc != nil {
				rc.Close()
			}
		}
	}()

	r, err := zip.NewReader(bytes.NewReader(buf), int64(len(buf)))
	if err != nil {
		return nil, fmt.Errorf("unzipping: %w", err)
	}

	for _, f := range r.File {
		// Archives created by zipping a directory carry it as a
		// prefix.
		if f.FileInfo().IsDir() {
			continue
		}
		path := strings.Split(f.Name, "/")
		fName := path[len(path)-1]

		if _, found := file[fName]; !found {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", f.Name, err)
		}

		file[fName] = rc
	}

	return parseFiles(writer, file)
}

// Parses a snapshot from a directory holding the JSON files.
func ParseDir(writer storage.FeedWriter, dir string) (*storage.FeedMetadata, error) {
	file := map[string]io.ReadCloser{}
	defer func() {
		for _, rc := range file {
			if rc != nil {
				rc.Close()
			}
		}
	}()

	for _, name := range append(requiredFiles, NonOperatingDaysFile) {
		f, err := os.Open(filepath.Join(dir, name))
		if err != nil {
			if os.IsNotExist(err) {
				file[name] = nil
				continue
			}
			return nil, fmt.Errorf("opening %s: %w", name, err)
		}
		file[name] = f
	}

	return parseFiles(writer, file)
}

func parseFiles(writer storage.FeedWriter, file map[string]io.ReadCloser) (*storage.FeedMetadata, error) {
	for _, required := range requiredFiles {
		if file[required] == nil {
			return nil, fmt.Errorf("missing %s", required)
		}
	}

	// The BOM reader strips unicode BOMs if present.
	gocsv.SetCSVReader(func(in io.Reader) gocsv.CSVReader {
		return gocsv.LazyCSVReader(bom.NewReader(in))
	})

	stops, err := ParseStops(writer, file[StopsFile])
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", StopsFile, err)
	}

	platforms, err := ParsePlatforms(writer, file[PlatformsFile], stops)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", PlatformsFile, err)
	}

	err = ParseRoutes(writer, file[RoutesFile], platforms)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", RoutesFile, err)
	}

	lines, err := ParseLines(writer, file[LinesFile])
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", LinesFile, err)
	}

	directions, err := ParseDirections(writer, file[DirectionsFile], lines)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", DirectionsFile, err)
	}

	_, err = ParseTrips(writer, file[TripsFile], directions, platforms)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", TripsFile, err)
	}

	schedules, earliest, latest, err := ParseSchedules(writer, file[SchedulesFile], lines)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", SchedulesFile, err)
	}
	if len(schedules) == 0 {
		return nil, fmt.Errorf("no schedule versions in %s", SchedulesFile)
	}

	if file[NonOperatingDaysFile] != nil {
		_, err = ParseNonOperatingDays(writer, file[NonOperatingDaysFile], schedules)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", NonOperatingDaysFile, err)
		}
	}

	// All files parsed: close the writer.
	err = writer.Close()
	if err != nil {
		return nil, fmt.Errorf("closing feed writer: %w", err)
	}

	return &storage.FeedMetadata{
		EarliestValidFrom: earliest,
		LatestValidFrom:   latest,
	}, nil
}
