package migrate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"busboard.dev/timetable/storage"
)

const StopIDMigrationFile = "stop-id-migration.json"

func writeJSON(path string, v interface{}) error {
	buf, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", filepath.Base(path), err)
	}
	buf = append(buf, '\n')
	if err := os.WriteFile(path, buf, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	return nil
}

// Writes the seven collections as JSON files into dir, plus the
// legacy stop ID map used for migrating client side settings.
func (r *Result) WriteDataset(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	for _, f := range []struct {
		name string
		v    interface{}
	}{
		{"stops.json", r.Stops},
		{"platforms.json", r.Platforms},
		{"routes.json", r.Routes},
		{"lines.json", r.Lines},
		{"directions.json", r.Directions},
		{"trips.json", r.Trips},
		{"schedules.json", r.Schedules},
	} {
		if err := writeJSON(filepath.Join(dir, f.name), f.v); err != nil {
			return err
		}
	}

	stopIDs := map[string]string{}
	for oldID, newID := range r.StopIDMap {
		stopIDs[strconv.Itoa(oldID)] = newID
	}
	return writeJSON(filepath.Join(dir, StopIDMigrationFile), stopIDs)
}

// Writes the collections into a feed, closing the writer when done.
func (d *Dataset) Write(writer storage.FeedWriter) error {
	for _, s := range d.Stops {
		if err := writer.WriteStop(s); err != nil {
			return fmt.Errorf("writing stop: %w", err)
		}
	}
	for _, p := range d.Platforms {
		if err := writer.WritePlatform(p); err != nil {
			return fmt.Errorf("writing platform: %w", err)
		}
	}
	for _, r := range d.Routes {
		if err := writer.WriteRoute(r); err != nil {
			return fmt.Errorf("writing route: %w", err)
		}
	}
	for _, l := range d.Lines {
		if err := writer.WriteLine(l); err != nil {
			return fmt.Errorf("writing line: %w", err)
		}
	}
	for _, dir := range d.Directions {
		if err := writer.WriteDirection(dir); err != nil {
			return fmt.Errorf("writing direction: %w", err)
		}
	}
	for _, t := range d.Trips {
		if err := writer.WriteTrip(t); err != nil {
			return fmt.Errorf("writing trip: %w", err)
		}
	}
	for _, s := range d.Schedules {
		if err := writer.WriteSchedule(s); err != nil {
			return fmt.Errorf("writing schedule: %w", err)
		}
	}
	return writer.Close()
}
