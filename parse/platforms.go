package parse

import (
	"fmt"
	"io"

	"github.com/rs/zerolog/log"

	"busboard.dev/timetable/model"
	"busboard.dev/timetable/storage"
)

// Parses platforms. A platform referencing an unknown stop is kept,
// but logged.
func ParsePlatforms(
	writer storage.FeedWriter,
	data io.Reader,
	stops map[string]bool,
) (map[string]bool, error) {
	platforms, err := decodeArray[model.Platform](data)
	if err != nil {
		return nil, err
	}

	platformIDs := map[string]bool{}
	for i, p := range platforms {
		if p.ID == "" {
			return nil, fmt.Errorf("empty id (record %d)", i)
		}
		if platformIDs[p.ID] {
			return nil, fmt.Errorf("repeated platform id '%s'", p.ID)
		}
		platformIDs[p.ID] = true

		if p.Lat < -90 || p.Lat > 90 || p.Lng < -180 || p.Lng > 180 {
			return nil, fmt.Errorf("coordinates out of range for platform '%s'", p.ID)
		}
		if p.Lat == 0 && p.Lng == 0 {
			return nil, fmt.Errorf("missing coordinates for platform '%s'", p.ID)
		}

		if !stops[p.ParentStop] {
			log.Warn().
				Str("platform", p.ID).
				Str("stop", p.ParentStop).
				Msg("platform references unknown stop")
		}

		if err := writer.WritePlatform(p); err != nil {
			return nil, fmt.Errorf("writing platform '%s': %w", p.ID, err)
		}
	}

	return platformIDs, nil
}
