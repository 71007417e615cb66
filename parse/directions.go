package parse

import (
	"fmt"
	"io"

	"github.com/rs/zerolog/log"

	"busboard.dev/timetable/model"
	"busboard.dev/timetable/storage"
)

func ParseDirections(
	writer storage.FeedWriter,
	data io.Reader,
	lines map[string]bool,
) (map[string]bool, error) {
	directions, err := decodeArray[model.Direction](data)
	if err != nil {
		return nil, err
	}

	directionIDs := map[string]bool{}
	for i, d := range directions {
		if d.ID == "" {
			return nil, fmt.Errorf("empty id (record %d)", i)
		}
		if directionIDs[d.ID] {
			return nil, fmt.Errorf("repeated direction id '%s'", d.ID)
		}
		directionIDs[d.ID] = true

		if !lines[d.ParentLine] {
			log.Warn().
				Str("direction", d.ID).
				Str("line", d.ParentLine).
				Msg("direction references unknown line")
		}

		if err := writer.WriteDirection(d); err != nil {
			return nil, fmt.Errorf("writing direction '%s': %w", d.ID, err)
		}
	}

	return directionIDs, nil
}
