package parse

import (
	"fmt"
	"io"

	"busboard.dev/timetable/model"
	"busboard.dev/timetable/storage"
)

func ParseLines(writer storage.FeedWriter, data io.Reader) (map[string]bool, error) {
	lines, err := decodeArray[model.Line](data)
	if err != nil {
		return nil, err
	}

	lineIDs := map[string]bool{}
	for i, l := range lines {
		if l.ID == "" {
			return nil, fmt.Errorf("empty id (record %d)", i)
		}
		if lineIDs[l.ID] {
			return nil, fmt.Errorf("repeated line id '%s'", l.ID)
		}
		lineIDs[l.ID] = true

		if err := writer.WriteLine(l); err != nil {
			return nil, fmt.Errorf("writing line '%s': %w", l.ID, err)
		}
	}

	return lineIDs, nil
}
