package parse

import (
	"fmt"
	"io"

	"busboard.dev/timetable/model"
	"busboard.dev/timetable/storage"
)

func ParseStops(writer storage.FeedWriter, data io.Reader) (map[string]bool, error) {
	stops, err := decodeArray[model.Stop](data)
	if err != nil {
		return nil, err
	}

	stopIDs := map[string]bool{}
	for i, stop := range stops {
		if stop.ID == "" {
			return nil, fmt.Errorf("empty id (record %d)", i)
		}
		if stopIDs[stop.ID] {
			return nil, fmt.Errorf("repeated stop id '%s'", stop.ID)
		}
		stopIDs[stop.ID] = true

		if stop.Name == "" {
			return nil, fmt.Errorf("empty name for stop '%s'", stop.ID)
		}

		if err := writer.WriteStop(stop); err != nil {
			return nil, fmt.Errorf("writing stop '%s': %w", stop.ID, err)
		}
	}

	return stopIDs, nil
}
