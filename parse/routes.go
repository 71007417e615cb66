package parse

import (
	"fmt"
	"io"

	"github.com/rs/zerolog/log"

	"busboard.dev/timetable/model"
	"busboard.dev/timetable/storage"
)

// Parses road geometry between platform pairs.
func ParseRoutes(
	writer storage.FeedWriter,
	data io.Reader,
	platforms map[string]bool,
) error {
	routes, err := decodeArray[model.Route](data)
	if err != nil {
		return err
	}

	routeIDs := map[string]bool{}
	for i, r := range routes {
		if r.ID == "" {
			return fmt.Errorf("empty id (record %d)", i)
		}
		if routeIDs[r.ID] {
			return fmt.Errorf("repeated route id '%s'", r.ID)
		}
		routeIDs[r.ID] = true

		for _, endpoint := range []string{r.ParentPlatformStart, r.ParentPlatformEnd} {
			if !platforms[endpoint] {
				log.Warn().
					Str("segment", r.ID).
					Str("platform", endpoint).
					Msg("route references unknown platform")
			}
		}

		if r.Coordinates == nil {
			r.Coordinates = []model.Coordinate{}
		}

		if err := writer.WriteRoute(r); err != nil {
			return fmt.Errorf("writing route '%s': %w", r.ID, err)
		}
	}

	return nil
}
