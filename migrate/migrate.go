package migrate

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"busboard.dev/timetable/model"
)

const (
	DefaultScheduleID = "2025-v1"
	DefaultValidFrom  = "2025-01-01"
)

var segmentKey = regexp.MustCompile(`^(\d+)-([AB])_(\d+)-([AB])$`)

type Options struct {
	// ID and valid_from of the single schedule version produced.
	ScheduleID string
	ValidFrom  string

	// Direction ID suffixes keyed on legacy direction ID, e.g.
	// "5-circular": "loop". See directionSuffix for the fallback.
	DirectionSuffixes map[string]string
}

// The seven relational collections.
type Dataset struct {
	Stops      []*model.Stop
	Platforms  []*model.Platform
	Routes     []*model.Route
	Lines      []*model.Line
	Directions []*model.Direction
	Trips      []*model.Trip
	Schedules  []*model.Schedule
}

type Result struct {
	Dataset

	// Legacy numeric stop ID to new stop ID.
	StopIDMap map[int]string

	// Stages dropped since neither platform of the stop exists.
	SkippedStages int

	// Shape segments dropped due to malformed keys or unknown
	// platforms.
	SkippedSegments int

	// Stages mapped to the other platform of their stop.
	PlatformFallbacks int
}

// Suffix of a migrated direction ID. Explicit suffixes win, then
// legacy IDs heading to or from the southern terminus map to south
// and north, then the slugified direction name.
func directionSuffix(d LegacyDirection, explicit map[string]string) string {
	if suffix, found := explicit[d.ID]; found {
		return suffix
	}
	switch {
	case strings.Contains(d.ID, "from-mrowka"), strings.Contains(d.ID, "from-domki"):
		return "north"
	case strings.Contains(d.ID, "to-mrowka"), strings.Contains(d.ID, "to-domki"):
		return "south"
	}
	return Slugify(d.Name)
}

// Platform letter A is southbound, B northbound.
func platformSuffix(letter string) string {
	if letter == "A" {
		return "south"
	}
	return "north"
}

func otherLetter(letter string) string {
	if letter == "A" {
		return "B"
	}
	return "A"
}

func legacyPlatformKey(stopID int, letter string) string {
	return fmt.Sprintf("%d-%s", stopID, letter)
}

func nonOperatingDate(d LegacyNonOperatingDay) (string, error) {
	date := fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
	if _, err := model.ParseDate(date); err != nil {
		return "", fmt.Errorf("invalid non-operating day %+v", d)
	}
	return date, nil
}

// Converts the legacy format into the relational collections.
//
// Malformed shape keys and stages referencing missing platforms are
// logged and skipped. Invalid options or non-operating dates are
// errors.
func Migrate(schedules *LegacySchedules, shapes *LegacyShapes, opts Options) (*Result, error) {
	if opts.ScheduleID == "" {
		opts.ScheduleID = DefaultScheduleID
	}
	if opts.ValidFrom == "" {
		opts.ValidFrom = DefaultValidFrom
	}
	if _, err := model.ParseDate(opts.ValidFrom); err != nil {
		return nil, fmt.Errorf("parsing valid_from: %w", err)
	}

	result := &Result{
		Dataset: Dataset{
			Stops:      []*model.Stop{},
			Platforms:  []*model.Platform{},
			Routes:     []*model.Route{},
			Lines:      []*model.Line{},
			Directions: []*model.Direction{},
			Trips:      []*model.Trip{},
		},
		StopIDMap: map[int]string{},
	}

	// Stops
	usedStopIDs := map[string]bool{}
	for _, old := range schedules.Stops {
		id := Slugify(old.Name)
		if id == "" || usedStopIDs[id] {
			log.Warn().
				Int("stop", old.ID).
				Str("name", old.Name).
				Msg("stop name does not give a unique id, appending legacy id")
			id = strings.Trim(fmt.Sprintf("%s-%d", id, old.ID), "-")
		}
		usedStopIDs[id] = true
		result.StopIDMap[old.ID] = id
		result.Stops = append(result.Stops, &model.Stop{ID: id, Name: old.Name})
	}

	// Platforms
	platformIDMap := map[string]string{}
	for _, old := range schedules.Stops {
		stopID := result.StopIDMap[old.ID]
		for _, letter := range []string{"A", "B"} {
			p := old.Platforms[letter]
			if p == nil {
				continue
			}
			id := fmt.Sprintf("%s:%s", stopID, platformSuffix(letter))
			platformIDMap[legacyPlatformKey(old.ID, letter)] = id
			result.Platforms = append(result.Platforms, &model.Platform{
				ID:          id,
				ParentStop:  stopID,
				Lat:         p.Lat,
				Lng:         p.Lng,
				Description: p.Description,
			})
		}
	}

	// Routes, in key order for reproducible output
	if shapes != nil {
		keys := make([]string, 0, len(shapes.Segments))
		for key := range shapes.Segments {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for _, key := range keys {
			if strings.HasPrefix(key, "comment") {
				continue
			}

			match := segmentKey.FindStringSubmatch(key)
			if match == nil {
				log.Warn().Str("segment", key).Msg("skipping invalid segment key")
				result.SkippedSegments++
				continue
			}

			fromStop, _ := strconv.Atoi(match[1])
			toStop, _ := strconv.Atoi(match[3])
			start, startFound := platformIDMap[legacyPlatformKey(fromStop, match[2])]
			end, endFound := platformIDMap[legacyPlatformKey(toStop, match[4])]
			if !startFound || !endFound {
				log.Warn().Str("segment", key).Msg("could not map segment: missing platform")
				result.SkippedSegments++
				continue
			}

			segment := LegacySegment{}
			if err := json.Unmarshal(shapes.Segments[key], &segment); err != nil {
				log.Warn().Str("segment", key).Err(err).Msg("skipping malformed segment")
				result.SkippedSegments++
				continue
			}

			coords := make([]model.Coordinate, 0, len(segment.Coordinates))
			for _, c := range segment.Coordinates {
				coords = append(coords, model.Coordinate(c))
			}

			result.Routes = append(result.Routes, &model.Route{
				ID:                  fmt.Sprintf("%s--%s", start, end),
				ParentPlatformStart: start,
				ParentPlatformEnd:   end,
				Coordinates:         coords,
			})
		}
	}

	// Lines, directions and trips
	lineIDs := []string{}
	for _, oldLine := range schedules.Lines {
		lineID := fmt.Sprintf("line%d", oldLine.ID)
		lineIDs = append(lineIDs, lineID)
		result.Lines = append(result.Lines, &model.Line{
			ID:    lineID,
			Name:  oldLine.Name,
			Color: oldLine.Color,
		})

		usedDirectionIDs := map[string]bool{}
		for _, oldDirection := range oldLine.Directions {
			suffix := directionSuffix(oldDirection, opts.DirectionSuffixes)
			directionID := fmt.Sprintf("%s:%s", lineID, suffix)
			for n := 2; usedDirectionIDs[directionID]; n++ {
				directionID = fmt.Sprintf("%s:%s-%d", lineID, suffix, n)
			}
			usedDirectionIDs[directionID] = true

			result.Directions = append(result.Directions, &model.Direction{
				ID:         directionID,
				Name:       oldDirection.Name,
				ParentLine: lineID,
			})

			for _, group := range []struct {
				dayType  model.DayType
				schedule *LegacyDaySchedule
			}{
				{model.DayTypeWeekday, oldDirection.Schedules.Weekday},
				{model.DayTypeWeekend, oldDirection.Schedules.Weekend},
			} {
				if group.schedule == nil {
					continue
				}
				for _, oldTrip := range group.schedule.Trips {
					result.Trips = append(result.Trips, &model.Trip{
						ID:              fmt.Sprintf("%s:%s:%s", directionID, group.dayType, oldTrip.TripID),
						Name:            oldTrip.TripID,
						ParentDirection: directionID,
						Stages:          result.migrateStages(oldTrip, platformIDMap),
						DaysGroup:       group.dayType,
					})
				}
			}
		}
	}

	// A single schedule version covering all lines
	schedule := &model.Schedule{
		ID:        opts.ScheduleID,
		UpdatedAt: schedules.Metadata.LastUpdated,
		ValidFrom: opts.ValidFrom,
		Lines:     lineIDs,
	}
	for _, d := range schedules.Metadata.NonOperatingDays {
		date, err := nonOperatingDate(d)
		if err != nil {
			return nil, err
		}
		schedule.NonOperatingDays = append(schedule.NonOperatingDays, model.NonOperatingDay{
			Date: date,
			Name: d.Name,
		})
	}
	result.Schedules = []*model.Schedule{schedule}

	log.Info().
		Int("stops", len(result.Stops)).
		Int("platforms", len(result.Platforms)).
		Int("routes", len(result.Routes)).
		Int("lines", len(result.Lines)).
		Int("directions", len(result.Directions)).
		Int("trips", len(result.Trips)).
		Int("skipped_stages", result.SkippedStages).
		Int("skipped_segments", result.SkippedSegments).
		Msg("migrated legacy timetable")

	return result, nil
}

func (r *Result) migrateStages(trip LegacyTrip, platformIDMap map[string]string) []model.Stage {
	stages := make([]model.Stage, 0, len(trip.Stops))
	for _, stop := range trip.Stops {
		platformID, found := platformIDMap[legacyPlatformKey(stop.StopID, stop.Platform)]
		if !found {
			alternate := otherLetter(stop.Platform)
			platformID, found = platformIDMap[legacyPlatformKey(stop.StopID, alternate)]
			if found {
				log.Warn().
					Int("stop", stop.StopID).
					Str("requested", stop.Platform).
					Str("platform", platformID).
					Str("trip", trip.TripID).
					Msg("using alternate platform")
				r.PlatformFallbacks++
			}
		}
		if !found {
			log.Warn().
				Int("stop", stop.StopID).
				Str("requested", stop.Platform).
				Str("trip", trip.TripID).
				Msg("missing platform mapping, dropping stage")
			r.SkippedStages++
			continue
		}
		stages = append(stages, model.Stage{Platform: platformID, Time: stop.Time})
	}
	return stages
}
