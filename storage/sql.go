package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Shared database/sql implementation of Storage. Queries use $N
// placeholders, which both the sqlite3 and postgres drivers accept.

const sqlSchema = `
CREATE TABLE IF NOT EXISTS feed (
    hash TEXT NOT NULL,
    source TEXT NOT NULL,
    retrieved_at TEXT NOT NULL,
    earliest_valid_from TEXT NOT NULL,
    latest_valid_from TEXT NOT NULL,
    PRIMARY KEY (hash, source)
);

CREATE TABLE IF NOT EXISTS stops (
    feed TEXT NOT NULL,
    seq INTEGER NOT NULL,
    id TEXT NOT NULL,
    name TEXT NOT NULL,
    PRIMARY KEY (feed, id)
);

CREATE TABLE IF NOT EXISTS platforms (
    feed TEXT NOT NULL,
    seq INTEGER NOT NULL,
    id TEXT NOT NULL,
    parent_stop TEXT NOT NULL,
    lat DOUBLE PRECISION NOT NULL,
    lng DOUBLE PRECISION NOT NULL,
    description TEXT NOT NULL,
    PRIMARY KEY (feed, id)
);

CREATE TABLE IF NOT EXISTS routes (
    feed TEXT NOT NULL,
    seq INTEGER NOT NULL,
    id TEXT NOT NULL,
    platform_start TEXT NOT NULL,
    platform_end TEXT NOT NULL,
    coordinates TEXT NOT NULL,
    PRIMARY KEY (feed, id)
);

CREATE TABLE IF NOT EXISTS lines (
    feed TEXT NOT NULL,
    seq INTEGER NOT NULL,
    id TEXT NOT NULL,
    name TEXT NOT NULL,
    color TEXT NOT NULL,
    PRIMARY KEY (feed, id)
);

CREATE TABLE IF NOT EXISTS directions (
    feed TEXT NOT NULL,
    seq INTEGER NOT NULL,
    id TEXT NOT NULL,
    name TEXT NOT NULL,
    parent_line TEXT NOT NULL,
    PRIMARY KEY (feed, id)
);

CREATE TABLE IF NOT EXISTS trips (
    feed TEXT NOT NULL,
    seq INTEGER NOT NULL,
    id TEXT NOT NULL,
    name TEXT NOT NULL,
    parent_direction TEXT NOT NULL,
    stages TEXT NOT NULL,
    days_group TEXT NOT NULL,
    days_include TEXT NOT NULL,
    days_exclude TEXT NOT NULL,
    PRIMARY KEY (feed, id)
);

CREATE TABLE IF NOT EXISTS schedules (
    feed TEXT NOT NULL,
    seq INTEGER NOT NULL,
    id TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    valid_from TEXT NOT NULL,
    lines TEXT NOT NULL,
    PRIMARY KEY (feed, id)
);

CREATE TABLE IF NOT EXISTS non_operating_days (
    feed TEXT NOT NULL,
    seq INTEGER NOT NULL,
    schedule_id TEXT NOT NULL,
    date TEXT NOT NULL,
    name TEXT NOT NULL
);`

// Fixed width so that retrieved_at sorts correctly as text.
const sqlTimeFormat = "2006-01-02T15:04:05.000000000Z"

var sqlFeedTables = []string{
	"stops",
	"platforms",
	"routes",
	"lines",
	"directions",
	"trips",
	"schedules",
	"non_operating_days",
}

type sqlStorage struct {
	db *sql.DB
}

type sqlFeedWriter struct {
	feed string
	tx   *sql.Tx
	seq  int
}

type sqlFeedReader struct {
	feed string
	db   *sql.DB
}

func createSQLSchema(db *sql.DB) error {
	// Not all drivers accept multiple statements per Exec.
	for _, stmt := range strings.Split(sqlSchema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *sqlStorage) ListFeeds(filter ListFeedsFilter) ([]*FeedMetadata, error) {
	query := `
SELECT
    hash,
    source,
    retrieved_at,
    earliest_valid_from,
    latest_valid_from
FROM feed`

	conditions := []string{}
	params := []interface{}{}
	if filter.Source != "" {
		params = append(params, filter.Source)
		conditions = append(conditions, fmt.Sprintf("source = $%d", len(params)))
	}
	if filter.Hash != "" {
		params = append(params, filter.Hash)
		conditions = append(conditions, fmt.Sprintf("hash = $%d", len(params)))
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY retrieved_at DESC"

	rows, err := s.db.Query(query, params...)
	if err != nil {
		return nil, fmt.Errorf("listing feeds: %w", err)
	}
	defer rows.Close()

	feeds := []*FeedMetadata{}
	for rows.Next() {
		var feed FeedMetadata
		var retrievedAt string
		err := rows.Scan(
			&feed.Hash,
			&feed.Source,
			&retrievedAt,
			&feed.EarliestValidFrom,
			&feed.LatestValidFrom,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning feed: %w", err)
		}
		feed.RetrievedAt, err = time.Parse(sqlTimeFormat, retrievedAt)
		if err != nil {
			return nil, fmt.Errorf("parsing retrieved_at: %w", err)
		}
		feeds = append(feeds, &feed)
	}

	return feeds, rows.Err()
}

func (s *sqlStorage) WriteFeedMetadata(metadata *FeedMetadata) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`DELETE FROM feed WHERE hash = $1 AND source = $2`,
		metadata.Hash, metadata.Source,
	)
	if err != nil {
		return fmt.Errorf("deleting feed: %w", err)
	}

	_, err = tx.Exec(`
INSERT INTO feed (hash, source, retrieved_at, earliest_valid_from, latest_valid_from)
VALUES ($1, $2, $3, $4, $5)`,
		metadata.Hash,
		metadata.Source,
		metadata.RetrievedAt.UTC().Format(sqlTimeFormat),
		metadata.EarliestValidFrom,
		metadata.LatestValidFrom,
	)
	if err != nil {
		return fmt.Errorf("inserting feed: %w", err)
	}

	return tx.Commit()
}

func (s *sqlStorage) GetReader(feed string) (FeedReader, error) {
	return &sqlFeedReader{feed: feed, db: s.db}, nil
}

func (s *sqlStorage) GetWriter(feed string) (FeedWriter, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}

	for _, table := range sqlFeedTables {
		_, err = tx.Exec(fmt.Sprintf("DELETE FROM %s WHERE feed = $1", table), feed)
		if err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	return &sqlFeedWriter{feed: feed, tx: tx}, nil
}

func (w *sqlFeedWriter) insert(table string, columns []string, values ...interface{}) error {
	if w.tx == nil {
		return fmt.Errorf("writer is closed")
	}

	w.seq++
	placeholders := make([]string, 0, len(columns)+2)
	for i := 0; i < len(columns)+2; i++ {
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+1))
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (feed, seq, %s) VALUES (%s)",
		table,
		strings.Join(columns, ", "),
		strings.Join(placeholders, ", "),
	)

	_, err := w.tx.Exec(query, append([]interface{}{w.feed, w.seq}, values...)...)
	if err != nil {
		return fmt.Errorf("inserting into %s: %w", table, err)
	}
	return nil
}

func marshalText(v interface{}) (string, error) {
	buf, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(buf), nil
}

func (w *sqlFeedWriter) WriteStop(stop *Stop) error {
	return w.insert("stops", []string{"id", "name"}, stop.ID, stop.Name)
}

func (w *sqlFeedWriter) WritePlatform(p *Platform) error {
	return w.insert(
		"platforms",
		[]string{"id", "parent_stop", "lat", "lng", "description"},
		p.ID, p.ParentStop, p.Lat, p.Lng, p.Description,
	)
}

func (w *sqlFeedWriter) WriteRoute(route *Route) error {
	coords, err := marshalText(route.Coordinates)
	if err != nil {
		return fmt.Errorf("marshaling coordinates: %w", err)
	}
	return w.insert(
		"routes",
		[]string{"id", "platform_start", "platform_end", "coordinates"},
		route.ID, route.ParentPlatformStart, route.ParentPlatformEnd, coords,
	)
}

func (w *sqlFeedWriter) WriteLine(line *Line) error {
	return w.insert("lines", []string{"id", "name", "color"}, line.ID, line.Name, line.Color)
}

func (w *sqlFeedWriter) WriteDirection(d *Direction) error {
	return w.insert("directions", []string{"id", "name", "parent_line"}, d.ID, d.Name, d.ParentLine)
}

func (w *sqlFeedWriter) WriteTrip(trip *Trip) error {
	stages, err := marshalText(trip.Stages)
	if err != nil {
		return fmt.Errorf("marshaling stages: %w", err)
	}
	include, err := marshalText(trip.DaysInclude)
	if err != nil {
		return fmt.Errorf("marshaling daysInclude: %w", err)
	}
	exclude, err := marshalText(trip.DaysExclude)
	if err != nil {
		return fmt.Errorf("marshaling daysExclude: %w", err)
	}
	return w.insert(
		"trips",
		[]string{"id", "name", "parent_direction", "stages", "days_group", "days_include", "days_exclude"},
		trip.ID, trip.Name, trip.ParentDirection, stages, string(trip.DaysGroup), include, exclude,
	)
}

func (w *sqlFeedWriter) WriteSchedule(schedule *Schedule) error {
	lines, err := marshalText(schedule.Lines)
	if err != nil {
		return fmt.Errorf("marshaling lines: %w", err)
	}
	err = w.insert(
		"schedules",
		[]string{"id", "updated_at", "valid_from", "lines"},
		schedule.ID, schedule.UpdatedAt, schedule.ValidFrom, lines,
	)
	if err != nil {
		return err
	}
	for i := range schedule.NonOperatingDays {
		err = w.WriteNonOperatingDay(schedule.ID, &schedule.NonOperatingDays[i])
		if err != nil {
			return err
		}
	}
	return nil
}

func (w *sqlFeedWriter) WriteNonOperatingDay(scheduleID string, day *NonOperatingDay) error {
	return w.insert(
		"non_operating_days",
		[]string{"schedule_id", "date", "name"},
		scheduleID, day.Date, day.Name,
	)
}

// Commits everything written. Calling Close more than once is a
// no-op.
func (w *sqlFeedWriter) Close() error {
	if w.tx == nil {
		return nil
	}
	tx := w.tx
	w.tx = nil
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing: %w", err)
	}
	return nil
}

func (r *sqlFeedReader) query(table string, columns string) (*sql.Rows, error) {
	rows, err := r.db.Query(
		fmt.Sprintf("SELECT %s FROM %s WHERE feed = $1 ORDER BY seq", columns, table),
		r.feed,
	)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", table, err)
	}
	return rows, nil
}

func (r *sqlFeedReader) Stops() ([]*Stop, error) {
	rows, err := r.query("stops", "id, name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stops := []*Stop{}
	for rows.Next() {
		s := &Stop{}
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, fmt.Errorf("scanning stop: %w", err)
		}
		stops = append(stops, s)
	}
	return stops, rows.Err()
}

func (r *sqlFeedReader) Platforms() ([]*Platform, error) {
	rows, err := r.query("platforms", "id, parent_stop, lat, lng, description")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	platforms := []*Platform{}
	for rows.Next() {
		p := &Platform{}
		if err := rows.Scan(&p.ID, &p.ParentStop, &p.Lat, &p.Lng, &p.Description); err != nil {
			return nil, fmt.Errorf("scanning platform: %w", err)
		}
		platforms = append(platforms, p)
	}
	return platforms, rows.Err()
}

func (r *sqlFeedReader) Routes() ([]*Route, error) {
	rows, err := r.query("routes", "id, platform_start, platform_end, coordinates")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	routes := []*Route{}
	for rows.Next() {
		route := &Route{}
		var coords string
		if err := rows.Scan(&route.ID, &route.ParentPlatformStart, &route.ParentPlatformEnd, &coords); err != nil {
			return nil, fmt.Errorf("scanning route: %w", err)
		}
		if err := json.Unmarshal([]byte(coords), &route.Coordinates); err != nil {
			return nil, fmt.Errorf("unmarshaling coordinates of route '%s': %w", route.ID, err)
		}
		routes = append(routes, route)
	}
	return routes, rows.Err()
}

func (r *sqlFeedReader) Lines() ([]*Line, error) {
	rows, err := r.query("lines", "id, name, color")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lines := []*Line{}
	for rows.Next() {
		l := &Line{}
		if err := rows.Scan(&l.ID, &l.Name, &l.Color); err != nil {
			return nil, fmt.Errorf("scanning line: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (r *sqlFeedReader) Directions() ([]*Direction, error) {
	rows, err := r.query("directions", "id, name, parent_line")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	directions := []*Direction{}
	for rows.Next() {
		d := &Direction{}
		if err := rows.Scan(&d.ID, &d.Name, &d.ParentLine); err != nil {
			return nil, fmt.Errorf("scanning direction: %w", err)
		}
		directions = append(directions, d)
	}
	return directions, rows.Err()
}

func (r *sqlFeedReader) Trips() ([]*Trip, error) {
	rows, err := r.query("trips", "id, name, parent_direction, stages, days_group, days_include, days_exclude")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	trips := []*Trip{}
	for rows.Next() {
		t := &Trip{}
		var stages, daysGroup, include, exclude string
		err := rows.Scan(&t.ID, &t.Name, &t.ParentDirection, &stages, &daysGroup, &include, &exclude)
		if err != nil {
			return nil, fmt.Errorf("scanning trip: %w", err)
		}
		if err := json.Unmarshal([]byte(stages), &t.Stages); err != nil {
			return nil, fmt.Errorf("unmarshaling stages of trip '%s': %w", t.ID, err)
		}
		if err := json.Unmarshal([]byte(include), &t.DaysInclude); err != nil {
			return nil, fmt.Errorf("unmarshaling daysInclude of trip '%s': %w", t.ID, err)
		}
		if err := json.Unmarshal([]byte(exclude), &t.DaysExclude); err != nil {
			return nil, fmt.Errorf("unmarshaling daysExclude of trip '%s': %w", t.ID, err)
		}
		t.DaysGroup = DayType(daysGroup)
		trips = append(trips, t)
	}
	return trips, rows.Err()
}

func (r *sqlFeedReader) Schedules() ([]*Schedule, error) {
	rows, err := r.query("schedules", "id, updated_at, valid_from, lines")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	schedules := []*Schedule{}
	byID := map[string]*Schedule{}
	for rows.Next() {
		s := &Schedule{}
		var lines string
		if err := rows.Scan(&s.ID, &s.UpdatedAt, &s.ValidFrom, &lines); err != nil {
			return nil, fmt.Errorf("scanning schedule: %w", err)
		}
		if err := json.Unmarshal([]byte(lines), &s.Lines); err != nil {
			return nil, fmt.Errorf("unmarshaling lines of schedule '%s': %w", s.ID, err)
		}
		schedules = append(schedules, s)
		byID[s.ID] = s
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	dayRows, err := r.query("non_operating_days", "schedule_id, date, name")
	if err != nil {
		return nil, err
	}
	defer dayRows.Close()

	for dayRows.Next() {
		var scheduleID string
		var day NonOperatingDay
		if err := dayRows.Scan(&scheduleID, &day.Date, &day.Name); err != nil {
			return nil, fmt.Errorf("scanning non_operating_day: %w", err)
		}
		if s, found := byID[scheduleID]; found {
			s.NonOperatingDays = append(s.NonOperatingDays, day)
		}
	}

	return schedules, dayRows.Err()
}
