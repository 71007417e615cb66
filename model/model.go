package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Holds all external facing types and constants.

// Dates are always given as YYYY-MM-DD, which compares correctly as
// a string.
const DateFormat = "2006-01-02"

type DayType string

const (
	DayTypeNone    DayType = ""
	DayTypeWeekday DayType = "weekday"
	DayTypeWeekend DayType = "weekend"
)

func (d DayType) Valid() bool {
	return d == DayTypeWeekday || d == DayTypeWeekend
}

// Returns the day type a date falls on, ignoring holidays.
func DayTypeOf(date time.Time) DayType {
	switch date.Weekday() {
	case time.Saturday, time.Sunday:
		return DayTypeWeekend
	}
	return DayTypeWeekday
}

type Stop struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// A boarding point of a Stop. The ID is on the form
// "{stop_id}:{suffix}", suffix usually being "north" or "south".
type Platform struct {
	ID          string  `json:"id"`
	ParentStop  string  `json:"parent_stop"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	Description string  `json:"description,omitempty"`
}

// Returns the suffix of the platform ID, e.g. "south" for
// "kazimierza-wielkiego:south".
func (p *Platform) Direction() string {
	i := strings.LastIndex(p.ID, ":")
	if i < 0 {
		return ""
	}
	return p.ID[i+1:]
}

func (p *Platform) Coordinate() Coordinate {
	return Coordinate{p.Lat, p.Lng}
}

// Road following geometry between two platforms. Coordinates holds
// only the interior points.
type Route struct {
	ID                  string       `json:"id"`
	ParentPlatformStart string       `json:"parent_platform_start"`
	ParentPlatformEnd   string       `json:"parent_platform_end"`
	Coordinates         []Coordinate `json:"coordinates"`
}

type Line struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

type Direction struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	ParentLine string `json:"parent_line"`
}

type Stage struct {
	Platform string `json:"platform"`
	Time     string `json:"time"`
}

type Trip struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	ParentDirection string   `json:"parent_direction"`
	Stages          []Stage  `json:"stages"`
	DaysGroup       DayType  `json:"daysGroup,omitempty"`
	DaysInclude     []string `json:"daysInclude,omitempty"`
	DaysExclude     []string `json:"daysExclude,omitempty"`
}

// Time of the first stage, or "" for a trip without stages.
func (t *Trip) FirstTime() string {
	if len(t.Stages) == 0 {
		return ""
	}
	return t.Stages[0].Time
}

// A dated schedule version, declaring the set of active lines.
type Schedule struct {
	ID               string            `json:"id"`
	UpdatedAt        string            `json:"updated_at"`
	ValidFrom        string            `json:"valid_from"`
	Lines            []string          `json:"lines"`
	NonOperatingDays []NonOperatingDay `json:"non_operating_days,omitempty"`
}

// A date on which no service operates at all, e.g. a public
// holiday.
type NonOperatingDay struct {
	Date string `json:"date"`
	Name string `json:"name"`
}

type ServiceStatus struct {
	IsOperating bool
	DayType     DayType
	Reason      string
}

// A [lat, lng] pair.
type Coordinate [2]float64

func (c Coordinate) Lat() float64 { return c[0] }
func (c Coordinate) Lng() float64 { return c[1] }

// A bus departing from a stop.
type Departure struct {
	LineID          string
	LineName        string
	LineColor       string
	DirectionID     string
	DestinationName string
	PlatformID      string
	TripID          string
	Time            string
	MinutesUntil    int
}

// An entry in the canonical stop sequence of a direction. The same
// stop can occur at several positions on loop routes.
type StopEntry struct {
	Position   int
	StopID     string
	StopName   string
	PlatformID string
}

type DirectionInfo struct {
	LineID        string
	LineName      string
	LineColor     string
	DirectionID   string
	DirectionName string
}

// A platform served by at least one direction, for map display.
type PlatformMarker struct {
	StopID     string
	StopName   string
	PlatformID string
	Lat        float64
	Lng        float64
	Directions []DirectionInfo
}

// Parses a "HH:MM" wall clock time into an offset from midnight.
func ParseClock(s string) (time.Duration, error) {
	hh, mm, found := strings.Cut(s, ":")
	if !found || len(hh) != 2 || len(mm) != 2 {
		return 0, fmt.Errorf("'%s' is not on form HH:MM", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour in '%s'", s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute in '%s'", s)
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute, nil
}

// Validates a YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateFormat, s, time.UTC)
}
