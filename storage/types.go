package storage

import "busboard.dev/timetable/model"

// Aliases so storage implementations and callers can refer to the
// model types without the extra import.
type (
	Stop            = model.Stop
	Platform        = model.Platform
	Route           = model.Route
	Line            = model.Line
	Direction       = model.Direction
	Trip            = model.Trip
	Stage           = model.Stage
	Schedule        = model.Schedule
	NonOperatingDay = model.NonOperatingDay
	Coordinate      = model.Coordinate
	DayType         = model.DayType
)
