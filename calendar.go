package timetable

import (
	"time"

	"busboard.dev/timetable/model"
)

// Upper bound on the number of days NextOperatingDay will look
// ahead.
const MaxOperatingDaySearch = 366

// Resolves whether service operates on a given date, and under which
// day type.
type Calendar struct {
	nonOperating map[string]string
}

func NewCalendar(days []model.NonOperatingDay) *Calendar {
	c := &Calendar{nonOperating: map[string]string{}}
	for _, d := range days {
		c.nonOperating[d.Date] = d.Name
	}
	return c
}

// Returns the service status of the date. A listed non-operating
// date has no day type, any other date is a weekday or weekend.
func (c *Calendar) ServiceStatus(date time.Time) model.ServiceStatus {
	if name, found := c.nonOperating[date.Format(model.DateFormat)]; found {
		return model.ServiceStatus{
			IsOperating: false,
			DayType:     model.DayTypeNone,
			Reason:      name,
		}
	}
	return model.ServiceStatus{
		IsOperating: true,
		DayType:     model.DayTypeOf(date),
	}
}

func (c *Calendar) IsOperating(date time.Time) bool {
	_, found := c.nonOperating[date.Format(model.DateFormat)]
	return !found
}

// Returns the first operating date strictly after from, at midnight
// in from's location. The search gives up after
// MaxOperatingDaySearch days.
func (c *Calendar) NextOperatingDay(from time.Time) (time.Time, bool) {
	day := startOfDay(from)
	for i := 1; i <= MaxOperatingDaySearch; i++ {
		next := day.AddDate(0, 0, i)
		if c.IsOperating(next) {
			return next, true
		}
	}
	return time.Time{}, false
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
