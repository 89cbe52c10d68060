package calendar

import (
	"time"

	"trainingportal/internal/domain"
)

// Month identifies the target month of a grid. Month is zero-based; Location is the zone in
// which event start instants are read (UTC when nil).
type Month struct {
	Year     int
	Month    int
	Location *time.Location
}

func (m Month) location() *time.Location {
	if m.Location == nil {
		return time.UTC
	}
	return m.Location
}

// EventsForDay returns the events starting on the day of cell, in input order. Padding cells
// never match: their day number is ambiguous between the previous and the next month.
// Multi-day events only appear on their start day.
func EventsForDay(cell DayCell, target Month, events []domain.CalendarEvent) []domain.CalendarEvent {
	if !cell.InTargetMonth {
		return nil
	}
	loc := target.location()
	var out []domain.CalendarEvent
	for _, e := range events {
		start := e.StartTime.In(loc)
		if start.Day() == cell.DayNumber && int(start.Month())-1 == target.Month && start.Year() == target.Year {
			out = append(out, e)
		}
	}
	return out
}

// CountOnDate counts events whose start falls on the calendar date of day in loc.
func CountOnDate(day time.Time, loc *time.Location, events []domain.CalendarEvent) int {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := day.In(loc).Date()
	n := 0
	for _, e := range events {
		ey, em, ed := e.StartTime.In(loc).Date()
		if ey == y && em == m && ed == d {
			n++
		}
	}
	return n
}
