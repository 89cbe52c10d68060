// Package calendar builds month grids and places events on them.
package calendar

import (
	"errors"
	"fmt"
	"time"
)

// Grid dimensions. A month grid always has six Sunday-first weeks.
const (
	DaysPerWeek = 7
	GridRows    = 6
	GridSize    = GridRows * DaysPerWeek
)

// ErrInvalidArgument is returned for a month outside [0, 11].
var ErrInvalidArgument = errors.New("invalid argument")

// DayCell is one slot of a month grid. DayNumber belongs to the previous or next month when
// InTargetMonth is false.
type DayCell struct {
	DayNumber     int  `json:"day_number"`
	InTargetMonth bool `json:"in_target_month"`
}

// BuildMonthGrid returns the 42 cells displayed for the zero-based month of year: the tail of
// the previous month up to the first weekday, every day of the month, then days of the next
// month until the grid is full.
func BuildMonthGrid(year, month int) ([]DayCell, error) {
	if err := validateMonth(month); err != nil {
		return nil, err
	}

	lead := FirstWeekday(year, month)
	days := DaysInMonth(year, month)
	prevYear, prevMonth := previousMonth(year, month)
	prevDays := DaysInMonth(prevYear, prevMonth)

	cells := make([]DayCell, 0, GridSize)
	for i := 0; i < lead; i++ {
		cells = append(cells, DayCell{DayNumber: prevDays - lead + i + 1})
	}
	for d := 1; d <= days; d++ {
		cells = append(cells, DayCell{DayNumber: d, InTargetMonth: true})
	}
	for d := 1; len(cells) < GridSize; d++ {
		cells = append(cells, DayCell{DayNumber: d})
	}
	return cells, nil
}

// DaysInMonth returns the number of days of the zero-based month. Day 0 of the following month
// normalises to the last day of this one.
func DaysInMonth(year, month int) int {
	return time.Date(year, time.Month(month+2), 0, 0, 0, 0, 0, time.UTC).Day()
}

// FirstWeekday returns the weekday (0 = Sunday … 6 = Saturday) of day 1 of the zero-based month.
func FirstWeekday(year, month int) int {
	return int(time.Date(year, time.Month(month+1), 1, 0, 0, 0, 0, time.UTC).Weekday())
}

// GridStart returns midnight, in loc, of the date shown in the first cell of the grid.
func GridStart(year, month int, loc *time.Location) (time.Time, error) {
	if err := validateMonth(month); err != nil {
		return time.Time{}, err
	}
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(year, time.Month(month+1), 1-FirstWeekday(year, month), 0, 0, 0, 0, loc), nil
}

func previousMonth(year, month int) (int, int) {
	if month == 0 {
		return year - 1, 11
	}
	return year, month - 1
}

func validateMonth(month int) error {
	if month < 0 || month > 11 {
		return fmt.Errorf("%w: month %d outside [0, 11]", ErrInvalidArgument, month)
	}
	return nil
}
