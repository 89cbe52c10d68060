package calendar

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"trainingportal/internal/domain"
)

// DefaultMaxOccurrences caps the expansion of a single recurring event.
const DefaultMaxOccurrences = 1000

// ParseRecurrenceRule parses an RRULE body such as "FREQ=WEEKLY;BYDAY=MO,WE;COUNT=10".
// A leading "RRULE:" is accepted.
func ParseRecurrenceRule(rule string, start time.Time) (*rrule.RRule, error) {
	rule = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(rule), "RRULE:"))
	if rule == "" {
		return nil, errors.New("empty recurrence rule")
	}
	r, err := rrule.StrToRRule(rule)
	if err != nil {
		return nil, fmt.Errorf("parse recurrence rule: %w", err)
	}
	r.DTStart(start)
	return r, nil
}

// ExpandOccurrences turns events into concrete occurrences overlapping [from, to). Recurring
// events yield one copy per occurrence with shifted start and end (duration preserved).
// The result is sorted by start time; ties keep input order.
func ExpandOccurrences(events []*domain.CalendarEvent, from, to time.Time, maxPerEvent int) ([]domain.CalendarEvent, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("%w: range end before start", ErrInvalidArgument)
	}
	if maxPerEvent <= 0 {
		maxPerEvent = DefaultMaxOccurrences
	}

	out := make([]domain.CalendarEvent, 0, len(events))
	for _, e := range events {
		if !e.Recurring() {
			if overlaps(e.StartTime, e.EndTime, from, to) {
				out = append(out, *e)
			}
			continue
		}

		r, err := ParseRecurrenceRule(e.RecurrenceRule, e.StartTime)
		if err != nil {
			return nil, fmt.Errorf("event %s: %w", e.ID, err)
		}
		dur := e.EndTime.Sub(e.StartTime)
		starts := r.Between(from.Add(-dur), to, true)
		if len(starts) > maxPerEvent {
			starts = starts[:maxPerEvent]
		}
		for _, s := range starts {
			s = s.In(e.StartTime.Location())
			if !overlaps(s, s.Add(dur), from, to) {
				continue
			}
			occ := *e
			occ.StartTime = s
			occ.EndTime = s.Add(dur)
			out = append(out, occ)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out, nil
}

// overlaps reports whether [start, end] intersects [from, to). Zero-length events count when
// they start inside the range.
func overlaps(start, end, from, to time.Time) bool {
	if !start.Before(to) {
		return false
	}
	if end.Equal(start) {
		return !start.Before(from)
	}
	return end.After(from)
}
