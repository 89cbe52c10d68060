// Package ical exports calendar occurrences as an iCalendar (RFC 5545) feed.
package ical

import (
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"trainingportal/internal/domain"
)

const productID = "-//Training Portal//Calendar Feed//EN"

// Encoder implements domain.ICSEncoder. Every occurrence becomes its own VEVENT with a UID of
// the event ID and the occurrence start, so clients see recurring sessions as separate entries.
type Encoder struct {
	name string
	now  func() time.Time
}

var _ domain.ICSEncoder = (*Encoder)(nil)

// NewEncoder returns an Encoder that names the calendar name.
func NewEncoder(name string) *Encoder {
	return &Encoder{name: name, now: time.Now}
}

func (e *Encoder) Encode(events []domain.CalendarEvent) ([]byte, error) {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)
	if e.name != "" {
		cal.SetXWRCalName(e.name)
	}

	stamp := e.now().UTC()
	for _, ev := range events {
		vev := cal.AddEvent(OccurrenceUID(ev))
		vev.SetDtStampTime(stamp)
		vev.SetStartAt(ev.StartTime.UTC())
		vev.SetEndAt(ev.EndTime.UTC())
		vev.SetSummary(ev.Title)
		if ev.Description != "" {
			vev.SetDescription(ev.Description)
		}
		if ev.Location != "" {
			vev.SetLocation(ev.Location)
		}
		if ev.Category != "" {
			vev.AddProperty(ics.ComponentPropertyCategories, strings.ToUpper(ev.Category))
		}
		if !ev.UpdatedAt.IsZero() {
			vev.SetModifiedAt(ev.UpdatedAt.UTC())
		}
	}
	return []byte(cal.Serialize()), nil
}

// OccurrenceUID returns the stable iCalendar UID of one occurrence.
func OccurrenceUID(ev domain.CalendarEvent) string {
	return ev.ID + "-" + ev.StartTime.UTC().Format("20060102T150405Z") + "@training-portal"
}
