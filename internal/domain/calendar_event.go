package domain

import (
	"context"
	"time"
)

// Event categories. Category only drives display styling.
const (
	CategoryTraining = "training"
	CategoryMeeting  = "meeting"
	CategoryCeremony = "ceremony"
	CategoryWorkshop = "workshop"
)

// Categories lists the known categories in display order.
var Categories = []string{CategoryTraining, CategoryMeeting, CategoryCeremony, CategoryWorkshop}

// ValidCategory reports whether c is a known category.
func ValidCategory(c string) bool {
	for _, k := range Categories {
		if k == c {
			return true
		}
	}
	return false
}

// CalendarEvent is a scheduled training session, meeting, ceremony or workshop.
// A non-empty RecurrenceRule (RFC 5545 RRULE body) makes the event repeat from StartTime.
// swagger:model CalendarEvent
type CalendarEvent struct {
	ID             string    `json:"id"`
	ProgramID      *string   `json:"program_id,omitempty"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Location       string    `json:"location"`
	Category       string    `json:"category"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	RecurrenceRule string    `json:"recurrence_rule,omitempty"`
	CreatedBy      string    `json:"created_by"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewCalendarEvent returns a new CalendarEvent. ID is typically set by the repository on create.
func NewCalendarEvent(title, category string, start, end time.Time, createdBy string) *CalendarEvent {
	return &CalendarEvent{
		Title:     title,
		Category:  category,
		StartTime: start,
		EndTime:   end,
		CreatedBy: createdBy,
	}
}

// Recurring reports whether the event has a recurrence rule.
func (e *CalendarEvent) Recurring() bool {
	return e.RecurrenceRule != ""
}

// EventFilter selects events in [From, To). Zero From/To leave that bound open.
// Restricted limits results to organisation-wide events plus those of VisibleProgramIDs.
type EventFilter struct {
	From              time.Time
	To                time.Time
	Category          string
	ProgramID         string
	Restricted        bool
	VisibleProgramIDs []string
}

// EventUpdate holds the optional fields of an event update. Nil fields are left unchanged.
type EventUpdate struct {
	Title          *string
	Description    *string
	Location       *string
	Category       *string
	StartTime      *time.Time
	EndTime        *time.Time
	RecurrenceRule *string
}

// MonthViewCell is one rendered cell of a month view.
// swagger:model MonthViewCell
type MonthViewCell struct {
	Date          time.Time       `json:"date"`
	DayNumber     int             `json:"day_number"`
	InTargetMonth bool            `json:"in_target_month"`
	Events        []CalendarEvent `json:"events"`
	// HiddenEvents counts events on a padding cell that are not rendered there.
	HiddenEvents int `json:"hidden_events"`
}

// MonthView is the 42-cell calendar of a month with its events.
// swagger:model MonthView
type MonthView struct {
	Year     int             `json:"year"`
	// Month is 1-based (1 = January), matching the /calendar/{year}/{month} route.
	Month    int             `json:"month"`
	TimeZone string          `json:"time_zone"`
	Cells    []MonthViewCell `json:"cells"`
}

// CategoryStyle is the display style of an event category.
// swagger:model CategoryStyle
type CategoryStyle struct {
	Category string `json:"category" yaml:"category"`
	Label    string `json:"label" yaml:"label"`
	Color    string `json:"color" yaml:"color"`
}

// EventRepository defines storage operations for calendar events.
type EventRepository interface {
	Create(ctx context.Context, e *CalendarEvent) error
	GetByID(ctx context.Context, id string) (*CalendarEvent, error)
	Update(ctx context.Context, e *CalendarEvent) error
	Delete(ctx context.Context, id string) error
	// List returns events that may have an occurrence in the filter range: non-recurring events
	// overlapping it and recurring events starting before its end.
	List(ctx context.Context, filter EventFilter) ([]*CalendarEvent, error)
}

// CalendarService defines event management and calendar views.
type CalendarService interface {
	CreateEvent(ctx context.Context, actor *Principal, e *CalendarEvent) error
	GetEvent(ctx context.Context, actor *Principal, id string) (*CalendarEvent, error)
	UpdateEvent(ctx context.Context, actor *Principal, id string, upd EventUpdate) (*CalendarEvent, error)
	DeleteEvent(ctx context.Context, actor *Principal, id string) error
	ListOccurrences(ctx context.Context, actor *Principal, filter EventFilter) ([]CalendarEvent, error)
	// MonthView renders a month; month is zero-based (0 = January).
	MonthView(ctx context.Context, actor *Principal, year, month int, category string) (*MonthView, error)
	ExportICS(ctx context.Context, actor *Principal, filter EventFilter) ([]byte, error)
	Categories() []CategoryStyle
}

// ICSEncoder serialises event occurrences into an iCalendar document.
type ICSEncoder interface {
	Encode(events []CalendarEvent) ([]byte, error)
}
