package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"trainingportal/internal/calendar"
	"trainingportal/internal/domain"
)

// maxRange bounds occurrence queries so a recurring event cannot expand without limit.
const maxRange = 366 * 24 * time.Hour

// CalendarConfig carries the presentation settings of the calendar service.
type CalendarConfig struct {
	Location       *time.Location
	Styles         []domain.CategoryStyle
	MaxOccurrences int
	Timeout        time.Duration
}

type calendarService struct {
	eventRepo      domain.EventRepository
	programRepo    domain.ProgramRepository
	enrollmentRepo domain.EnrollmentRepository
	encoder        domain.ICSEncoder
	loc            *time.Location
	styles         []domain.CategoryStyle
	maxOccurrences int
	contextTimeout time.Duration
	now            func() time.Time
}

// NewCalendarService returns a CalendarService. Month views are rendered in cfg.Location.
func NewCalendarService(
	eventRepo domain.EventRepository,
	programRepo domain.ProgramRepository,
	enrollmentRepo domain.EnrollmentRepository,
	encoder domain.ICSEncoder,
	cfg CalendarConfig,
) domain.CalendarService {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	return &calendarService{
		eventRepo:      eventRepo,
		programRepo:    programRepo,
		enrollmentRepo: enrollmentRepo,
		encoder:        encoder,
		loc:            loc,
		styles:         cfg.Styles,
		maxOccurrences: cfg.MaxOccurrences,
		contextTimeout: cfg.Timeout,
		now:            time.Now,
	}
}

func validateEvent(e *domain.CalendarEvent) error {
	if e.Title == "" {
		return fmt.Errorf("%w: title is required", domain.ErrInvalidInput)
	}
	if !domain.ValidCategory(e.Category) {
		return fmt.Errorf("%w: unknown category %q", domain.ErrInvalidInput, e.Category)
	}
	if e.StartTime.IsZero() {
		return fmt.Errorf("%w: start_time is required", domain.ErrInvalidInput)
	}
	if e.EndTime.Before(e.StartTime) {
		return fmt.Errorf("%w: end_time is before start_time", domain.ErrInvalidInput)
	}
	if e.Recurring() {
		if _, err := calendar.ParseRecurrenceRule(e.RecurrenceRule, e.StartTime); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
		}
	}
	return nil
}

// authorizeProgram checks that actor may attach events to programID.
func (s *calendarService) authorizeProgram(ctx context.Context, actor *domain.Principal, programID string) error {
	p, err := s.programRepo.GetByID(ctx, programID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: program %s does not exist", domain.ErrInvalidInput, programID)
		}
		return fmt.Errorf("get program: %w", err)
	}
	if !canManage(actor, p) {
		return domain.ErrForbidden
	}
	return nil
}

func (s *calendarService) CreateEvent(ctx context.Context, actor *domain.Principal, e *domain.CalendarEvent) error {
	if !actor.CanManagePrograms() {
		return domain.ErrForbidden
	}
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	e.Title = strings.TrimSpace(e.Title)
	if e.Category == "" {
		e.Category = domain.CategoryTraining
	}
	if e.EndTime.IsZero() {
		e.EndTime = e.StartTime
	}
	if err := validateEvent(e); err != nil {
		return err
	}
	if e.ProgramID != nil && *e.ProgramID == "" {
		e.ProgramID = nil
	}
	if e.ProgramID != nil {
		if err := s.authorizeProgram(ctx, actor, *e.ProgramID); err != nil {
			return err
		}
	}
	now := s.now()
	e.CreatedBy = actor.UserID
	e.CreatedAt = now
	e.UpdatedAt = now
	if err := s.eventRepo.Create(ctx, e); err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

// visibleTo reports whether a caller restricted to programIDs may see e.
func visibleTo(e *domain.CalendarEvent, filter domain.EventFilter) bool {
	if !filter.Restricted || e.ProgramID == nil {
		return true
	}
	return slices.Contains(filter.VisibleProgramIDs, *e.ProgramID)
}

// scope restricts filter to what actor may see. Admins and trainers see every event;
// everyone else sees organisation-wide events plus those of programs they are enrolled in.
func (s *calendarService) scope(ctx context.Context, actor *domain.Principal, filter *domain.EventFilter) error {
	if actor.CanManagePrograms() {
		filter.Restricted = false
		filter.VisibleProgramIDs = nil
		return nil
	}
	filter.Restricted = true
	filter.VisibleProgramIDs = nil
	if actor == nil {
		return nil
	}
	enrollments, err := s.enrollmentRepo.ListByUserID(ctx, actor.UserID)
	if err != nil {
		return fmt.Errorf("list enrollments: %w", err)
	}
	for _, en := range enrollments {
		if en.Status != domain.EnrollmentWithdrawn {
			filter.VisibleProgramIDs = append(filter.VisibleProgramIDs, en.ProgramID)
		}
	}
	return nil
}

func (s *calendarService) GetEvent(ctx context.Context, actor *domain.Principal, id string) (*domain.CalendarEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	e, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	var filter domain.EventFilter
	if err := s.scope(ctx, actor, &filter); err != nil {
		return nil, err
	}
	if !visibleTo(e, filter) {
		return nil, domain.ErrNotFound
	}
	return e, nil
}

// managedEvent loads an event the actor may modify: admins any event, trainers the events
// they created or that belong to their programs.
func (s *calendarService) managedEvent(ctx context.Context, actor *domain.Principal, id string) (*domain.CalendarEvent, error) {
	if !actor.CanManagePrograms() {
		return nil, domain.ErrForbidden
	}
	e, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if actor.IsAdmin() || e.CreatedBy == actor.UserID {
		return e, nil
	}
	if e.ProgramID != nil {
		if err := s.authorizeProgram(ctx, actor, *e.ProgramID); err == nil {
			return e, nil
		}
	}
	return nil, domain.ErrForbidden
}

func (s *calendarService) UpdateEvent(ctx context.Context, actor *domain.Principal, id string, upd domain.EventUpdate) (*domain.CalendarEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	e, err := s.managedEvent(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if upd.Title != nil {
		e.Title = strings.TrimSpace(*upd.Title)
	}
	if upd.Description != nil {
		e.Description = *upd.Description
	}
	if upd.Location != nil {
		e.Location = *upd.Location
	}
	if upd.Category != nil {
		e.Category = *upd.Category
	}
	if upd.StartTime != nil {
		e.StartTime = *upd.StartTime
	}
	if upd.EndTime != nil {
		e.EndTime = *upd.EndTime
	}
	if upd.RecurrenceRule != nil {
		e.RecurrenceRule = strings.TrimSpace(*upd.RecurrenceRule)
	}
	if err := validateEvent(e); err != nil {
		return nil, err
	}
	e.UpdatedAt = s.now()
	if err := s.eventRepo.Update(ctx, e); err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}
	return e, nil
}

func (s *calendarService) DeleteEvent(ctx context.Context, actor *domain.Principal, id string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.managedEvent(ctx, actor, id); err != nil {
		return err
	}
	if err := s.eventRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}

// ListOccurrences expands the events visible to actor into occurrences within
// [filter.From, filter.To). A zero From means now; a zero To means one month after From.
func (s *calendarService) ListOccurrences(ctx context.Context, actor *domain.Principal, filter domain.EventFilter) ([]domain.CalendarEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	return s.occurrences(ctx, actor, filter)
}

func (s *calendarService) occurrences(ctx context.Context, actor *domain.Principal, filter domain.EventFilter) ([]domain.CalendarEvent, error) {
	if filter.From.IsZero() {
		filter.From = s.now()
	}
	if filter.To.IsZero() {
		filter.To = filter.From.AddDate(0, 1, 0)
	}
	if filter.To.Before(filter.From) {
		return nil, fmt.Errorf("%w: to is before from", domain.ErrInvalidInput)
	}
	if filter.To.Sub(filter.From) > maxRange {
		return nil, fmt.Errorf("%w: range exceeds %d days", domain.ErrInvalidInput, int(maxRange.Hours()/24))
	}
	if filter.Category != "" && !domain.ValidCategory(filter.Category) {
		return nil, fmt.Errorf("%w: unknown category %q", domain.ErrInvalidInput, filter.Category)
	}
	if err := s.scope(ctx, actor, &filter); err != nil {
		return nil, err
	}
	events, err := s.eventRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	out, err := calendar.ExpandOccurrences(events, filter.From, filter.To, s.maxOccurrences)
	if err != nil {
		return nil, fmt.Errorf("expand occurrences: %w", err)
	}
	return out, nil
}

// MonthView renders the 42-cell grid of a zero-based month with the events of each day.
// Padding cells carry no events; HiddenEvents counts what starts on their date.
func (s *calendarService) MonthView(ctx context.Context, actor *domain.Principal, year, month int, category string) (*domain.MonthView, error) {
	cells, err := calendar.BuildMonthGrid(year, month)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	start, err := calendar.GridStart(year, month, s.loc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	occ, err := s.occurrences(ctx, actor, domain.EventFilter{
		From:     start,
		To:       start.AddDate(0, 0, calendar.GridSize),
		Category: category,
	})
	if err != nil {
		return nil, err
	}

	target := calendar.Month{Year: year, Month: month, Location: s.loc}
	view := &domain.MonthView{
		Year:     year,
		Month:    month + 1,
		TimeZone: s.loc.String(),
		Cells:    make([]domain.MonthViewCell, len(cells)),
	}
	for i, c := range cells {
		date := start.AddDate(0, 0, i)
		cell := domain.MonthViewCell{
			Date:          date,
			DayNumber:     c.DayNumber,
			InTargetMonth: c.InTargetMonth,
			Events:        calendar.EventsForDay(c, target, occ),
		}
		if cell.Events == nil {
			cell.Events = []domain.CalendarEvent{}
		}
		if !c.InTargetMonth {
			cell.HiddenEvents = calendar.CountOnDate(date, s.loc, occ)
		}
		view.Cells[i] = cell
	}
	return view, nil
}

func (s *calendarService) ExportICS(ctx context.Context, actor *domain.Principal, filter domain.EventFilter) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	occ, err := s.occurrences(ctx, actor, filter)
	if err != nil {
		return nil, err
	}
	data, err := s.encoder.Encode(occ)
	if err != nil {
		return nil, fmt.Errorf("encode calendar: %w", err)
	}
	return data, nil
}

func (s *calendarService) Categories() []domain.CategoryStyle {
	return slices.Clone(s.styles)
}
