package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"trainingportal/internal/delivery/http/helpers"
	"trainingportal/internal/domain"

	"github.com/google/uuid"
)

// CreateEventRequest is the request body for POST /events.
// Omit program_id for organisation-wide events. end_time defaults to start_time.
type CreateEventRequest struct {
	ProgramID      *string   `json:"program_id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Location       string    `json:"location"`
	Category       string    `json:"category"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	RecurrenceRule string    `json:"recurrence_rule"`
}

// Validate implements Validator.
func (c CreateEventRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(c.Title) == "" {
		errs = append(errs, "title is required")
	}
	if c.StartTime.IsZero() {
		errs = append(errs, "start_time is required")
	}
	if !c.EndTime.IsZero() && c.EndTime.Before(c.StartTime) {
		errs = append(errs, "end_time must not be before start_time")
	}
	if c.Category != "" && !domain.ValidCategory(c.Category) {
		errs = append(errs, "unknown category "+c.Category)
	}
	if c.ProgramID != nil && *c.ProgramID != "" {
		if _, err := uuid.Parse(*c.ProgramID); err != nil {
			errs = append(errs, "program_id must be a UUID")
		}
	}
	return errs
}

// UpdateEventRequest is the request body for PATCH /events/{eventID}. All fields are optional;
// an empty recurrence_rule removes the recurrence.
type UpdateEventRequest struct {
	Title          *string    `json:"title"`
	Description    *string    `json:"description"`
	Location       *string    `json:"location"`
	Category       *string    `json:"category"`
	StartTime      *time.Time `json:"start_time"`
	EndTime        *time.Time `json:"end_time"`
	RecurrenceRule *string    `json:"recurrence_rule"`
}

// Validate implements Validator.
func (u UpdateEventRequest) Validate() []string {
	var errs []string
	if u.Title != nil && strings.TrimSpace(*u.Title) == "" {
		errs = append(errs, "title cannot be empty")
	}
	if u.Category != nil && !domain.ValidCategory(*u.Category) {
		errs = append(errs, "unknown category "+*u.Category)
	}
	return errs
}

// EventSuccessResponse is the success envelope of endpoints returning a single event.
type EventSuccessResponse struct {
	Data  *domain.CalendarEvent `json:"data"`
	Error *helpers.APIError     `json:"error"`
}

// EventListSuccessResponse is the success envelope for GET /events (200).
type EventListSuccessResponse struct {
	Data  []domain.CalendarEvent `json:"data"`
	Error *helpers.APIError      `json:"error"`
}

// MonthViewSuccessResponse is the success envelope for GET /calendar/{year}/{month} (200).
type MonthViewSuccessResponse struct {
	Data  *domain.MonthView `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// CategoriesSuccessResponse is the success envelope for GET /calendar/categories (200).
type CategoriesSuccessResponse struct {
	Data  []domain.CategoryStyle `json:"data"`
	Error *helpers.APIError      `json:"error"`
}

// CalendarController handles calendar events, month views and the iCalendar feed.
type CalendarController struct {
	Logger   *slog.Logger
	Service  domain.CalendarService
	Location *time.Location
}

// NewCalendarController creates a CalendarController. Plain dates in query strings are read in loc.
func NewCalendarController(logger *slog.Logger, svc domain.CalendarService, loc *time.Location) *CalendarController {
	if loc == nil {
		loc = time.UTC
	}
	return &CalendarController{
		Logger:   logger,
		Service:  svc,
		Location: loc,
	}
}

// CreateEvent godoc
// @Summary Create a calendar event
// @Description Admin or trainer. Trainers may only attach events to programs they own. Category defaults to training.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateEventRequest true "Event"
// @Success 201 {object} controllers.EventSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events [post]
func (c *CalendarController) CreateEvent(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req CreateEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	event := domain.NewCalendarEvent(strings.TrimSpace(req.Title), req.Category, req.StartTime, req.EndTime, p.UserID)
	event.ProgramID = req.ProgramID
	event.Description = req.Description
	event.Location = req.Location
	event.RecurrenceRule = strings.TrimSpace(req.RecurrenceRule)
	if err := c.Service.CreateEvent(r.Context(), p, event); err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, event)
}

// GetEvent godoc
// @Summary Get a calendar event
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.EventSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID} [get]
func (c *CalendarController) GetEvent(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	eventID, ok := helpers.PathUUID(w, r, "eventID")
	if !ok {
		return
	}
	event, err := c.Service.GetEvent(r.Context(), p, eventID)
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// UpdateEvent godoc
// @Summary Update a calendar event
// @Description Admin, the event creator or the trainer owning the event's program.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param body body UpdateEventRequest true "Fields to update"
// @Success 200 {object} controllers.EventSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID} [patch]
func (c *CalendarController) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	eventID, ok := helpers.PathUUID(w, r, "eventID")
	if !ok {
		return
	}
	var req UpdateEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	event, err := c.Service.UpdateEvent(r.Context(), p, eventID, domain.EventUpdate{
		Title:          req.Title,
		Description:    req.Description,
		Location:       req.Location,
		Category:       req.Category,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		RecurrenceRule: req.RecurrenceRule,
	})
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// DeleteEvent godoc
// @Summary Delete a calendar event
// @Description Admin, the event creator or the trainer owning the event's program.
// @Tags events
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 204
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID} [delete]
func (c *CalendarController) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	eventID, ok := helpers.PathUUID(w, r, "eventID")
	if !ok {
		return
	}
	if err := c.Service.DeleteEvent(r.Context(), p, eventID); err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListEvents godoc
// @Summary List event occurrences
// @Description Occurrences visible to the caller in [from, to); recurring events are expanded. Defaults to one month from now.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param from query string false "Range start (RFC 3339 or YYYY-MM-DD)"
// @Param to query string false "Range end, exclusive (RFC 3339 or YYYY-MM-DD)"
// @Param category query string false "training, meeting, ceremony or workshop"
// @Param program_id query string false "Program ID (UUID)"
// @Success 200 {object} controllers.EventListSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events [get]
func (c *CalendarController) ListEvents(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	filter, err := c.rangeFilter(r)
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		return
	}
	events, err := c.Service.ListOccurrences(r.Context(), p, filter)
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	if events == nil {
		events = []domain.CalendarEvent{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, events)
}

// MonthView godoc
// @Summary Month calendar
// @Description 42-cell Sunday-first grid of the month with the caller's visible events. Padding cells carry no events but report hidden_events.
// @Tags calendar
// @Produce json
// @Security BearerAuth
// @Param year path int true "Year"
// @Param month path int true "Month (1-12)"
// @Param category query string false "Only show events of this category"
// @Success 200 {object} controllers.MonthViewSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /calendar/{year}/{month} [get]
func (c *CalendarController) MonthView(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	year, err := strconv.Atoi(r.PathValue("year"))
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "year must be an integer")
		return
	}
	month, err := strconv.Atoi(r.PathValue("month"))
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "month must be an integer")
		return
	}
	category := strings.TrimSpace(r.URL.Query().Get("category"))
	view, err := c.Service.MonthView(r.Context(), p, year, month-1, category)
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, view)
}

// Feed godoc
// @Summary iCalendar feed
// @Description The caller's visible occurrences in [from, to) as an RFC 5545 document.
// @Tags calendar
// @Produce text/calendar
// @Security BearerAuth
// @Param from query string false "Range start (RFC 3339 or YYYY-MM-DD)"
// @Param to query string false "Range end, exclusive (RFC 3339 or YYYY-MM-DD)"
// @Param category query string false "training, meeting, ceremony or workshop"
// @Param program_id query string false "Program ID (UUID)"
// @Success 200 {string} string "VCALENDAR document"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /calendar/feed.ics [get]
func (c *CalendarController) Feed(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	filter, err := c.rangeFilter(r)
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		return
	}
	body, err := c.Service.ExportICS(r.Context(), p, filter)
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="training-calendar.ics"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		c.Logger.WarnContext(r.Context(), "write ics feed", "err", err)
	}
}

// Categories godoc
// @Summary Event categories
// @Description Known event categories with their display styles.
// @Tags calendar
// @Produce json
// @Success 200 {object} controllers.CategoriesSuccessResponse
// @Router /calendar/categories [get]
func (c *CalendarController) Categories(w http.ResponseWriter, r *http.Request) {
	helpers.WriteJSONSuccess(w, http.StatusOK, c.Service.Categories())
}

func (c *CalendarController) rangeFilter(r *http.Request) (domain.EventFilter, error) {
	from, err := helpers.QueryTime(r, "from", c.Location)
	if err != nil {
		return domain.EventFilter{}, err
	}
	to, err := helpers.QueryTime(r, "to", c.Location)
	if err != nil {
		return domain.EventFilter{}, err
	}
	q := r.URL.Query()
	filter := domain.EventFilter{
		From:      from,
		To:        to,
		Category:  strings.TrimSpace(q.Get("category")),
		ProgramID: strings.TrimSpace(q.Get("program_id")),
	}
	if filter.ProgramID != "" {
		if _, err := uuid.Parse(filter.ProgramID); err != nil {
			return domain.EventFilter{}, errors.New("program_id must be a UUID")
		}
	}
	return filter, nil
}
