package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"trainingportal/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCalendarService implements domain.CalendarService for handler tests.
type fakeCalendarService struct {
	err        error
	created    *domain.CalendarEvent
	lastUpdate domain.EventUpdate
	lastFilter domain.EventFilter
	occ        []domain.CalendarEvent
	monthArgs  [2]int
	category   string
	ics        []byte
}

func (f *fakeCalendarService) CreateEvent(ctx context.Context, actor *domain.Principal, e *domain.CalendarEvent) error {
	if f.err != nil {
		return f.err
	}
	e.ID = eventID
	f.created = e
	return nil
}

func (f *fakeCalendarService) GetEvent(ctx context.Context, actor *domain.Principal, id string) (*domain.CalendarEvent, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.CalendarEvent{ID: id, Title: "Kick-off"}, nil
}

func (f *fakeCalendarService) UpdateEvent(ctx context.Context, actor *domain.Principal, id string, upd domain.EventUpdate) (*domain.CalendarEvent, error) {
	f.lastUpdate = upd
	if f.err != nil {
		return nil, f.err
	}
	return &domain.CalendarEvent{ID: id}, nil
}

func (f *fakeCalendarService) DeleteEvent(ctx context.Context, actor *domain.Principal, id string) error {
	return f.err
}

func (f *fakeCalendarService) ListOccurrences(ctx context.Context, actor *domain.Principal, filter domain.EventFilter) ([]domain.CalendarEvent, error) {
	f.lastFilter = filter
	return f.occ, f.err
}

func (f *fakeCalendarService) MonthView(ctx context.Context, actor *domain.Principal, year, month int, category string) (*domain.MonthView, error) {
	f.monthArgs = [2]int{year, month}
	f.category = category
	if f.err != nil {
		return nil, f.err
	}
	return &domain.MonthView{Year: year, Month: month + 1, Cells: make([]domain.MonthViewCell, 42)}, nil
}

func (f *fakeCalendarService) ExportICS(ctx context.Context, actor *domain.Principal, filter domain.EventFilter) ([]byte, error) {
	f.lastFilter = filter
	return f.ics, f.err
}

func (f *fakeCalendarService) Categories() []domain.CategoryStyle {
	return []domain.CategoryStyle{{Category: domain.CategoryTraining, Label: "Training", Color: "#2563eb"}}
}

func TestCalendarController_CreateEvent(t *testing.T) {
	start := time.Date(2024, 2, 15, 9, 0, 0, 0, time.UTC)
	pid := programID
	badPID := "p1"

	tests := []struct {
		name       string
		body       CreateEventRequest
		svcErr     error
		wantStatus int
	}{
		{
			name:       "created",
			body:       CreateEventRequest{ProgramID: &pid, Title: "Kick-off", Category: domain.CategoryCeremony, StartTime: start, RecurrenceRule: " FREQ=WEEKLY;COUNT=3 "},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "missing start",
			body:       CreateEventRequest{Title: "Kick-off"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown category",
			body:       CreateEventRequest{Title: "Kick-off", Category: "party", StartTime: start},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "program id not a uuid",
			body:       CreateEventRequest{ProgramID: &badPID, Title: "Kick-off", StartTime: start},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "foreign program",
			body:       CreateEventRequest{ProgramID: &pid, Title: "Kick-off", StartTime: start},
			svcErr:     domain.ErrForbidden,
			wantStatus: http.StatusForbidden,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeCalendarService{err: tt.svcErr}
			c := NewCalendarController(testLogger(), svc, time.UTC)
			rr := httptest.NewRecorder()
			c.CreateEvent(rr, newRequest(t, http.MethodPost, "/events", tt.body, trainer))

			assert.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantStatus != http.StatusCreated {
				return
			}
			require.NotNil(t, svc.created)
			assert.Equal(t, trainer.UserID, svc.created.CreatedBy)
			assert.Equal(t, "FREQ=WEEKLY;COUNT=3", svc.created.RecurrenceRule)
			require.NotNil(t, svc.created.ProgramID)
			assert.Equal(t, programID, *svc.created.ProgramID)
		})
	}
}

func TestCalendarController_GetUpdateDelete(t *testing.T) {
	c := NewCalendarController(testLogger(), &fakeCalendarService{}, nil)
	rr := httptest.NewRecorder()
	c.GetEvent(rr, newRequest(t, http.MethodGet, "/events/"+eventID, nil, trainee, "eventID", eventID))
	assert.Equal(t, http.StatusOK, rr.Code)

	hidden := &fakeCalendarService{err: domain.ErrNotFound}
	c = NewCalendarController(testLogger(), hidden, nil)
	rr = httptest.NewRecorder()
	c.GetEvent(rr, newRequest(t, http.MethodGet, "/events/"+eventID, nil, trainee, "eventID", eventID))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	svc := &fakeCalendarService{}
	c = NewCalendarController(testLogger(), svc, nil)
	loc := "Room 4"
	rr = httptest.NewRecorder()
	c.UpdateEvent(rr, newRequest(t, http.MethodPatch, "/events/"+eventID, UpdateEventRequest{Location: &loc}, trainer, "eventID", eventID))
	require.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, svc.lastUpdate.Location)
	assert.Equal(t, loc, *svc.lastUpdate.Location)
	assert.Nil(t, svc.lastUpdate.Title)

	rr = httptest.NewRecorder()
	c.DeleteEvent(rr, newRequest(t, http.MethodDelete, "/events/"+eventID, nil, trainer, "eventID", eventID))
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = httptest.NewRecorder()
	c.DeleteEvent(rr, newRequest(t, http.MethodDelete, "/events/1", nil, trainer, "eventID", "1"))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCalendarController_ListEvents(t *testing.T) {
	loc := time.FixedZone("UTC+1", 3600)

	tests := []struct {
		name       string
		query      string
		wantStatus int
		check      func(t *testing.T, f domain.EventFilter)
	}{
		{
			name:       "dates read in configured zone",
			query:      "from=2024-02-01&to=2024-03-01&category=meeting&program_id=" + programID,
			wantStatus: http.StatusOK,
			check: func(t *testing.T, f domain.EventFilter) {
				assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, loc), f.From)
				assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, loc), f.To)
				assert.Equal(t, "meeting", f.Category)
				assert.Equal(t, programID, f.ProgramID)
			},
		},
		{
			name:       "no range",
			wantStatus: http.StatusOK,
			check: func(t *testing.T, f domain.EventFilter) {
				assert.True(t, f.From.IsZero())
				assert.True(t, f.To.IsZero())
			},
		},
		{name: "bad from", query: "from=tomorrow", wantStatus: http.StatusBadRequest},
		{name: "bad program id", query: "program_id=p1", wantStatus: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeCalendarService{}
			c := NewCalendarController(testLogger(), svc, loc)
			rr := httptest.NewRecorder()
			c.ListEvents(rr, newRequest(t, http.MethodGet, "/events?"+tt.query, nil, trainee))

			assert.Equal(t, tt.wantStatus, rr.Code)
			if tt.check == nil {
				return
			}
			tt.check(t, svc.lastFilter)
			assert.JSONEq(t, `[]`, string(decodeEnvelope(t, rr).Data))
		})
	}

	t.Run("range too large", func(t *testing.T) {
		c := NewCalendarController(testLogger(), &fakeCalendarService{err: domain.ErrInvalidInput}, loc)
		rr := httptest.NewRecorder()
		c.ListEvents(rr, newRequest(t, http.MethodGet, "/events?from=2020-01-01&to=2024-01-01", nil, trainee))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestCalendarController_MonthView(t *testing.T) {
	tests := []struct {
		name       string
		year       string
		month      string
		svcErr     error
		wantStatus int
		wantArgs   [2]int
	}{
		{name: "february is passed zero-based", year: "2024", month: "2", wantStatus: http.StatusOK, wantArgs: [2]int{2024, 1}},
		{name: "january", year: "2025", month: "1", wantStatus: http.StatusOK, wantArgs: [2]int{2025, 0}},
		{name: "month not a number", year: "2024", month: "feb", wantStatus: http.StatusBadRequest},
		{name: "year not a number", year: "twenty", month: "2", wantStatus: http.StatusBadRequest},
		{name: "month out of range", year: "2024", month: "13", svcErr: domain.ErrInvalidInput, wantStatus: http.StatusBadRequest, wantArgs: [2]int{2024, 12}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeCalendarService{err: tt.svcErr}
			c := NewCalendarController(testLogger(), svc, time.UTC)
			rr := httptest.NewRecorder()
			target := "/calendar/" + tt.year + "/" + tt.month + "?category=training"
			c.MonthView(rr, newRequest(t, http.MethodGet, target, nil, trainee, "year", tt.year, "month", tt.month))

			assert.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantArgs != ([2]int{}) {
				assert.Equal(t, tt.wantArgs, svc.monthArgs)
				assert.Equal(t, "training", svc.category)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			var view domain.MonthView
			require.NoError(t, json.Unmarshal(decodeEnvelope(t, rr).Data, &view))
			assert.Len(t, view.Cells, 42)
			assert.Equal(t, tt.wantArgs[1]+1, view.Month)
		})
	}
}

func TestCalendarController_Feed(t *testing.T) {
	body := []byte("BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n")
	svc := &fakeCalendarService{ics: body}
	c := NewCalendarController(testLogger(), svc, time.UTC)
	rr := httptest.NewRecorder()
	c.Feed(rr, newRequest(t, http.MethodGet, "/calendar/feed.ics?from=2024-02-01", nil, trainee))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/calendar; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "training-calendar.ics")
	assert.Equal(t, body, rr.Body.Bytes())
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), svc.lastFilter.From)
}

func TestCalendarController_Categories(t *testing.T) {
	c := NewCalendarController(testLogger(), &fakeCalendarService{}, time.UTC)
	rr := httptest.NewRecorder()
	c.Categories(rr, newRequest(t, http.MethodGet, "/calendar/categories", nil, nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var styles []domain.CategoryStyle
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rr).Data, &styles))
	require.Len(t, styles, 1)
	assert.Equal(t, "#2563eb", styles[0].Color)
}
