package services

import (
	"context"
	"testing"
	"time"

	"trainingportal/internal/calendar"
	"trainingportal/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func calendarEvents() []*domain.CalendarEvent {
	return []*domain.CalendarEvent{
		{ID: "drill", Title: "Safety drill", Category: domain.CategoryTraining,
			StartTime: time.Date(2024, 2, 15, 9, 0, 0, 0, time.UTC), EndTime: time.Date(2024, 2, 15, 10, 0, 0, 0, time.UTC), CreatedBy: "admin-1"},
		{ID: "weekly", ProgramID: strPtr("p1"), Title: "Weekly session", Category: domain.CategoryWorkshop,
			StartTime: time.Date(2024, 2, 5, 10, 0, 0, 0, time.UTC), EndTime: time.Date(2024, 2, 5, 12, 0, 0, 0, time.UTC),
			RecurrenceRule: "FREQ=WEEKLY;COUNT=4", CreatedBy: "admin-1"},
		{ID: "p2-meeting", ProgramID: strPtr("p2"), Title: "Kickoff", Category: domain.CategoryMeeting,
			StartTime: time.Date(2024, 2, 20, 8, 0, 0, 0, time.UTC), EndTime: time.Date(2024, 2, 20, 9, 0, 0, 0, time.UTC), CreatedBy: "trainer-2"},
		{ID: "march", Title: "Graduation", Category: domain.CategoryCeremony,
			StartTime: time.Date(2024, 3, 1, 14, 0, 0, 0, time.UTC), EndTime: time.Date(2024, 3, 1, 16, 0, 0, 0, time.UTC), CreatedBy: "admin-1"},
		{ID: "january", Title: "Planning", Category: domain.CategoryMeeting,
			StartTime: time.Date(2024, 1, 30, 11, 0, 0, 0, time.UTC), EndTime: time.Date(2024, 1, 30, 12, 0, 0, 0, time.UTC), CreatedBy: "admin-1"},
	}
}

type calendarFixture struct {
	svc         domain.CalendarService
	events      *fakeEventRepo
	enrollments *fakeEnrollmentRepo
	encoder     *fakeEncoder
}

func newCalendarFixture(loc *time.Location) calendarFixture {
	f := calendarFixture{
		events:      newFakeEventRepo(calendarEvents()...),
		enrollments: &fakeEnrollmentRepo{},
		encoder:     &fakeEncoder{},
	}
	f.enrollments.add("p1", traineeActor.UserID, domain.EnrollmentActive)
	f.enrollments.add("p2", traineeActor.UserID, domain.EnrollmentWithdrawn)
	programs := newFakeProgramRepo(
		testProgram("p1", "trainer-1", domain.ProgramStatusPublished, 0),
		testProgram("p2", "trainer-2", domain.ProgramStatusPublished, 0),
	)
	f.svc = NewCalendarService(f.events, programs, f.enrollments, f.encoder, CalendarConfig{
		Location: loc,
		Styles:   []domain.CategoryStyle{{Category: domain.CategoryTraining, Label: "Training", Color: "#2563eb"}},
		Timeout:  time.Second,
	})
	return f
}

func eventIDs(events []domain.CalendarEvent) []string {
	ids := make([]string, len(events))
	for i, e := range events {
		ids[i] = e.ID
	}
	return ids
}

func TestCalendarService_MonthView(t *testing.T) {
	ctx := context.Background()
	f := newCalendarFixture(time.UTC)

	view, err := f.svc.MonthView(ctx, traineeActor, 2024, 1, "")
	require.NoError(t, err)
	require.Len(t, view.Cells, calendar.GridSize)
	assert.Equal(t, 2, view.Month)
	assert.Equal(t, "UTC", view.TimeZone)

	first := view.Cells[0]
	assert.Equal(t, 28, first.DayNumber)
	assert.False(t, first.InTargetMonth)
	assert.Equal(t, time.Date(2024, 1, 28, 0, 0, 0, 0, time.UTC), first.Date)

	// Feb d sits at index 3+d.
	assert.Equal(t, []string{"drill"}, eventIDs(view.Cells[18].Events))
	for _, d := range []int{5, 12, 19, 26} {
		assert.Equal(t, []string{"weekly"}, eventIDs(view.Cells[3+d].Events), "Feb %d", d)
	}
	assert.Empty(t, view.Cells[23].Events, "p2 event hidden from trainee")

	jan30 := view.Cells[2]
	assert.Equal(t, 30, jan30.DayNumber)
	assert.Empty(t, jan30.Events)
	assert.Equal(t, 1, jan30.HiddenEvents)

	mar1 := view.Cells[33]
	assert.Equal(t, 1, mar1.DayNumber)
	assert.False(t, mar1.InTargetMonth)
	assert.NotNil(t, mar1.Events)
	assert.Empty(t, mar1.Events)
	assert.Equal(t, 1, mar1.HiddenEvents)

	assert.Equal(t, 0, view.Cells[18].HiddenEvents)
}

func TestCalendarService_MonthView_AdminSeesAllAndCategoryFilter(t *testing.T) {
	ctx := context.Background()
	f := newCalendarFixture(time.UTC)

	view, err := f.svc.MonthView(ctx, adminActor, 2024, 1, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"p2-meeting"}, eventIDs(view.Cells[23].Events))
	assert.False(t, f.events.lastFilter.Restricted)

	view, err = f.svc.MonthView(ctx, adminActor, 2024, 1, domain.CategoryMeeting)
	require.NoError(t, err)
	assert.Empty(t, view.Cells[18].Events)
	assert.Equal(t, []string{"p2-meeting"}, eventIDs(view.Cells[23].Events))

	_, err = f.svc.MonthView(ctx, adminActor, 2024, 1, "party")
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCalendarService_MonthView_TimeZone(t *testing.T) {
	est := time.FixedZone("EST", -5*3600)
	f := newCalendarFixture(est)
	late := &domain.CalendarEvent{ID: "late", Title: "Night shift", Category: domain.CategoryTraining,
		StartTime: time.Date(2024, 2, 15, 3, 0, 0, 0, time.UTC), EndTime: time.Date(2024, 2, 15, 4, 0, 0, 0, time.UTC)}
	f.events.byID[late.ID] = late

	view, err := f.svc.MonthView(context.Background(), adminActor, 2024, 1, "")
	require.NoError(t, err)
	assert.Equal(t, "EST", view.TimeZone)
	assert.Contains(t, eventIDs(view.Cells[17].Events), "late", "Feb 14 local")
	assert.NotContains(t, eventIDs(view.Cells[18].Events), "late")
}

func TestCalendarService_MonthView_InvalidMonth(t *testing.T) {
	f := newCalendarFixture(time.UTC)
	for _, m := range []int{-1, 12} {
		_, err := f.svc.MonthView(context.Background(), adminActor, 2024, m, "")
		require.ErrorIs(t, err, domain.ErrInvalidInput)
		require.ErrorIs(t, err, calendar.ErrInvalidArgument)
	}
}

func TestCalendarService_ListOccurrences(t *testing.T) {
	ctx := context.Background()
	f := newCalendarFixture(time.UTC)
	from := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 2, 16, 0, 0, 0, 0, time.UTC)

	occ, err := f.svc.ListOccurrences(ctx, traineeActor, domain.EventFilter{From: from, To: to})
	require.NoError(t, err)
	assert.Equal(t, []string{"weekly", "weekly", "drill"}, eventIDs(occ))
	assert.True(t, f.events.lastFilter.Restricted)
	assert.Equal(t, []string{"p1"}, f.events.lastFilter.VisibleProgramIDs)

	_, err = f.svc.ListOccurrences(ctx, traineeActor, domain.EventFilter{From: to, To: from})
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.svc.ListOccurrences(ctx, traineeActor, domain.EventFilter{From: from, To: from.AddDate(2, 0, 0)})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCalendarService_ExportICS(t *testing.T) {
	f := newCalendarFixture(time.UTC)
	data, err := f.svc.ExportICS(context.Background(), adminActor, domain.EventFilter{
		From: time.Date(2024, 2, 19, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2024, 2, 21, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, "BEGIN:VCALENDAR", string(data))
	assert.Equal(t, []string{"weekly", "p2-meeting"}, eventIDs(f.encoder.got))
}

func TestCalendarService_CreateEvent(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2024, 4, 2, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		actor *domain.Principal
		event domain.CalendarEvent
		errIs error
	}{
		{name: "trainer org-wide event", actor: trainerActor, event: domain.CalendarEvent{Title: "Briefing", StartTime: start}},
		{name: "trainer own program", actor: trainerActor, event: domain.CalendarEvent{Title: "Lab", StartTime: start, ProgramID: strPtr("p1")}},
		{name: "empty program id is org-wide", actor: trainerActor, event: domain.CalendarEvent{Title: "Lab", StartTime: start, ProgramID: strPtr("")}},
		{name: "trainer other program", actor: trainerActor, event: domain.CalendarEvent{Title: "Lab", StartTime: start, ProgramID: strPtr("p2")}, errIs: domain.ErrForbidden},
		{name: "missing program", actor: adminActor, event: domain.CalendarEvent{Title: "Lab", StartTime: start, ProgramID: strPtr("nope")}, errIs: domain.ErrInvalidInput},
		{name: "trainee", actor: traineeActor, event: domain.CalendarEvent{Title: "Lab", StartTime: start}, errIs: domain.ErrForbidden},
		{name: "unknown category", actor: adminActor, event: domain.CalendarEvent{Title: "Lab", StartTime: start, Category: "party"}, errIs: domain.ErrInvalidInput},
		{name: "end before start", actor: adminActor, event: domain.CalendarEvent{Title: "Lab", StartTime: start, EndTime: start.Add(-time.Minute)}, errIs: domain.ErrInvalidInput},
		{name: "bad recurrence", actor: adminActor, event: domain.CalendarEvent{Title: "Lab", StartTime: start, RecurrenceRule: "FREQ=SOMETIMES"}, errIs: domain.ErrInvalidInput},
		{name: "missing start", actor: adminActor, event: domain.CalendarEvent{Title: "Lab"}, errIs: domain.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newCalendarFixture(time.UTC)
			e := tt.event
			err := f.svc.CreateEvent(ctx, tt.actor, &e)
			if tt.errIs != nil {
				require.ErrorIs(t, err, tt.errIs)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, e.ID)
			assert.Equal(t, tt.actor.UserID, e.CreatedBy)
			assert.Equal(t, domain.CategoryTraining, e.Category)
			assert.Equal(t, e.StartTime, e.EndTime)
			if tt.event.ProgramID != nil && *tt.event.ProgramID == "" {
				assert.Nil(t, e.ProgramID)
			}
		})
	}
}

func TestCalendarService_UpdateDeleteEvent(t *testing.T) {
	ctx := context.Background()
	title := "Renamed"

	tests := []struct {
		name  string
		actor *domain.Principal
		id    string
		errIs error
	}{
		{name: "admin any event", actor: adminActor, id: "p2-meeting"},
		{name: "creator", actor: otherTrainer, id: "p2-meeting"},
		{name: "program owner", actor: trainerActor, id: "weekly"},
		{name: "unrelated trainer", actor: trainerActor, id: "p2-meeting", errIs: domain.ErrForbidden},
		{name: "trainer on admin org-wide event", actor: trainerActor, id: "drill", errIs: domain.ErrForbidden},
		{name: "trainee", actor: traineeActor, id: "drill", errIs: domain.ErrForbidden},
		{name: "missing", actor: adminActor, id: "missing", errIs: domain.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newCalendarFixture(time.UTC)
			e, err := f.svc.UpdateEvent(ctx, tt.actor, tt.id, domain.EventUpdate{Title: &title})
			if tt.errIs != nil {
				require.ErrorIs(t, err, tt.errIs)
				require.ErrorIs(t, f.svc.DeleteEvent(ctx, tt.actor, tt.id), tt.errIs)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Renamed", e.Title)
			assert.Equal(t, "Renamed", f.events.byID[tt.id].Title)
			require.NoError(t, f.svc.DeleteEvent(ctx, tt.actor, tt.id))
			assert.NotContains(t, f.events.byID, tt.id)
		})
	}

	f := newCalendarFixture(time.UTC)
	bad := "FREQ=NEVER"
	_, err := f.svc.UpdateEvent(ctx, adminActor, "weekly", domain.EventUpdate{RecurrenceRule: &bad})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCalendarService_GetEvent(t *testing.T) {
	ctx := context.Background()
	f := newCalendarFixture(time.UTC)

	_, err := f.svc.GetEvent(ctx, traineeActor, "weekly")
	require.NoError(t, err)
	_, err = f.svc.GetEvent(ctx, traineeActor, "drill")
	require.NoError(t, err)
	_, err = f.svc.GetEvent(ctx, traineeActor, "p2-meeting")
	require.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.svc.GetEvent(ctx, trainerActor, "p2-meeting")
	require.NoError(t, err)
}

func TestCalendarService_Categories(t *testing.T) {
	f := newCalendarFixture(time.UTC)
	got := f.svc.Categories()
	require.Len(t, got, 1)
	got[0].Color = "#000000"
	assert.Equal(t, "#2563eb", f.svc.Categories()[0].Color)
}
