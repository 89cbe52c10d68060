package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"trainingportal/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReminderFixture(emails *fakeEmailService) (*ReminderJob, *fakeEnrollmentRepo) {
	roles := newFakeRoleRepo()
	users := newFakeUserRepo(roles)
	users.add(&domain.User{ID: "trainee-1", Email: "one@example.com", Name: "One"})
	users.add(&domain.User{ID: "trainee-2", Email: "two@example.com", Name: "Two"})

	enrollments := &fakeEnrollmentRepo{}
	enrollments.add("p1", "trainee-1", domain.EnrollmentActive)
	enrollments.add("p1", "trainee-2", domain.EnrollmentWithdrawn)
	enrollments.add("p2", "trainee-2", domain.EnrollmentActive)
	enrollments.add("p1", "deleted-user", domain.EnrollmentActive)

	programs := newFakeProgramRepo(
		testProgram("p1", "trainer-1", domain.ProgramStatusPublished, 0),
		testProgram("p2", "trainer-2", domain.ProgramStatusPublished, 0),
	)
	job := NewReminderJob(newFakeEventRepo(calendarEvents()...), programs, enrollments, users, emails, time.UTC, nil, time.Second)
	return job, enrollments
}

func TestReminderJob_RunOnce(t *testing.T) {
	emails := &fakeEmailService{}
	job, _ := newReminderFixture(emails)

	sent, err := job.RunOnce(context.Background(), time.Date(2024, 2, 12, 7, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	require.Len(t, emails.reminders, 1)
	r := emails.reminders[0]
	assert.Equal(t, "one@example.com", r.Email)
	assert.Equal(t, "Program p1", r.ProgramTitle)
	assert.Equal(t, "Weekly session", r.EventTitle)
	assert.Equal(t, time.Date(2024, 2, 12, 10, 0, 0, 0, time.UTC), r.StartsAt)
	assert.Equal(t, "UTC", r.TimeZone)

	emails.reminders = nil
	sent, err = job.RunOnce(context.Background(), time.Date(2024, 2, 19, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, "two@example.com", emails.reminders[0].Email)
}

func TestReminderJob_SkipsStartedOccurrences(t *testing.T) {
	emails := &fakeEmailService{}
	job, _ := newReminderFixture(emails)

	// The weekly occurrence at 10:00 is still running but has already started.
	sent, err := job.RunOnce(context.Background(), time.Date(2024, 2, 12, 11, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Empty(t, emails.reminders)
}

func TestReminderJob_SendFailureIsSkipped(t *testing.T) {
	emails := &fakeEmailService{err: errors.New("throttled")}
	job, _ := newReminderFixture(emails)

	sent, err := job.RunOnce(context.Background(), time.Date(2024, 2, 12, 7, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Zero(t, sent)
}

// slowEmailService takes delay per send and, like the SES mailer, ignores the caller's deadline.
type slowEmailService struct {
	*fakeEmailService
	delay time.Duration
}

func (s slowEmailService) SendEventReminder(ctx context.Context, data *domain.EventReminderEmailData) error {
	time.Sleep(s.delay)
	return s.fakeEmailService.SendEventReminder(ctx, data)
}

// deadlineUserRepo fails lookups whose context has expired, like a database driver.
type deadlineUserRepo struct {
	*fakeUserRepo
}

func (r deadlineUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.fakeUserRepo.GetByID(ctx, id)
}

// countingEnrollmentRepo counts ListByProgramID calls.
type countingEnrollmentRepo struct {
	*fakeEnrollmentRepo
	listed int
}

func (r *countingEnrollmentRepo) ListByProgramID(ctx context.Context, programID string) ([]*domain.Enrollment, error) {
	r.listed++
	return r.fakeEnrollmentRepo.ListByProgramID(ctx, programID)
}

func TestReminderJob_Run_SlowSendsReachEveryRecipient(t *testing.T) {
	day := time.Date(2024, 2, 12, 0, 0, 0, 0, time.UTC)
	events := newFakeEventRepo(
		&domain.CalendarEvent{ID: "morning", ProgramID: strPtr("p1"), Title: "Morning drill",
			StartTime: day.Add(9 * time.Hour), EndTime: day.Add(10 * time.Hour)},
		&domain.CalendarEvent{ID: "afternoon", ProgramID: strPtr("p1"), Title: "Afternoon review",
			StartTime: day.Add(13 * time.Hour), EndTime: day.Add(14 * time.Hour)},
	)

	users := newFakeUserRepo(newFakeRoleRepo())
	enrollments := &countingEnrollmentRepo{fakeEnrollmentRepo: &fakeEnrollmentRepo{}}
	for i := 1; i <= 3; i++ {
		id := fmt.Sprintf("trainee-%d", i)
		users.add(&domain.User{ID: id, Email: id + "@example.com"})
		enrollments.add("p1", id, domain.EnrollmentActive)
	}
	programs := newFakeProgramRepo(testProgram("p1", "trainer-1", domain.ProgramStatusPublished, 0))
	emails := &fakeEmailService{}

	job := NewReminderJob(events, programs, enrollments, deadlineUserRepo{users}, slowEmailService{emails, 30 * time.Millisecond},
		time.UTC, nil, 20*time.Millisecond)
	job.now = func() time.Time { return day.Add(7 * time.Hour) }

	job.Run()

	require.Len(t, emails.reminders, 6)
	assert.Equal(t, "trainee-3@example.com", emails.reminders[5].Email)
	assert.Equal(t, "Afternoon review", emails.reminders[5].EventTitle)
	assert.Equal(t, 1, enrollments.listed)
}

func TestNewReminderScheduler(t *testing.T) {
	job, _ := newReminderFixture(&fakeEmailService{})

	c, err := NewReminderScheduler("0 7 * * *", job)
	require.NoError(t, err)
	require.Len(t, c.Entries(), 1)
	assert.Equal(t, time.UTC, c.Location())

	_, err = NewReminderScheduler("every morning", job)
	require.Error(t, err)
}
