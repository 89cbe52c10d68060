package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"trainingportal/internal/calendar"
	"trainingportal/internal/domain"
)

// ReminderWindow is how far ahead the reminder job looks for upcoming occurrences.
const ReminderWindow = 24 * time.Hour

// ReminderJob emails enrolled trainees about the upcoming occurrences of their programs' events.
// The run as a whole has no deadline; every repository lookup gets its own lookupTimeout so a
// long batch of sends cannot starve the later recipients.
type ReminderJob struct {
	eventRepo      domain.EventRepository
	programRepo    domain.ProgramRepository
	enrollmentRepo domain.EnrollmentRepository
	userRepo       domain.UserRepository
	emailService   domain.EmailService
	loc            *time.Location
	logger         *slog.Logger
	lookupTimeout  time.Duration
	now            func() time.Time
}

// NewReminderJob returns a ReminderJob that formats times in loc.
func NewReminderJob(
	eventRepo domain.EventRepository,
	programRepo domain.ProgramRepository,
	enrollmentRepo domain.EnrollmentRepository,
	userRepo domain.UserRepository,
	emailService domain.EmailService,
	loc *time.Location,
	logger *slog.Logger,
	lookupTimeout time.Duration,
) *ReminderJob {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ReminderJob{
		eventRepo:      eventRepo,
		programRepo:    programRepo,
		enrollmentRepo: enrollmentRepo,
		userRepo:       userRepo,
		emailService:   emailService,
		loc:            loc,
		logger:         logger,
		lookupTimeout:  lookupTimeout,
		now:            time.Now,
	}
}

// reminderRun caches lookups for the duration of one RunOnce.
type reminderRun struct {
	job         *ReminderJob
	programs    map[string]*domain.Program
	enrollments map[string][]*domain.Enrollment
	users       map[string]*domain.User
}

func (j *ReminderJob) step(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, j.lookupTimeout)
}

// RunOnce sends reminders for occurrences starting in [now, now+ReminderWindow) and returns
// the number of emails sent. Individual send failures are logged and skipped.
func (j *ReminderJob) RunOnce(ctx context.Context, now time.Time) (int, error) {
	from, to := now, now.Add(ReminderWindow)
	listCtx, cancel := j.step(ctx)
	events, err := j.eventRepo.List(listCtx, domain.EventFilter{From: from, To: to})
	cancel()
	if err != nil {
		return 0, fmt.Errorf("list events: %w", err)
	}
	occ, err := calendar.ExpandOccurrences(events, from, to, 0)
	if err != nil {
		return 0, fmt.Errorf("expand occurrences: %w", err)
	}

	run := &reminderRun{
		job:         j,
		programs:    make(map[string]*domain.Program),
		enrollments: make(map[string][]*domain.Enrollment),
		users:       make(map[string]*domain.User),
	}
	sent := 0
	for _, o := range occ {
		if o.ProgramID == nil || o.StartTime.Before(from) {
			continue
		}
		program, err := run.program(ctx, *o.ProgramID)
		if err != nil {
			return sent, err
		}
		if program == nil {
			continue
		}
		enrollments, err := run.enrollmentsOf(ctx, program.ID)
		if err != nil {
			return sent, err
		}
		for _, e := range enrollments {
			if e.Status != domain.EnrollmentActive {
				continue
			}
			user, err := run.user(ctx, e.UserID)
			if err != nil {
				return sent, err
			}
			if user == nil {
				continue
			}
			data := &domain.EventReminderEmailData{
				Email:        user.Email,
				FirstName:    user.Name,
				ProgramTitle: program.Title,
				EventTitle:   o.Title,
				Location:     o.Location,
				StartsAt:     o.StartTime,
				TimeZone:     j.loc.String(),
			}
			if err := j.emailService.SendEventReminder(ctx, data); err != nil {
				j.logger.WarnContext(ctx, "reminder failed", "event_id", o.ID, "user_id", user.ID, "err", err)
				continue
			}
			sent++
		}
	}
	return sent, nil
}

// program returns nil for programs deleted since the event was listed.
func (r *reminderRun) program(ctx context.Context, id string) (*domain.Program, error) {
	if p, ok := r.programs[id]; ok {
		return p, nil
	}
	ctx, cancel := r.job.step(ctx)
	defer cancel()
	p, err := r.job.programRepo.GetByID(ctx, id)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("get program: %w", err)
	}
	r.programs[id] = p
	return p, nil
}

func (r *reminderRun) enrollmentsOf(ctx context.Context, programID string) ([]*domain.Enrollment, error) {
	if list, ok := r.enrollments[programID]; ok {
		return list, nil
	}
	ctx, cancel := r.job.step(ctx)
	defer cancel()
	list, err := r.job.enrollmentRepo.ListByProgramID(ctx, programID)
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	r.enrollments[programID] = list
	return list, nil
}

func (r *reminderRun) user(ctx context.Context, id string) (*domain.User, error) {
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	ctx, cancel := r.job.step(ctx)
	defer cancel()
	u, err := r.job.userRepo.GetByID(ctx, id)
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("get user: %w", err)
	}
	r.users[id] = u
	return u, nil
}

// Run is the cron entry point.
func (j *ReminderJob) Run() {
	ctx := context.Background()
	sent, err := j.RunOnce(ctx, j.now())
	if err != nil {
		j.logger.Error("reminder run failed", "err", err, "sent", sent)
		return
	}
	j.logger.Info("reminders sent", "count", sent)
}

// NewReminderScheduler registers job on a cron scheduler running in the job's location.
// The caller starts and stops the returned scheduler.
func NewReminderScheduler(spec string, job *ReminderJob) (*cron.Cron, error) {
	c := cron.New(cron.WithLocation(job.loc))
	if _, err := c.AddJob(spec, job); err != nil {
		return nil, fmt.Errorf("schedule reminders %q: %w", spec, err)
	}
	return c, nil
}
