package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"trainingportal/internal/domain"
)

type programService struct {
	programRepo    domain.ProgramRepository
	enrollmentRepo domain.EnrollmentRepository
	certService    domain.CertificateService
	contextTimeout time.Duration
}

// NewProgramService returns a ProgramService backed by the given repositories.
// Completing an enrollment issues its certificate through certService.
func NewProgramService(
	programRepo domain.ProgramRepository,
	enrollmentRepo domain.EnrollmentRepository,
	certService domain.CertificateService,
	timeout time.Duration,
) domain.ProgramService {
	return &programService{
		programRepo:    programRepo,
		enrollmentRepo: enrollmentRepo,
		certService:    certService,
		contextTimeout: timeout,
	}
}

func validateProgram(p *domain.Program) error {
	if p.Title == "" {
		return fmt.Errorf("%w: title is required", domain.ErrInvalidInput)
	}
	if p.StartDate.IsZero() || p.EndDate.IsZero() {
		return fmt.Errorf("%w: start_date and end_date are required", domain.ErrInvalidInput)
	}
	if p.EndDate.Before(p.StartDate) {
		return fmt.Errorf("%w: end_date is before start_date", domain.ErrInvalidInput)
	}
	if p.Capacity < 0 {
		return fmt.Errorf("%w: capacity must not be negative", domain.ErrInvalidInput)
	}
	if !domain.ValidProgramStatus(p.Status) {
		return fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, p.Status)
	}
	return nil
}

// canManage reports whether actor may modify p: admins always, trainers only their own programs.
func canManage(actor *domain.Principal, p *domain.Program) bool {
	if actor.IsAdmin() {
		return true
	}
	return actor.HasRole(domain.RoleTrainer) && p.TrainerID == actor.UserID
}

func (s *programService) Create(ctx context.Context, actor *domain.Principal, p *domain.Program) error {
	if !actor.CanManagePrograms() {
		return domain.ErrForbidden
	}
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	p.Title = strings.TrimSpace(p.Title)
	if !actor.IsAdmin() || p.TrainerID == "" {
		p.TrainerID = actor.UserID
	}
	if p.Status == "" {
		p.Status = domain.ProgramStatusDraft
	}
	if err := validateProgram(p); err != nil {
		return err
	}
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	if err := s.programRepo.Create(ctx, p); err != nil {
		return fmt.Errorf("create program: %w", err)
	}
	return nil
}

// Get returns a program. Callers who cannot manage programs only see published ones.
func (s *programService) Get(ctx context.Context, actor *domain.Principal, id string) (*domain.Program, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	p, err := s.programRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get program: %w", err)
	}
	if !actor.CanManagePrograms() && p.Status != domain.ProgramStatusPublished {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

func (s *programService) List(ctx context.Context, actor *domain.Principal, filter domain.ProgramFilter, params domain.PaginationParams) ([]*domain.Program, int, error) {
	if !actor.CanManagePrograms() {
		filter.Status = domain.ProgramStatusPublished
	} else if filter.Status != "" && !domain.ValidProgramStatus(filter.Status) {
		return nil, 0, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, filter.Status)
	}
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	programs, total, err := s.programRepo.List(ctx, filter, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list programs: %w", err)
	}
	return programs, total, nil
}

// managed loads a program and checks that actor may modify it.
func (s *programService) managed(ctx context.Context, actor *domain.Principal, id string) (*domain.Program, error) {
	if !actor.CanManagePrograms() {
		return nil, domain.ErrForbidden
	}
	p, err := s.programRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get program: %w", err)
	}
	if !canManage(actor, p) {
		return nil, domain.ErrForbidden
	}
	return p, nil
}

func (s *programService) Update(ctx context.Context, actor *domain.Principal, id string, upd domain.ProgramUpdate) (*domain.Program, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	p, err := s.managed(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if upd.Title != nil {
		p.Title = strings.TrimSpace(*upd.Title)
	}
	if upd.Description != nil {
		p.Description = *upd.Description
	}
	if upd.StartDate != nil {
		p.StartDate = *upd.StartDate
	}
	if upd.EndDate != nil {
		p.EndDate = *upd.EndDate
	}
	if upd.Capacity != nil {
		p.Capacity = *upd.Capacity
	}
	if upd.Status != nil {
		p.Status = *upd.Status
	}
	if err := validateProgram(p); err != nil {
		return nil, err
	}
	p.UpdatedAt = time.Now()
	if err := s.programRepo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("update program: %w", err)
	}
	return p, nil
}

func (s *programService) Delete(ctx context.Context, actor *domain.Principal, id string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.managed(ctx, actor, id); err != nil {
		return err
	}
	if err := s.programRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete program: %w", err)
	}
	return nil
}

// Enroll enrolls the caller in a published program. A withdrawn enrollment is reactivated.
func (s *programService) Enroll(ctx context.Context, actor *domain.Principal, programID string) (*domain.Enrollment, error) {
	if actor == nil {
		return nil, domain.ErrForbidden
	}
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	p, err := s.programRepo.GetByID(ctx, programID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get program: %w", err)
	}
	if p.Status != domain.ProgramStatusPublished {
		return nil, domain.ErrNotFound
	}

	existing, err := s.enrollmentRepo.GetByProgramAndUser(ctx, programID, actor.UserID)
	switch {
	case err == nil && existing.Status != domain.EnrollmentWithdrawn:
		return nil, domain.ErrAlreadyEnrolled
	case err != nil && !errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("get enrollment: %w", err)
	}

	now := time.Now()
	e := domain.NewEnrollment(programID, actor.UserID, now, now)
	if err := s.enrollmentRepo.EnrollWithinCapacity(ctx, e, p.Capacity); err != nil {
		if errors.Is(err, domain.ErrAlreadyEnrolled) || errors.Is(err, domain.ErrProgramFull) || errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("enroll: %w", err)
	}
	return e, nil
}

func (s *programService) Withdraw(ctx context.Context, actor *domain.Principal, programID string) error {
	if actor == nil {
		return domain.ErrForbidden
	}
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	e, err := s.enrollmentRepo.GetByProgramAndUser(ctx, programID, actor.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotEnrolled
		}
		return fmt.Errorf("get enrollment: %w", err)
	}
	if e.Status != domain.EnrollmentActive {
		return domain.ErrNotEnrolled
	}
	if err := s.enrollmentRepo.UpdateStatus(ctx, e.ID, domain.EnrollmentWithdrawn, nil); err != nil {
		return fmt.Errorf("withdraw enrollment: %w", err)
	}
	return nil
}

func (s *programService) ListEnrollments(ctx context.Context, actor *domain.Principal, programID string) ([]*domain.Enrollment, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.managed(ctx, actor, programID); err != nil {
		return nil, err
	}
	out, err := s.enrollmentRepo.ListByProgramID(ctx, programID)
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	return out, nil
}

func (s *programService) ListMyEnrollments(ctx context.Context, actor *domain.Principal) ([]*domain.EnrollmentWithProgram, error) {
	if actor == nil {
		return nil, domain.ErrForbidden
	}
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	enrollments, err := s.enrollmentRepo.ListByUserID(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	out := make([]*domain.EnrollmentWithProgram, 0, len(enrollments))
	for _, e := range enrollments {
		p, err := s.programRepo.GetByID(ctx, e.ProgramID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("get program: %w", err)
		}
		out = append(out, &domain.EnrollmentWithProgram{Enrollment: e, Program: p})
	}
	return out, nil
}

// Complete marks userID's enrollment as completed and issues the certificate.
// Completing an already completed enrollment returns the existing certificate.
func (s *programService) Complete(ctx context.Context, actor *domain.Principal, programID, userID string) (*domain.Certificate, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.managed(ctx, actor, programID); err != nil {
		return nil, err
	}
	e, err := s.enrollmentRepo.GetByProgramAndUser(ctx, programID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotEnrolled
		}
		return nil, fmt.Errorf("get enrollment: %w", err)
	}
	switch e.Status {
	case domain.EnrollmentWithdrawn:
		return nil, domain.ErrNotEnrolled
	case domain.EnrollmentActive:
		now := time.Now().UTC()
		if err := s.enrollmentRepo.UpdateStatus(ctx, e.ID, domain.EnrollmentCompleted, &now); err != nil {
			return nil, fmt.Errorf("complete enrollment: %w", err)
		}
	}
	return s.certService.Issue(ctx, actor.UserID, programID, userID)
}
