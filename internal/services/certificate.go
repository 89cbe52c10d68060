package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"trainingportal/internal/domain"
)

type certificateService struct {
	certRepo       domain.CertificateRepository
	programRepo    domain.ProgramRepository
	userRepo       domain.UserRepository
	emailService   domain.EmailService
	logger         *slog.Logger
	contextTimeout time.Duration
	now            func() time.Time
	newCode        func() string
}

// NewCertificateService returns a CertificateService. emailService may be nil.
func NewCertificateService(
	certRepo domain.CertificateRepository,
	programRepo domain.ProgramRepository,
	userRepo domain.UserRepository,
	emailService domain.EmailService,
	logger *slog.Logger,
	timeout time.Duration,
) domain.CertificateService {
	if logger == nil {
		logger = slog.Default()
	}
	return &certificateService{
		certRepo:       certRepo,
		programRepo:    programRepo,
		userRepo:       userRepo,
		emailService:   emailService,
		logger:         logger,
		contextTimeout: timeout,
		now:            time.Now,
		newCode:        func() string { return uuid.NewString() },
	}
}

// Issue creates the certificate of userID for programID. A certificate is issued once per
// program and user; later calls return the existing one without sending another email.
func (s *certificateService) Issue(ctx context.Context, issuerID, programID, userID string) (*domain.Certificate, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	existing, err := s.certRepo.GetByProgramAndUser(ctx, programID, userID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("get certificate: %w", err)
	}

	cert := &domain.Certificate{
		ProgramID: programID,
		UserID:    userID,
		Code:      s.newCode(),
		IssuedBy:  issuerID,
		IssuedAt:  s.now().UTC(),
	}
	if err := s.certRepo.Create(ctx, cert); err != nil {
		if !errors.Is(err, domain.ErrAlreadyIssued) {
			return nil, fmt.Errorf("create certificate: %w", err)
		}
		// A concurrent completion issued it first.
		winner, err := s.certRepo.GetByProgramAndUser(ctx, programID, userID)
		if err != nil {
			return nil, fmt.Errorf("get certificate: %w", err)
		}
		return winner, nil
	}
	s.notify(ctx, cert)
	return cert, nil
}

func (s *certificateService) notify(ctx context.Context, cert *domain.Certificate) {
	if s.emailService == nil {
		return
	}
	user, err := s.userRepo.GetByID(ctx, cert.UserID)
	if err != nil {
		s.logger.WarnContext(ctx, "certificate email skipped", "certificate_id", cert.ID, "err", err)
		return
	}
	program, err := s.programRepo.GetByID(ctx, cert.ProgramID)
	if err != nil {
		s.logger.WarnContext(ctx, "certificate email skipped", "certificate_id", cert.ID, "err", err)
		return
	}
	data := &domain.CertificateIssuedEmailData{
		Email:        user.Email,
		FirstName:    user.Name,
		ProgramTitle: program.Title,
		Code:         cert.Code,
	}
	if err := s.emailService.SendCertificateIssued(ctx, data); err != nil {
		s.logger.WarnContext(ctx, "certificate email failed", "certificate_id", cert.ID, "err", err)
	}
}

func (s *certificateService) ListMine(ctx context.Context, actor *domain.Principal) ([]*domain.Certificate, error) {
	if actor == nil {
		return nil, domain.ErrForbidden
	}
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	certs, err := s.certRepo.ListByUserID(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("list certificates: %w", err)
	}
	return certs, nil
}

// Verify looks a certificate up by its public code.
func (s *certificateService) Verify(ctx context.Context, code string) (*domain.Certificate, error) {
	if _, err := uuid.Parse(code); err != nil {
		return nil, domain.ErrNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	cert, err := s.certRepo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get certificate: %w", err)
	}
	return cert, nil
}
