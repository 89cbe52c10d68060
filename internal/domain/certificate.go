package domain

import (
	"context"
	"time"
)

// Certificate is issued to a trainee who completed a program.
// swagger:model Certificate
type Certificate struct {
	ID        string    `json:"id"`
	ProgramID string    `json:"program_id"`
	UserID    string    `json:"user_id"`
	Code      string    `json:"code"`
	IssuedBy  string    `json:"issued_by"`
	IssuedAt  time.Time `json:"issued_at"`
}

// CertificateRepository defines storage operations for certificates.
type CertificateRepository interface {
	Create(ctx context.Context, c *Certificate) error
	GetByCode(ctx context.Context, code string) (*Certificate, error)
	GetByProgramAndUser(ctx context.Context, programID, userID string) (*Certificate, error)
	ListByUserID(ctx context.Context, userID string) ([]*Certificate, error)
}

// CertificateService issues and looks up certificates.
type CertificateService interface {
	Issue(ctx context.Context, issuerID, programID, userID string) (*Certificate, error)
	ListMine(ctx context.Context, actor *Principal) ([]*Certificate, error)
	Verify(ctx context.Context, code string) (*Certificate, error)
}
