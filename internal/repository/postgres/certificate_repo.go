package postgres

import (
	"context"
	"database/sql"
	"errors"

	"trainingportal/internal/domain"
)

type certificateRepository struct {
	DB *sql.DB
}

func NewCertificateRepository(db *sql.DB) domain.CertificateRepository {
	return &certificateRepository{DB: db}
}

func (r *certificateRepository) Create(ctx context.Context, c *domain.Certificate) error {
	query := `
		INSERT INTO certificates (program_id, user_id, code, issued_by, issued_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query, c.ProgramID, c.UserID, c.Code, c.IssuedBy, c.IssuedAt).Scan(&c.ID)
	if isUniqueViolation(err) {
		return domain.ErrAlreadyIssued
	}
	return err
}

func (r *certificateRepository) GetByCode(ctx context.Context, code string) (*domain.Certificate, error) {
	query := `
		SELECT id, program_id, user_id, code, issued_by, issued_at
		FROM certificates
		WHERE code = $1
	`
	return r.getOne(ctx, query, code)
}

func (r *certificateRepository) GetByProgramAndUser(ctx context.Context, programID, userID string) (*domain.Certificate, error) {
	query := `
		SELECT id, program_id, user_id, code, issued_by, issued_at
		FROM certificates
		WHERE program_id = $1 AND user_id = $2
	`
	return r.getOne(ctx, query, programID, userID)
}

func (r *certificateRepository) getOne(ctx context.Context, query string, args ...any) (*domain.Certificate, error) {
	c := &domain.Certificate{}
	err := r.DB.QueryRowContext(ctx, query, args...).Scan(&c.ID, &c.ProgramID, &c.UserID, &c.Code, &c.IssuedBy, &c.IssuedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

func (r *certificateRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Certificate, error) {
	query := `
		SELECT id, program_id, user_id, code, issued_by, issued_at
		FROM certificates
		WHERE user_id = $1
		ORDER BY issued_at DESC
	`
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*domain.Certificate, 0)
	for rows.Next() {
		c := &domain.Certificate{}
		if err := rows.Scan(&c.ID, &c.ProgramID, &c.UserID, &c.Code, &c.IssuedBy, &c.IssuedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
