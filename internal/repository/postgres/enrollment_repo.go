package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"trainingportal/internal/domain"
)

type enrollmentRepository struct {
	DB *sql.DB
}

func NewEnrollmentRepository(db *sql.DB) domain.EnrollmentRepository {
	return &enrollmentRepository{DB: db}
}

func scanEnrollment(row rowScanner) (*domain.Enrollment, error) {
	e := &domain.Enrollment{}
	var completed sql.NullTime
	if err := row.Scan(&e.ID, &e.ProgramID, &e.UserID, &e.Status, &completed, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	if completed.Valid {
		e.CompletedAt = &completed.Time
	}
	return e, nil
}

// EnrollWithinCapacity locks the program row for the duration of the transaction so concurrent
// enrollments in the same program see each other's seats.
func (r *enrollmentRepository) EnrollWithinCapacity(ctx context.Context, e *domain.Enrollment, capacity int) (err error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var locked string
	err = tx.QueryRowContext(ctx, `SELECT id FROM programs WHERE id = $1 FOR UPDATE`, e.ProgramID).Scan(&locked)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	if err != nil {
		return err
	}

	if capacity > 0 {
		var n int
		countQuery := `SELECT COUNT(*) FROM enrollments WHERE program_id = $1 AND status = $2`
		if err = tx.QueryRowContext(ctx, countQuery, e.ProgramID, domain.EnrollmentActive).Scan(&n); err != nil {
			return err
		}
		if n >= capacity {
			return domain.ErrProgramFull
		}
	}

	// Only a withdrawn row may be overwritten; any other conflict yields no row.
	query := `
		INSERT INTO enrollments (program_id, user_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (program_id, user_id) DO UPDATE
			SET status = EXCLUDED.status, completed_at = NULL, updated_at = EXCLUDED.updated_at
			WHERE enrollments.status = $6
		RETURNING id, created_at
	`
	err = tx.QueryRowContext(ctx, query, e.ProgramID, e.UserID, domain.EnrollmentActive, e.CreatedAt, e.UpdatedAt, domain.EnrollmentWithdrawn).
		Scan(&e.ID, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrAlreadyEnrolled
	}
	if err != nil {
		return err
	}
	e.Status = domain.EnrollmentActive
	e.CompletedAt = nil
	return tx.Commit()
}

func (r *enrollmentRepository) GetByProgramAndUser(ctx context.Context, programID, userID string) (*domain.Enrollment, error) {
	query := `
		SELECT id, program_id, user_id, status, completed_at, created_at, updated_at
		FROM enrollments
		WHERE program_id = $1 AND user_id = $2
	`
	e, err := scanEnrollment(r.DB.QueryRowContext(ctx, query, programID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *enrollmentRepository) ListByProgramID(ctx context.Context, programID string) ([]*domain.Enrollment, error) {
	query := `
		SELECT id, program_id, user_id, status, completed_at, created_at, updated_at
		FROM enrollments
		WHERE program_id = $1
		ORDER BY created_at
	`
	return r.list(ctx, query, programID)
}

func (r *enrollmentRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Enrollment, error) {
	query := `
		SELECT id, program_id, user_id, status, completed_at, created_at, updated_at
		FROM enrollments
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	return r.list(ctx, query, userID)
}

func (r *enrollmentRepository) list(ctx context.Context, query string, arg string) ([]*domain.Enrollment, error) {
	rows, err := r.DB.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*domain.Enrollment, 0)
	for rows.Next() {
		e, err := scanEnrollment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *enrollmentRepository) UpdateStatus(ctx context.Context, id, status string, completedAt *time.Time) error {
	query := `
		UPDATE enrollments SET status = $1, completed_at = $2, updated_at = NOW()
		WHERE id = $3
	`
	result, err := r.DB.ExecContext(ctx, query, status, completedAt, id)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
