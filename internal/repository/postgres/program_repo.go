package postgres

import (
	"context"
	"database/sql"
	"errors"

	"trainingportal/internal/domain"
)

const programColumns = `id, title, description, trainer_id, start_date, end_date, capacity, status, created_at, updated_at`

type programRepository struct {
	DB *sql.DB
}

func NewProgramRepository(db *sql.DB) domain.ProgramRepository {
	return &programRepository{DB: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProgram(row rowScanner, extra ...any) (*domain.Program, error) {
	p := &domain.Program{}
	dest := []any{&p.ID, &p.Title, &p.Description, &p.TrainerID, &p.StartDate, &p.EndDate, &p.Capacity, &p.Status, &p.CreatedAt, &p.UpdatedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *programRepository) Create(ctx context.Context, p *domain.Program) error {
	query := `
		INSERT INTO programs (title, description, trainer_id, start_date, end_date, capacity, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query, p.Title, p.Description, p.TrainerID, p.StartDate, p.EndDate, p.Capacity, p.Status, p.CreatedAt, p.UpdatedAt).Scan(&p.ID)
}

func (r *programRepository) GetByID(ctx context.Context, id string) (*domain.Program, error) {
	query := `SELECT ` + programColumns + ` FROM programs WHERE id = $1`
	p, err := scanProgram(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *programRepository) List(ctx context.Context, filter domain.ProgramFilter, params domain.PaginationParams) ([]*domain.Program, int, error) {
	var w whereBuilder
	if filter.Query != "" {
		w.add(`(title ILIKE ? OR description ILIKE ?)`, likePattern(filter.Query))
	}
	if filter.Status != "" {
		w.add(`status = ?`, filter.Status)
	}
	if filter.TrainerID != "" {
		w.add(`trainer_id = ?`, filter.TrainerID)
	}
	where := w.sql()
	limit := w.page(params)
	query := `
		SELECT ` + programColumns + `, COUNT(*) OVER() AS total
		FROM programs
		` + where + `
		ORDER BY start_date DESC, created_at DESC
		` + limit
	rows, err := r.DB.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	programs := make([]*domain.Program, 0)
	total := 0
	for rows.Next() {
		p, err := scanProgram(rows, &total)
		if err != nil {
			return nil, 0, err
		}
		programs = append(programs, p)
	}
	return programs, total, rows.Err()
}

func (r *programRepository) Update(ctx context.Context, p *domain.Program) error {
	query := `
		UPDATE programs
		SET title = $1, description = $2, start_date = $3, end_date = $4, capacity = $5, status = $6, updated_at = $7
		WHERE id = $8
	`
	result, err := r.DB.ExecContext(ctx, query, p.Title, p.Description, p.StartDate, p.EndDate, p.Capacity, p.Status, p.UpdatedAt, p.ID)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *programRepository) Delete(ctx context.Context, id string) error {
	result, err := r.DB.ExecContext(ctx, `DELETE FROM programs WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
