package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
	"trainingportal/internal/domain"
)

const eventColumns = `id, program_id, title, description, location, category, start_time, end_time, recurrence_rule, created_by, created_at, updated_at`

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

func scanEvent(row rowScanner) (*domain.CalendarEvent, error) {
	e := &domain.CalendarEvent{}
	var programID sql.NullString
	err := row.Scan(&e.ID, &programID, &e.Title, &e.Description, &e.Location, &e.Category,
		&e.StartTime, &e.EndTime, &e.RecurrenceRule, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if programID.Valid {
		e.ProgramID = &programID.String
	}
	return e, nil
}

func (r *eventRepository) Create(ctx context.Context, e *domain.CalendarEvent) error {
	query := `
		INSERT INTO calendar_events (program_id, title, description, location, category, start_time, end_time, recurrence_rule, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query, nullString(e.ProgramID), e.Title, e.Description, e.Location, e.Category,
		e.StartTime, e.EndTime, e.RecurrenceRule, e.CreatedBy, e.CreatedAt, e.UpdatedAt).Scan(&e.ID)
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.CalendarEvent, error) {
	e, err := scanEvent(r.DB.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM calendar_events WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *eventRepository) Update(ctx context.Context, e *domain.CalendarEvent) error {
	query := `
		UPDATE calendar_events
		SET title = $1, description = $2, location = $3, category = $4, start_time = $5, end_time = $6, recurrence_rule = $7, updated_at = $8
		WHERE id = $9
	`
	result, err := r.DB.ExecContext(ctx, query, e.Title, e.Description, e.Location, e.Category,
		e.StartTime, e.EndTime, e.RecurrenceRule, e.UpdatedAt, e.ID)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *eventRepository) Delete(ctx context.Context, id string) error {
	result, err := r.DB.ExecContext(ctx, `DELETE FROM calendar_events WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *eventRepository) List(ctx context.Context, filter domain.EventFilter) ([]*domain.CalendarEvent, error) {
	var w whereBuilder
	if !filter.From.IsZero() {
		w.add(`(recurrence_rule <> '' OR end_time >= ?)`, filter.From)
	}
	if !filter.To.IsZero() {
		w.add(`start_time < ?`, filter.To)
	}
	if filter.Category != "" {
		w.add(`category = ?`, filter.Category)
	}
	if filter.ProgramID != "" {
		w.add(`program_id = ?`, filter.ProgramID)
	}
	if filter.Restricted {
		if len(filter.VisibleProgramIDs) == 0 {
			w.addRaw(`program_id IS NULL`)
		} else {
			w.add(`(program_id IS NULL OR program_id = ANY(?))`, pq.Array(filter.VisibleProgramIDs))
		}
	}
	query := `SELECT ` + eventColumns + ` FROM calendar_events ` + w.sql() + ` ORDER BY start_time, id`

	rows, err := r.DB.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]*domain.CalendarEvent, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func nullString(s *string) sql.NullString {
	if s == nil || *s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
