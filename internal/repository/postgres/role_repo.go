package postgres

import (
	"context"
	"database/sql"
	"errors"

	"trainingportal/internal/domain"

	"github.com/lib/pq"
)

// roleOrder ranks role codes from most to least privileged.
var roleOrder = pq.StringArray{domain.RoleAdmin, domain.RoleTrainer, domain.RoleTrainee}

type roleRepository struct {
	DB *sql.DB
}

func NewRoleRepository(db *sql.DB) domain.RoleRepository {
	return &roleRepository{DB: db}
}

func scanRole(row rowScanner) (*domain.Role, error) {
	var id, code string
	if err := row.Scan(&id, &code); err != nil {
		return nil, err
	}
	return domain.NewRole(id, code), nil
}

func (r *roleRepository) GetByCode(ctx context.Context, code string) (*domain.Role, error) {
	role, err := scanRole(r.DB.QueryRowContext(ctx, `SELECT id, code FROM roles WHERE code = $1`, code))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return role, err
}

// ListByUserID returns the roles of a user, most privileged first.
func (r *roleRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Role, error) {
	query := `
		SELECT r.id, r.code
		FROM roles r
		INNER JOIN user_roles ur ON ur.role_id = r.id
		WHERE ur.user_id = $1
		ORDER BY array_position($2::text[], r.code), r.code
	`
	rows, err := r.DB.QueryContext(ctx, query, userID, roleOrder)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []*domain.Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}
