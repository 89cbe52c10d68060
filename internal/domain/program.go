package domain

import (
	"context"
	"time"
)

// Program statuses.
const (
	ProgramStatusDraft     = "draft"
	ProgramStatusPublished = "published"
	ProgramStatusArchived  = "archived"
)

// ValidProgramStatus reports whether s is a known program status.
func ValidProgramStatus(s string) bool {
	switch s {
	case ProgramStatusDraft, ProgramStatusPublished, ProgramStatusArchived:
		return true
	}
	return false
}

// Program is a training program run by a trainer.
// swagger:model Program
type Program struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	TrainerID   string    `json:"trainer_id"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	// Capacity is the maximum number of active enrollments; 0 means unlimited.
	Capacity  int       `json:"capacity"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewProgram returns a new draft Program. ID is typically set by the repository on create.
func NewProgram(title, description, trainerID string, startDate, endDate time.Time, capacity int) *Program {
	return &Program{
		Title:       title,
		Description: description,
		TrainerID:   trainerID,
		StartDate:   startDate,
		EndDate:     endDate,
		Capacity:    capacity,
		Status:      ProgramStatusDraft,
	}
}

// ProgramFilter narrows program listings.
type ProgramFilter struct {
	Query     string
	Status    string
	TrainerID string
}

// ProgramUpdate holds the optional fields of a program update. Nil fields are left unchanged.
type ProgramUpdate struct {
	Title       *string
	Description *string
	StartDate   *time.Time
	EndDate     *time.Time
	Capacity    *int
	Status      *string
}

// ProgramRepository defines storage operations for training programs.
type ProgramRepository interface {
	Create(ctx context.Context, p *Program) error
	GetByID(ctx context.Context, id string) (*Program, error)
	List(ctx context.Context, filter ProgramFilter, params PaginationParams) ([]*Program, int, error)
	Update(ctx context.Context, p *Program) error
	Delete(ctx context.Context, id string) error
}

// ProgramService defines program management and enrollment operations.
type ProgramService interface {
	Create(ctx context.Context, actor *Principal, p *Program) error
	Get(ctx context.Context, actor *Principal, id string) (*Program, error)
	List(ctx context.Context, actor *Principal, filter ProgramFilter, params PaginationParams) ([]*Program, int, error)
	Update(ctx context.Context, actor *Principal, id string, upd ProgramUpdate) (*Program, error)
	Delete(ctx context.Context, actor *Principal, id string) error

	Enroll(ctx context.Context, actor *Principal, programID string) (*Enrollment, error)
	Withdraw(ctx context.Context, actor *Principal, programID string) error
	ListEnrollments(ctx context.Context, actor *Principal, programID string) ([]*Enrollment, error)
	ListMyEnrollments(ctx context.Context, actor *Principal) ([]*EnrollmentWithProgram, error)
	Complete(ctx context.Context, actor *Principal, programID, userID string) (*Certificate, error)
}
