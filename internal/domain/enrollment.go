package domain

import (
	"context"
	"time"
)

// Enrollment statuses.
const (
	EnrollmentActive    = "active"
	EnrollmentCompleted = "completed"
	EnrollmentWithdrawn = "withdrawn"
)

// Enrollment links a user to a training program.
// swagger:model Enrollment
type Enrollment struct {
	ID          string     `json:"id"`
	ProgramID   string     `json:"program_id"`
	UserID      string     `json:"user_id"`
	Status      string     `json:"status"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// NewEnrollment returns an active enrollment. ID is typically set by the repository on create.
func NewEnrollment(programID, userID string, createdAt, updatedAt time.Time) *Enrollment {
	return &Enrollment{
		ProgramID: programID,
		UserID:    userID,
		Status:    EnrollmentActive,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}
}

// EnrollmentWithProgram bundles an enrollment with its program.
type EnrollmentWithProgram struct {
	Enrollment *Enrollment `json:"enrollment"`
	Program    *Program    `json:"program"`
}

// EnrollmentRepository defines storage operations for enrollments.
type EnrollmentRepository interface {
	// EnrollWithinCapacity stores e as active, or reactivates the user's withdrawn enrollment,
	// atomically with the capacity check. capacity 0 means unlimited. It returns ErrProgramFull
	// or ErrAlreadyEnrolled.
	EnrollWithinCapacity(ctx context.Context, e *Enrollment, capacity int) error
	GetByProgramAndUser(ctx context.Context, programID, userID string) (*Enrollment, error)
	ListByProgramID(ctx context.Context, programID string) ([]*Enrollment, error)
	ListByUserID(ctx context.Context, userID string) ([]*Enrollment, error)
	UpdateStatus(ctx context.Context, id, status string, completedAt *time.Time) error
}
