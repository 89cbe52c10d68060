package domain

import "errors"

// Sentinel errors shared by repositories, services and HTTP controllers.
var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrDuplicateEmail     = errors.New("email already in use")
	ErrAlreadyEnrolled    = errors.New("already enrolled")
	ErrNotEnrolled        = errors.New("not enrolled")
	ErrProgramFull        = errors.New("program is full")
	ErrUserInUse          = errors.New("user still owns programs")
	ErrAlreadyIssued      = errors.New("certificate already issued")
)
