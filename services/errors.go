package services

import "errors"

// Shared errors used across services and the HTTP mapping layer.
var (
	ErrNotFound = errors.New("requested resource not found")

	// Validation and business rules
	ErrValidationFailed    = errors.New("validation failed")
	ErrPasswordTooShort    = errors.New("password is too short")
	ErrUsernameRequired    = errors.New("username is required")
	ErrInvalidWeekStart    = errors.New("invalid week start date")
	ErrLadderNotConfigured = errors.New("division ladder is not configured")

	// Life gate
	ErrInsufficientLives = errors.New("no lives remaining")

	// Ranking lifecycle
	ErrWeekAlreadyProcessed = errors.New("weekly ranking already processed for this week")

	// Quiz attempt lifecycle
	ErrQuizAlreadyCompleted = errors.New("quiz already completed")
	ErrQuizAttemptFailed    = errors.New("no attempt lives remaining for this quiz")

	// Authentication and authorization
	ErrAuthInvalidCredentials = errors.New("invalid email or password")
	ErrAuthEmailTaken         = errors.New("email is already taken")
	ErrAuthUsernameTaken      = errors.New("username is already taken")
	ErrForbiddenOperation     = errors.New("operation not allowed for the current user")

	// Entity-specific not-found errors
	ErrUserNotFound     = errors.New("user not found")
	ErrDivisionNotFound = errors.New("division not found")
	ErrRankingNotFound  = errors.New("weekly ranking not found")
	ErrProgressNotFound = errors.New("quiz progress not found")
)
