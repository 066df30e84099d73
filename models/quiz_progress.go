package models

import "time"

// AttemptLives is the per-quiz heart count a progress document starts with.
// It is independent from the user's LifePool.
const AttemptLives = 5

// QuizProgress tracks one in-flight quiz attempt. A user has at most one
// progress document per quiz; resetting deletes and recreates it.
type QuizProgress struct {
	ID              int       `json:"id" db:"id"`
	UserID          int       `json:"user_id" db:"user_id"`
	QuizID          int       `json:"quiz_id" db:"quiz_id"`
	Lives           int       `json:"lives" db:"lives"`
	CurrentQuestion int       `json:"current_question" db:"current_question"`
	Answers         []bool    `json:"answers" db:"answers"`
	IsCompleted     bool      `json:"is_completed" db:"is_completed"`
	IsFailed        bool      `json:"is_failed" db:"is_failed"`
	StartedAt       time.Time `json:"started_at" db:"started_at"`
	LastActivityAt  time.Time `json:"last_activity_at" db:"last_activity_at"`
}

// Active reports whether the attempt can still accept answers.
func (p *QuizProgress) Active() bool {
	return !p.IsCompleted && !p.IsFailed
}
