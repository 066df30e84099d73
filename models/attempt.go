package models

import "time"

// Attempt is an immutable quiz completion record. It is never updated after
// creation and is the source of truth for XP, streaks and weekly scores.
type Attempt struct {
	ID        int       `json:"id" db:"id"`
	UserID    int       `json:"user_id" db:"user_id"`
	QuizID    int       `json:"quiz_id" db:"quiz_id"`
	Score     int       `json:"score" db:"score"`
	Answers   []bool    `json:"answers" db:"answers"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// DayScore aggregates attempt activity for one UTC calendar day.
type DayScore struct {
	Day      time.Time `json:"day"`
	XP       int       `json:"xp"`
	Attempts int       `json:"attempts"`
}
