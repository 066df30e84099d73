package models

import "time"

type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

// LifePool is the per-user energy pool gating quiz attempts.
// RegenerationRate is expressed in hours per life.
type LifePool struct {
	Current          int       `json:"current"`
	Max              int       `json:"max"`
	LastRegeneration time.Time `json:"last_regeneration"`
	RegenerationRate int       `json:"regeneration_rate"`
}

type User struct {
	ID           int      `json:"id"`
	Username     string   `json:"username"`
	Email        string   `json:"email"`
	PasswordHash string   `json:"-"`
	Role         UserRole `json:"role"`
	Points       int      `json:"points"`
	// Streak is a denormalized display value refreshed after each attempt.
	// The streak service recomputes it from the attempt ledger on every read.
	Streak    int       `json:"streak"`
	Lives     LifePool  `json:"lives"`
	CreatedAt time.Time `json:"created_at"`
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
