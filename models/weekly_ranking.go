package models

import "time"

type RankingStatus string

const (
	RankingStatusNew       RankingStatus = "new"
	RankingStatusPromoted  RankingStatus = "promoted"
	RankingStatusRelegated RankingStatus = "relegated"
	RankingStatusStayed    RankingStatus = "stayed"
)

// RankingEntry is one member row of a weekly division snapshot.
// Username and Points are copies taken at snapshot-build time.
type RankingEntry struct {
	UserID       int           `json:"user_id" db:"user_id"`
	Username     string        `json:"username" db:"username"`
	Points       int           `json:"points" db:"points"`
	Rank         int           `json:"rank" db:"rank"`
	PreviousRank *int          `json:"previous_rank,omitempty" db:"previous_rank"`
	Status       RankingStatus `json:"status" db:"status"`
}

// WeeklyRanking is the persisted snapshot for one (weekStart, division) pair.
// Entries are ordered by rank ascending. Once IsProcessed is set the snapshot
// is immutable: rebuilds and repeated promotion runs are rejected.
type WeeklyRanking struct {
	ID          int            `json:"id" db:"id"`
	WeekStart   time.Time      `json:"week_start" db:"week_start"`
	WeekEnd     time.Time      `json:"week_end" db:"week_end"`
	DivisionID  int            `json:"division_id" db:"division_id"`
	IsProcessed bool           `json:"is_processed" db:"is_processed"`
	Entries     []RankingEntry `json:"rankings"`
}

// EntryForUser returns the entry for the given user, or nil if absent.
func (w *WeeklyRanking) EntryForUser(userID int) *RankingEntry {
	for i := range w.Entries {
		if w.Entries[i].UserID == userID {
			return &w.Entries[i]
		}
	}
	return nil
}
