package services

import (
	"context"
	"time"

	"github.com/Aldiyar97/quiz-league/models"
	"github.com/Aldiyar97/quiz-league/repositories"
)

// streakLookbackDays bounds the ledger scan. A streak cannot be longer than
// the window, which comfortably exceeds any real usage.
const streakLookbackDays = 366

// StreakFromDays walks backward over the set of UTC activity days and counts
// the consecutive run ending on asOf's own day. No activity today means the
// streak is 0 regardless of history. days may be in any order.
func StreakFromDays(days []time.Time, asOf time.Time) int {
	present := make(map[time.Time]bool, len(days))
	for _, d := range days {
		present[utcDay(d)] = true
	}

	streak := 0
	for day := utcDay(asOf); present[day]; day = day.AddDate(0, 0, -1) {
		streak++
	}
	return streak
}

func utcDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DayActivity is one day of the streak-details chart.
type DayActivity struct {
	Date     time.Time `json:"date"`
	Attempts int       `json:"attempts"`
	XP       int       `json:"xp"`
	Active   bool      `json:"active"`
}

type StreakService interface {
	// ComputeStreak derives the consecutive-day count from the attempt
	// ledger. This is the authoritative value; the users.streak column is a
	// display cache only.
	ComputeStreak(ctx context.Context, userID int, asOf time.Time) (int, error)
	// Details returns a day-by-day breakdown of the last `days` days, newest
	// last, for activity charts.
	Details(ctx context.Context, userID int, asOf time.Time, days int) ([]DayActivity, error)
}

type streakService struct {
	attemptRepo repositories.AttemptRepository
}

func NewStreakService(attemptRepo repositories.AttemptRepository) StreakService {
	return &streakService{attemptRepo: attemptRepo}
}

func (s *streakService) ComputeStreak(ctx context.Context, userID int, asOf time.Time) (int, error) {
	since := utcDay(asOf).AddDate(0, 0, -streakLookbackDays)
	days, err := s.attemptRepo.ActivityDays(ctx, userID, since)
	if err != nil {
		return 0, err
	}
	return StreakFromDays(days, asOf), nil
}

func (s *streakService) Details(ctx context.Context, userID int, asOf time.Time, days int) ([]DayActivity, error) {
	if days <= 0 {
		days = 30
	}
	end := utcDay(asOf).AddDate(0, 0, 1)
	start := end.AddDate(0, 0, -days)

	scores, err := s.attemptRepo.DailyScores(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}

	byDay := make(map[time.Time]models.DayScore, len(scores))
	for _, sc := range scores {
		byDay[utcDay(sc.Day)] = sc
	}

	out := make([]DayActivity, 0, days)
	for day := start; day.Before(end); day = day.AddDate(0, 0, 1) {
		activity := DayActivity{Date: day}
		if sc, ok := byDay[day]; ok {
			activity.Attempts = sc.Attempts
			activity.XP = sc.XP
			activity.Active = sc.Attempts > 0
		}
		out = append(out, activity)
	}
	return out, nil
}
