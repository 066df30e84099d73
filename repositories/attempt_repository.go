package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/Aldiyar97/quiz-league/models"
	"github.com/lib/pq"
)

type AttemptRepository interface {
	Create(ctx context.Context, attempt *models.Attempt) error
	// SumScoreBetween totals attempt scores with created_at in [from, to).
	SumScoreBetween(ctx context.Context, userID int, from, to time.Time) (int, error)
	// DailyScores buckets attempts per UTC calendar day, oldest first.
	DailyScores(ctx context.Context, userID int, from, to time.Time) ([]models.DayScore, error)
	// ActivityDays returns the distinct UTC days with at least one attempt
	// since the given time, most recent first.
	ActivityDays(ctx context.Context, userID int, since time.Time) ([]time.Time, error)
}

type postgresAttemptRepository struct {
	db *sql.DB
}

func NewPostgresAttemptRepository(db *sql.DB) AttemptRepository {
	return &postgresAttemptRepository{db: db}
}

func (r *postgresAttemptRepository) Create(ctx context.Context, attempt *models.Attempt) error {
	query := `
		INSERT INTO attempts (user_id, quiz_id, score, answers)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	return r.db.QueryRowContext(ctx, query,
		attempt.UserID,
		attempt.QuizID,
		attempt.Score,
		pq.Array(attempt.Answers),
	).Scan(&attempt.ID, &attempt.CreatedAt)
}

func (r *postgresAttemptRepository) SumScoreBetween(ctx context.Context, userID int, from, to time.Time) (int, error) {
	query := `
		SELECT COALESCE(SUM(score), 0)
		FROM attempts
		WHERE user_id = $1 AND created_at >= $2 AND created_at < $3`

	var total int
	err := r.db.QueryRowContext(ctx, query, userID, from, to).Scan(&total)
	return total, err
}

func (r *postgresAttemptRepository) DailyScores(ctx context.Context, userID int, from, to time.Time) ([]models.DayScore, error) {
	query := `
		SELECT (created_at AT TIME ZONE 'UTC')::date AS day, SUM(score), COUNT(*)
		FROM attempts
		WHERE user_id = $1 AND created_at >= $2 AND created_at < $3
		GROUP BY day
		ORDER BY day ASC`

	rows, err := r.db.QueryContext(ctx, query, userID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	days := make([]models.DayScore, 0)
	for rows.Next() {
		var d models.DayScore
		if err := rows.Scan(&d.Day, &d.XP, &d.Attempts); err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	return days, rows.Err()
}

func (r *postgresAttemptRepository) ActivityDays(ctx context.Context, userID int, since time.Time) ([]time.Time, error) {
	query := `
		SELECT DISTINCT (created_at AT TIME ZONE 'UTC')::date AS day
		FROM attempts
		WHERE user_id = $1 AND created_at >= $2
		ORDER BY day DESC`

	rows, err := r.db.QueryContext(ctx, query, userID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	days := make([]time.Time, 0)
	for rows.Next() {
		var day time.Time
		if err := rows.Scan(&day); err != nil {
			return nil, err
		}
		days = append(days, day)
	}
	return days, rows.Err()
}
