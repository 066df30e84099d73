package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Aldiyar97/quiz-league/models"
)

var (
	ErrRankingNotFound         = errors.New("weekly ranking not found")
	ErrRankingAlreadyProcessed = errors.New("weekly ranking already processed")
)

type RankingRepository interface {
	// Upsert replaces the snapshot for (weekStart, divisionID). A snapshot
	// whose promotion run already happened is immutable and yields
	// ErrRankingAlreadyProcessed.
	Upsert(ctx context.Context, ranking *models.WeeklyRanking) error
	GetByWeekAndDivision(ctx context.Context, exec SQLExecutor, weekStart time.Time, divisionID int) (*models.WeeklyRanking, error)
	GetLatestByDivision(ctx context.Context, divisionID int) (*models.WeeklyRanking, error)
	// ClaimProcessing flips is_processed false->true as a compare-and-swap.
	// A second caller gets ErrRankingAlreadyProcessed and must not mutate
	// anything.
	ClaimProcessing(ctx context.Context, exec SQLExecutor, rankingID int) error
	UpdateEntryStatuses(ctx context.Context, exec SQLExecutor, rankingID int, entries []models.RankingEntry) error
}

type postgresRankingRepository struct {
	db *sql.DB
}

func NewPostgresRankingRepository(db *sql.DB) RankingRepository {
	return &postgresRankingRepository{db: db}
}

func (r *postgresRankingRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresRankingRepository) Upsert(ctx context.Context, ranking *models.WeeklyRanking) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin ranking upsert transaction: %w", err)
	}
	defer tx.Rollback()

	// The WHERE clause keeps processed snapshots untouched: no row comes back
	// and the caller learns the week is closed.
	headQuery := `
		INSERT INTO weekly_rankings (week_start, week_end, division_id, is_processed)
		VALUES ($1, $2, $3, false)
		ON CONFLICT (week_start, division_id) DO UPDATE SET week_end = EXCLUDED.week_end
		WHERE weekly_rankings.is_processed = false
		RETURNING id`

	err = tx.QueryRowContext(ctx, headQuery, ranking.WeekStart, ranking.WeekEnd, ranking.DivisionID).Scan(&ranking.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrRankingAlreadyProcessed
		}
		return err
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM ranking_entries WHERE ranking_id = $1`, ranking.ID); err != nil {
		return fmt.Errorf("failed to clear ranking entries: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO ranking_entries (ranking_id, user_id, username, points, rank, previous_rank, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`)
	if err != nil {
		return fmt.Errorf("failed to prepare entry insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range ranking.Entries {
		if _, err = stmt.ExecContext(ctx, ranking.ID, e.UserID, e.Username, e.Points, e.Rank, e.PreviousRank, e.Status); err != nil {
			return fmt.Errorf("failed to insert entry for user %d: %w", e.UserID, err)
		}
	}

	return tx.Commit()
}

func (r *postgresRankingRepository) GetByWeekAndDivision(ctx context.Context, exec SQLExecutor, weekStart time.Time, divisionID int) (*models.WeeklyRanking, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT id, week_start, week_end, division_id, is_processed
		FROM weekly_rankings
		WHERE week_start = $1 AND division_id = $2`

	ranking, err := scanRankingHead(executor.QueryRowContext(ctx, query, weekStart, divisionID))
	if err != nil {
		return nil, err
	}
	if err := r.loadEntries(ctx, executor, ranking); err != nil {
		return nil, err
	}
	return ranking, nil
}

func (r *postgresRankingRepository) GetLatestByDivision(ctx context.Context, divisionID int) (*models.WeeklyRanking, error) {
	query := `
		SELECT id, week_start, week_end, division_id, is_processed
		FROM weekly_rankings
		WHERE division_id = $1
		ORDER BY week_start DESC
		LIMIT 1`

	ranking, err := scanRankingHead(r.db.QueryRowContext(ctx, query, divisionID))
	if err != nil {
		return nil, err
	}
	if err := r.loadEntries(ctx, r.db, ranking); err != nil {
		return nil, err
	}
	return ranking, nil
}

func (r *postgresRankingRepository) ClaimProcessing(ctx context.Context, exec SQLExecutor, rankingID int) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx,
		`UPDATE weekly_rankings SET is_processed = true WHERE id = $1 AND is_processed = false`, rankingID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrRankingAlreadyProcessed)
}

func (r *postgresRankingRepository) UpdateEntryStatuses(ctx context.Context, exec SQLExecutor, rankingID int, entries []models.RankingEntry) error {
	executor := r.getExecutor(exec)
	for _, e := range entries {
		result, err := executor.ExecContext(ctx,
			`UPDATE ranking_entries SET status = $1 WHERE ranking_id = $2 AND user_id = $3`,
			e.Status, rankingID, e.UserID)
		if err != nil {
			return err
		}
		if err := checkAffectedRows(result, ErrRankingNotFound); err != nil {
			return fmt.Errorf("missing entry for user %d: %w", e.UserID, err)
		}
	}
	return nil
}

func (r *postgresRankingRepository) loadEntries(ctx context.Context, executor SQLExecutor, ranking *models.WeeklyRanking) error {
	query := `
		SELECT user_id, username, points, rank, previous_rank, status
		FROM ranking_entries
		WHERE ranking_id = $1
		ORDER BY rank ASC`

	rows, err := executor.QueryContext(ctx, query, ranking.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	ranking.Entries = make([]models.RankingEntry, 0)
	for rows.Next() {
		var e models.RankingEntry
		var prev sql.NullInt64
		if err := rows.Scan(&e.UserID, &e.Username, &e.Points, &e.Rank, &prev, &e.Status); err != nil {
			return err
		}
		if prev.Valid {
			v := int(prev.Int64)
			e.PreviousRank = &v
		}
		ranking.Entries = append(ranking.Entries, e)
	}
	return rows.Err()
}

func scanRankingHead(row *sql.Row) (*models.WeeklyRanking, error) {
	var w models.WeeklyRanking
	err := row.Scan(&w.ID, &w.WeekStart, &w.WeekEnd, &w.DivisionID, &w.IsProcessed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRankingNotFound
		}
		return nil, err
	}
	return &w, nil
}
