package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Aldiyar97/quiz-league/models"
	"github.com/lib/pq"
)

var (
	ErrDivisionNotFound     = errors.New("division not found")
	ErrDivisionNameConflict = errors.New("division name conflict")
)

type DivisionRepository interface {
	List(ctx context.Context) ([]models.Division, error)
	GetByID(ctx context.Context, id int) (*models.Division, error)
	UpsertByName(ctx context.Context, division *models.Division) error
}

type postgresDivisionRepository struct {
	db *sql.DB
}

func NewPostgresDivisionRepository(db *sql.DB) DivisionRepository {
	return &postgresDivisionRepository{db: db}
}

// List returns the ladder ordered top tier first (sort_order ascending).
func (r *postgresDivisionRepository) List(ctx context.Context) ([]models.Division, error) {
	query := `
		SELECT id, name, min_points, max_points, color, sort_order, promotion_threshold, relegation_threshold
		FROM divisions
		ORDER BY sort_order ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	divisions := make([]models.Division, 0)
	for rows.Next() {
		d, errScan := scanDivision(rows)
		if errScan != nil {
			return nil, errScan
		}
		divisions = append(divisions, *d)
	}
	return divisions, rows.Err()
}

func (r *postgresDivisionRepository) GetByID(ctx context.Context, id int) (*models.Division, error) {
	query := `
		SELECT id, name, min_points, max_points, color, sort_order, promotion_threshold, relegation_threshold
		FROM divisions
		WHERE id = $1`

	return scanDivision(r.db.QueryRowContext(ctx, query, id))
}

// UpsertByName inserts the division or updates the existing row with the same
// name. Seeding goes through this method so the ladder is never empty, not
// even transiently.
func (r *postgresDivisionRepository) UpsertByName(ctx context.Context, division *models.Division) error {
	query := `
		INSERT INTO divisions (name, min_points, max_points, color, sort_order, promotion_threshold, relegation_threshold)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (name) DO UPDATE SET
			min_points = EXCLUDED.min_points,
			max_points = EXCLUDED.max_points,
			color = EXCLUDED.color,
			sort_order = EXCLUDED.sort_order,
			promotion_threshold = EXCLUDED.promotion_threshold,
			relegation_threshold = EXCLUDED.relegation_threshold
		RETURNING id`

	err := r.db.QueryRowContext(ctx, query,
		division.Name,
		division.MinPoints,
		division.MaxPoints,
		division.Color,
		division.Order,
		division.PromotionThreshold,
		division.RelegationThreshold,
	).Scan(&division.ID)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			// sort_order is unique too; a conflicting order surfaces here.
			return ErrDivisionNameConflict
		}
		return err
	}
	return nil
}

func scanDivision(rowScanner interface{ Scan(...interface{}) error }) (*models.Division, error) {
	var d models.Division
	var maxPoints sql.NullInt64

	err := rowScanner.Scan(
		&d.ID, &d.Name, &d.MinPoints, &maxPoints, &d.Color,
		&d.Order, &d.PromotionThreshold, &d.RelegationThreshold,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDivisionNotFound
		}
		return nil, err
	}
	if maxPoints.Valid {
		v := int(maxPoints.Int64)
		d.MaxPoints = &v
	}
	return &d, nil
}
