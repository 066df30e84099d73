package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Aldiyar97/quiz-league/models"
	"github.com/lib/pq"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrUserEmailConflict    = errors.New("user email conflict")
	ErrUserUsernameConflict = errors.New("user username conflict")
	ErrNoLivesRemaining     = errors.New("no lives remaining")
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// ListByPointsRange returns users inside [min, max] (max nil = unbounded),
	// ordered points DESC, id ASC for a deterministic ranking order.
	ListByPointsRange(ctx context.Context, minPoints int, maxPoints *int) ([]models.User, error)
	SetPoints(ctx context.Context, exec SQLExecutor, userID, points int) error
	AddPoints(ctx context.Context, exec SQLExecutor, userID, delta int) error
	UpdateStreak(ctx context.Context, userID, streak int) error
	UpdateLifePool(ctx context.Context, userID int, pool models.LifePool) error
	// ConsumeLife atomically decrements the life counter, failing with
	// ErrNoLivesRemaining when the pool is already empty.
	ConsumeLife(ctx context.Context, userID int) error
	// ListRegenerable returns users whose pool is not full, for the hourly
	// catch-up job.
	ListRegenerable(ctx context.Context) ([]models.User, error)
}

type postgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) UserRepository {
	return &postgresUserRepository{db: db}
}

func (r *postgresUserRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

// Column order must match scanUser.
const selectUserBase = `
	SELECT
		id, username, email, password_hash, role, points, streak,
		current_lives, max_lives, last_regeneration, regeneration_rate, created_at
	FROM users`

const (
	getUserByIDQuery     = selectUserBase + ` WHERE id = $1`
	getUserByEmailQuery  = selectUserBase + ` WHERE email = $1`
	listRegenerableQuery = selectUserBase + ` WHERE current_lives < max_lives ORDER BY id ASC`
)

// listUsersByPointsQuery has an unbounded variant for the top division.
func listUsersByPointsQuery(bounded bool) string {
	query := selectUserBase + ` WHERE points >= $1`
	if bounded {
		query += ` AND points <= $2`
	}
	// id ASC is the documented tie-break for equal point totals.
	return query + ` ORDER BY points DESC, id ASC`
}

func (r *postgresUserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (username, email, password_hash, role, points, streak,
			current_lives, max_lives, last_regeneration, regeneration_rate)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.Points,
		user.Streak,
		user.Lives.Current,
		user.Lives.Max,
		user.Lives.LastRegeneration,
		user.Lives.RegenerationRate,
	).Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			switch pqErr.Constraint {
			case "users_email_key":
				return ErrUserEmailConflict
			case "users_username_key":
				return ErrUserUsernameConflict
			}
		}
		return err
	}
	return nil
}

func (r *postgresUserRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	return scanUser(r.db.QueryRowContext(ctx, getUserByIDQuery, id))
}

func (r *postgresUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(r.db.QueryRowContext(ctx, getUserByEmailQuery, email))
}

func (r *postgresUserRepository) ListByPointsRange(ctx context.Context, minPoints int, maxPoints *int) ([]models.User, error) {
	args := []interface{}{minPoints}
	if maxPoints != nil {
		args = append(args, *maxPoints)
	}

	rows, err := r.db.QueryContext(ctx, listUsersByPointsQuery(maxPoints != nil), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectUsers(rows)
}

func (r *postgresUserRepository) SetPoints(ctx context.Context, exec SQLExecutor, userID, points int) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `UPDATE users SET points = $1 WHERE id = $2`, points, userID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) AddPoints(ctx context.Context, exec SQLExecutor, userID, delta int) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `UPDATE users SET points = points + $1 WHERE id = $2`, delta, userID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) UpdateStreak(ctx context.Context, userID, streak int) error {
	result, err := r.db.ExecContext(ctx, `UPDATE users SET streak = $1 WHERE id = $2`, streak, userID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) UpdateLifePool(ctx context.Context, userID int, pool models.LifePool) error {
	query := `
		UPDATE users
		SET current_lives = $1, max_lives = $2, last_regeneration = $3, regeneration_rate = $4
		WHERE id = $5`
	result, err := r.db.ExecContext(ctx, query,
		pool.Current, pool.Max, pool.LastRegeneration, pool.RegenerationRate, userID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) ConsumeLife(ctx context.Context, userID int) error {
	// Single conditional update, so concurrent consumes cannot drive the
	// counter below zero.
	query := `UPDATE users SET current_lives = current_lives - 1 WHERE id = $1 AND current_lives > 0`
	result, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrNoLivesRemaining)
}

func (r *postgresUserRepository) ListRegenerable(ctx context.Context) ([]models.User, error) {
	rows, err := r.db.QueryContext(ctx, listRegenerableQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectUsers(rows)
}

func scanUser(rowScanner interface{ Scan(...interface{}) error }) (*models.User, error) {
	var u models.User
	err := rowScanner.Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.Points, &u.Streak,
		&u.Lives.Current, &u.Lives.Max, &u.Lives.LastRegeneration, &u.Lives.RegenerationRate,
		&u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func collectUsers(rows *sql.Rows) ([]models.User, error) {
	users := make([]models.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}
