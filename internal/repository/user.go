package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/RealZimboGuy/flowlint/pkg/flowlint/core"
	"github.com/RealZimboGuy/flowlint/pkg/flowlint/domain"
)

const userColumns = ` id, username, password, api_key, created, enabled `

// UserRepository provides persistence methods for the users table.
type UserRepository struct {
	db    *sql.DB
	clock core.Clock
}

func NewUserRepository(db *sql.DB, clock core.Clock) *UserRepository {
	return &UserRepository{db: db, clock: clock}
}

// Save inserts a new user and returns its generated id.
// It will set Created to now if it's not provided (null or zero).
func (r *UserRepository) Save(ctx context.Context, u *domain.User) (int64, error) {
	if !u.Created.Valid {
		u.Created = sql.NullTime{Time: r.clock.Now().UTC(), Valid: true}
	}
	if !u.Enabled.Valid {
		u.Enabled = sql.NullBool{Bool: true, Valid: true}
	}

	base := `INSERT INTO users (username, password, api_key, created, enabled) VALUES (` + placeholders(5) + `)`
	args := []any{u.Username, u.Password, u.ApiKey, formatDateInDatabase(u.Created.Time), u.Enabled}

	var id int64
	if supportsReturning() {
		if err := r.db.QueryRowContext(ctx, base+" RETURNING id", args...).Scan(&id); err != nil {
			return 0, err
		}
	} else {
		res, err := r.db.ExecContext(ctx, base, args...)
		if err != nil {
			return 0, err
		}
		if id, err = res.LastInsertId(); err != nil {
			return 0, err
		}
	}
	u.ID = id
	return id, nil
}

// FindByUsername fetches a user by exact username. Returns (nil, nil) if not found.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, `username = `+placeholder(1), username)
}

// FindByApiKey fetches a user by api_key (exact match). Returns (nil, nil) if not found.
func (r *UserRepository) FindByApiKey(ctx context.Context, apiKey string) (*domain.User, error) {
	return r.findOne(ctx, `api_key = `+placeholder(1), apiKey)
}

func (r *UserRepository) findOne(ctx context.Context, where string, arg any) (*domain.User, error) {
	query := `SELECT` + userColumns + `FROM users WHERE ` + where + ` LIMIT 1`

	var u domain.User
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&u.ID,
		&u.Username,
		&u.Password,
		&u.ApiKey,
		&u.Created,
		&u.Enabled,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
