package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/RealZimboGuy/flowlint/pkg/flowlint/core"
	"github.com/RealZimboGuy/flowlint/pkg/flowlint/domain"
)

const canvasColumns = ` id, unik_id, name, flow_data, created, updated `

// CanvasRepository reads and writes the canvases table.
type CanvasRepository struct {
	db    *sql.DB
	clock core.Clock
}

func NewCanvasRepository(db *sql.DB, clock core.Clock) *CanvasRepository {
	return &CanvasRepository{db: db, clock: clock}
}

// FindByID fetches a canvas by id. When unikID is not empty the canvas must
// also belong to that unik. Returns (nil, nil) if not found.
func (r *CanvasRepository) FindByID(ctx context.Context, id string, unikID string) (*domain.Canvas, error) {
	query := `SELECT` + canvasColumns + `FROM canvases WHERE id = ` + placeholder(1)
	args := []any{id}
	if unikID != "" {
		query += ` AND unik_id = ` + placeholder(2)
		args = append(args, unikID)
	}

	var c domain.Canvas
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&c.ID,
		&c.UnikID,
		&c.Name,
		&c.FlowData,
		&c.Created,
		&c.Updated,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// FindIDsByUnik lists the ids of every canvas in the unik, ordered by id.
func (r *CanvasRepository) FindIDsByUnik(ctx context.Context, unikID string) ([]string, error) {
	query := `SELECT id FROM canvases WHERE unik_id = ` + placeholder(1) + ` ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query, unikID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

// Save inserts the canvas or replaces the stored one with the same id.
// Created is only set on first insert.
func (r *CanvasRepository) Save(ctx context.Context, c *domain.Canvas) error {
	now := r.clock.Now().UTC()
	if c.Created.IsZero() {
		c.Created = now
	}
	c.Updated = now

	query := `INSERT INTO canvases (` + canvasColumns + `) VALUES (` + placeholders(6) + `)` +
		upsertClause("id", "unik_id", "name", "flow_data", "updated")

	_, err := r.db.ExecContext(ctx, query,
		c.ID,
		c.UnikID,
		c.Name,
		c.FlowData,
		formatDateInDatabase(c.Created),
		formatDateInDatabase(c.Updated),
	)
	return err
}
