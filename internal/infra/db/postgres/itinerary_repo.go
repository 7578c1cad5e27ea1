package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"travel-itinerary-ai/internal/domain"
	"travel-itinerary-ai/internal/domain/model"
	"travel-itinerary-ai/internal/domain/ports/repository"
)

var _ repository.ItineraryRepository = (*itineraryRepo)(nil)

type itineraryRepo struct {
	pool *pgxpool.Pool
}

func NewItineraryRepo(pool *pgxpool.Pool) *itineraryRepo {
	return &itineraryRepo{pool: pool}
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS itineraries (
  id            TEXT PRIMARY KEY,
  status        TEXT NOT NULL,
  destination   TEXT NOT NULL,
  duration_days INT  NOT NULL,
  created_at    TIMESTAMPTZ NOT NULL,
  updated_at    TIMESTAMPTZ NOT NULL,
  completed_at  TIMESTAMPTZ,
  itinerary     TEXT,
  error         TEXT
);`

// EnsureSchema creates the itineraries table when missing.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, schemaSQL)
	return pgErr("ensure schema", err)
}

// Create writes the initial processing document. Overwrite-by-id semantics:
// re-creating an existing job id resets it to processing, which keeps the
// operation idempotent for duplicate on-demand triggers.
func (r *itineraryRepo) Create(ctx context.Context, id, destination string, durationDays int, createdAt time.Time) error {
	const q = `
INSERT INTO itineraries (id, status, destination, duration_days, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $5)
ON CONFLICT (id) DO UPDATE SET
  status = EXCLUDED.status,
  updated_at = EXCLUDED.updated_at;`

	_, err := r.pool.Exec(ctx, q, id, model.ItineraryStatusProcessing, destination, durationDays, createdAt)
	return pgErr("itinerary create", err)
}

// Save applies the terminal partial update. Destination, duration and
// created_at are immutable and never touched here.
func (r *itineraryRepo) Save(ctx context.Context, id string, save repository.ItinerarySave) error {
	const q = `
UPDATE itineraries SET
  status = $2,
  updated_at = $3,
  completed_at = $4,
  error = $5,
  itinerary = COALESCE($6, itinerary)
WHERE id = $1;`

	tag, err := r.pool.Exec(ctx, q, id, save.Status, save.UpdatedAt, save.CompletedAt, save.Error, save.Itinerary)
	if err != nil {
		return pgErr("itinerary save", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *itineraryRepo) Find(ctx context.Context, id string) (*model.Itinerary, error) {
	const q = `
SELECT id, status, destination, duration_days, created_at, updated_at, completed_at, itinerary, error
FROM itineraries WHERE id = $1;`

	var it model.Itinerary
	var status string
	err := r.pool.QueryRow(ctx, q, id).Scan(
		&it.ID, &status, &it.Destination, &it.DurationDays,
		&it.CreatedAt, &it.UpdatedAt, &it.CompletedAt, &it.Itinerary, &it.Error,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, pgErr("itinerary find", err)
	}
	it.Status = model.ItineraryStatus(status)
	return &it, nil
}

// pgErr wraps driver errors with the operation and, when available, the
// SQLSTATE code for operator diagnostics.
func pgErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var pge *pgconn.PgError
	if errors.As(err, &pge) {
		return fmt.Errorf("%s: %s (sqlstate %s)", op, pge.Message, pge.Code)
	}
	return fmt.Errorf("%s: %w", op, err)
}
