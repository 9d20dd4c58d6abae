package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kimchunsik17/yacht-online/internal/game/match"
)

// ErrMatchNotFound is returned when a match lookup yields no results.
var ErrMatchNotFound = errors.New("match not found")

// StoredMatch is a match row: the identifier, the opaque state blob, and the
// row timestamps.
type StoredMatch struct {
	ID        uuid.UUID
	Record    match.Record
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MatchRepository provides match persistence operations. Match state is
// stored as a single JSONB blob; the engine owns its meaning.
type MatchRepository struct {
	db *pgxpool.Pool
}

// NewMatchRepository creates a MatchRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewMatchRepository(db *pgxpool.Pool) *MatchRepository {
	return &MatchRepository{db: db}
}

// Create inserts a new match row with its initial state.
//
// Postcondition: Returns the stored row with timestamps set.
func (r *MatchRepository) Create(ctx context.Context, rec match.Record) (StoredMatch, error) {
	id, err := uuid.Parse(rec.ID)
	if err != nil {
		return StoredMatch{}, fmt.Errorf("parsing match id: %w", err)
	}
	blob, err := json.Marshal(rec)
	if err != nil {
		return StoredMatch{}, fmt.Errorf("encoding match state: %w", err)
	}

	var stored StoredMatch
	stored.Record = rec
	err = r.db.QueryRow(ctx,
		`INSERT INTO matches (id, status, state)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at, updated_at`,
		id, string(rec.Status), blob,
	).Scan(&stored.ID, &stored.CreatedAt, &stored.UpdatedAt)
	if err != nil {
		return StoredMatch{}, fmt.Errorf("inserting match: %w", err)
	}
	return stored, nil
}

// Get loads a match row by id.
//
// Postcondition: Returns ErrMatchNotFound when no row exists.
func (r *MatchRepository) Get(ctx context.Context, id uuid.UUID) (StoredMatch, error) {
	var stored StoredMatch
	var blob []byte
	err := r.db.QueryRow(ctx,
		`SELECT id, state, created_at, updated_at
		 FROM matches
		 WHERE id = $1`,
		id,
	).Scan(&stored.ID, &blob, &stored.CreatedAt, &stored.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return StoredMatch{}, ErrMatchNotFound
	}
	if err != nil {
		return StoredMatch{}, fmt.Errorf("selecting match %s: %w", id, err)
	}

	if err := json.Unmarshal(blob, &stored.Record); err != nil {
		return StoredMatch{}, fmt.Errorf("decoding match %s state: %w", id, err)
	}
	return stored, nil
}

// SaveState replaces a match's state blob and status.
//
// Postcondition: Returns ErrMatchNotFound when no row exists; on success the
// row's updated_at advances.
func (r *MatchRepository) SaveState(ctx context.Context, rec match.Record) error {
	id, err := uuid.Parse(rec.ID)
	if err != nil {
		return fmt.Errorf("parsing match id: %w", err)
	}
	blob, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding match state: %w", err)
	}

	tag, err := r.db.Exec(ctx,
		`UPDATE matches
		 SET status = $2, state = $3, updated_at = now()
		 WHERE id = $1`,
		id, string(rec.Status), blob,
	)
	if err != nil {
		return fmt.Errorf("updating match %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrMatchNotFound
	}
	return nil
}

// ListByStatus returns all matches in the given status, newest first.
func (r *MatchRepository) ListByStatus(ctx context.Context, status match.Status) ([]StoredMatch, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, state, created_at, updated_at
		 FROM matches
		 WHERE status = $1
		 ORDER BY created_at DESC`,
		string(status),
	)
	if err != nil {
		return nil, fmt.Errorf("listing matches by status %s: %w", status, err)
	}
	defer rows.Close()

	var out []StoredMatch
	for rows.Next() {
		var stored StoredMatch
		var blob []byte
		if err := rows.Scan(&stored.ID, &blob, &stored.CreatedAt, &stored.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning match row: %w", err)
		}
		if err := json.Unmarshal(blob, &stored.Record); err != nil {
			return nil, fmt.Errorf("decoding match %s state: %w", stored.ID, err)
		}
		out = append(out, stored)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating match rows: %w", err)
	}
	return out, nil
}

// Delete removes a match row.
//
// Postcondition: Returns ErrMatchNotFound when no row exists.
func (r *MatchRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM matches WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting match %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrMatchNotFound
	}
	return nil
}
