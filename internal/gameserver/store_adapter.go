package gameserver

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/kimchunsik17/yacht-online/internal/game/match"
	"github.com/kimchunsik17/yacht-online/internal/storage/postgres"
)

// matchStoreAdapter adapts *postgres.MatchRepository to the MatchStore
// interface, translating storage errors into handler errors.
type matchStoreAdapter struct {
	repo *postgres.MatchRepository
}

// NewMatchStore wraps a postgres match repository as a MatchStore.
//
// Precondition: repo must be non-nil.
func NewMatchStore(repo *postgres.MatchRepository) MatchStore {
	return &matchStoreAdapter{repo: repo}
}

func (a *matchStoreAdapter) Create(ctx context.Context, rec match.Record) error {
	_, err := a.repo.Create(ctx, rec)
	return err
}

func (a *matchStoreAdapter) Get(ctx context.Context, id uuid.UUID) (match.Record, error) {
	stored, err := a.repo.Get(ctx, id)
	if errors.Is(err, postgres.ErrMatchNotFound) {
		return match.Record{}, ErrMatchNotFound
	}
	if err != nil {
		return match.Record{}, err
	}
	return stored.Record, nil
}

func (a *matchStoreAdapter) SaveState(ctx context.Context, rec match.Record) error {
	err := a.repo.SaveState(ctx, rec)
	if errors.Is(err, postgres.ErrMatchNotFound) {
		return ErrMatchNotFound
	}
	return err
}

func (a *matchStoreAdapter) ListByStatus(ctx context.Context, status match.Status) ([]match.Record, error) {
	stored, err := a.repo.ListByStatus(ctx, status)
	if err != nil {
		return nil, err
	}
	recs := make([]match.Record, len(stored))
	for i, s := range stored {
		recs[i] = s.Record
	}
	return recs, nil
}

func (a *matchStoreAdapter) Delete(ctx context.Context, id uuid.UUID) error {
	err := a.repo.Delete(ctx, id)
	if errors.Is(err, postgres.ErrMatchNotFound) {
		return ErrMatchNotFound
	}
	return err
}
