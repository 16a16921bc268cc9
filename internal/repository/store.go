package repository

import (
	"context"
	"time"

	"github.com/iliyamo/hall-pass/internal/model"
)

// PassStore bundles the repositories the pass lifecycle needs behind a
// single value. It satisfies the pass service's Store interface.
type PassStore struct {
	Passes       *PassRepo
	Restrictions *RestrictionRepo
	Users        *UserRepo
}

func NewPassStore(passes *PassRepo, restrictions *RestrictionRepo, users *UserRepo) *PassStore {
	return &PassStore{Passes: passes, Restrictions: restrictions, Users: users}
}

func (s *PassStore) InsertPass(ctx context.Context, p *model.Pass) error {
	return s.Passes.Insert(ctx, p)
}

func (s *PassStore) PassesByUser(ctx context.Context, userID uint64) ([]model.Pass, error) {
	return s.Passes.ListByUser(ctx, userID)
}

func (s *PassStore) ActivePassesByUser(ctx context.Context, userID uint64, now time.Time) ([]model.Pass, error) {
	return s.Passes.ActiveByUser(ctx, userID, now)
}

func (s *PassStore) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	return s.Passes.ExpireDue(ctx, now)
}

func (s *PassStore) ListRestrictions(ctx context.Context) ([]model.Restriction, error) {
	return s.Restrictions.List(ctx)
}

func (s *PassStore) IncrementFailedAttempts(ctx context.Context, userID uint64) error {
	return s.Users.IncrementFailedAttempts(ctx, userID)
}

func (s *PassStore) CountByUserSince(ctx context.Context, userID uint64, since time.Time) (int, error) {
	return s.Passes.CountByUserSince(ctx, userID, since)
}

func (s *PassStore) CountActiveAtLocation(ctx context.Context, location string, since, now time.Time) (int, error) {
	return s.Passes.CountActiveAtLocation(ctx, location, since, now)
}
