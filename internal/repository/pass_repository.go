package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/hall-pass/internal/model"
)

// PassRepo provides data access to the 'passes' table. Passes are
// append-mostly: rows are inserted on issuance, their state cache is
// flipped once on expiry, and they are never deleted so the history
// doubles as an audit trail. All timestamps are UTC. The computed
// expiry used in queries is always derived from created_at + duration,
// never from the cached state column, so a stale cache cannot change
// query results.
type PassRepo struct{ DB *sql.DB }

func NewPassRepo(db *sql.DB) *PassRepo { return &PassRepo{DB: db} }

// expiryExpr computes the instant a pass stops being active. duration is
// stored in milliseconds; MySQL's INTERVAL wants microseconds.
const expiryExpr = "DATE_ADD(created_at, INTERVAL duration * 1000 MICROSECOND)"

// Insert stores a new pass with an active state cache and populates the
// generated ID and timestamps on the record.
func (r *PassRepo) Insert(ctx context.Context, p *model.Pass) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO passes (user_id, location, duration, state) VALUES (?,?,?,?)",
		p.UserID, p.Location, p.Duration, model.StateActive)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return r.DB.QueryRowContext(ctx,
		"SELECT state, created_at, updated_at FROM passes WHERE id=?",
		p.ID).Scan(&p.State, &p.CreatedAt, &p.UpdatedAt)
}

// ListByUser returns all passes belonging to the user, newest first.
// The cached state of each returned pass is replaced by the computed
// one so callers always see the truth even before a sweep ran.
func (r *PassRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Pass, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, user_id, location, duration, state, created_at, updated_at
		 FROM passes WHERE user_id=? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	now := time.Now().UTC()
	passes := make([]model.Pass, 0)
	for rows.Next() {
		var p model.Pass
		if err := rows.Scan(&p.ID, &p.UserID, &p.Location, &p.Duration, &p.State, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		p.State = model.ComputeState(&p, now)
		passes = append(passes, p)
	}
	return passes, rows.Err()
}

// ActiveByUser returns the user's passes whose computed state is active
// at the given instant.
func (r *PassRepo) ActiveByUser(ctx context.Context, userID uint64, now time.Time) ([]model.Pass, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, user_id, location, duration, state, created_at, updated_at
		 FROM passes WHERE user_id=? AND `+expiryExpr+` > ? ORDER BY created_at DESC`,
		userID, now.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	passes := make([]model.Pass, 0)
	for rows.Next() {
		var p model.Pass
		if err := rows.Scan(&p.ID, &p.UserID, &p.Location, &p.Duration, &p.State, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		p.State = model.StateActive
		passes = append(passes, p)
	}
	return passes, rows.Err()
}

// CountByUserSince counts passes created by the user at or after the
// given instant. Used by frequency rules; expired passes still count
// because the rule limits creations, not concurrency.
func (r *PassRepo) CountByUserSince(ctx context.Context, userID uint64, since time.Time) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM passes WHERE user_id=? AND created_at >= ?",
		userID, since.UTC()).Scan(&n)
	return n, err
}

// CountActiveAtLocation counts passes from any user that target the
// location, were created at or after since and are still active at now.
// Used by area rules; the cap is global across users.
func (r *PassRepo) CountActiveAtLocation(ctx context.Context, location string, since, now time.Time) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM passes WHERE location=? AND created_at >= ? AND "+expiryExpr+" > ?",
		location, since.UTC(), now.UTC()).Scan(&n)
	return n, err
}

// ExpireDue flips the cached state to expired for every pass whose
// computed state has become expired by now. It is idempotent and safe
// to run concurrently or redundantly: the WHERE clause only matches
// rows whose cache is stale, and a pass never moves back to active.
func (r *PassRepo) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE passes SET state=? WHERE state=? AND "+expiryExpr+" <= ?",
		model.StateExpired, model.StateActive, now.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
