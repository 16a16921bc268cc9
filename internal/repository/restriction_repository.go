package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/hall-pass/internal/model"
)

// RestrictionRepo provides CRUD access to the 'restrictions' table.
// Restrictions are configuration data: mutated by IT/SENIOR staff via
// the admin endpoints and read by the quota evaluator on every pass
// request. The evaluator treats the returned set as read-only.
type RestrictionRepo struct{ DB *sql.DB }

func NewRestrictionRepo(db *sql.DB) *RestrictionRepo { return &RestrictionRepo{DB: db} }

const restrictionColumns = "id, name, type, ttl, amount, `interval`, target, created_at, updated_at"

// List returns every restriction ordered by id. Registry order matters:
// when several rules deny a request the first one in this order becomes
// the primary reason reported to the client.
func (r *RestrictionRepo) List(ctx context.Context) ([]model.Restriction, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+restrictionColumns+" FROM restrictions ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Restriction, 0)
	for rows.Next() {
		rule, err := scanRestrictionRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rule)
	}
	return out, rows.Err()
}

// GetByID fetches one restriction. Returns ErrRestrictionNotFound when
// no row matches.
func (r *RestrictionRepo) GetByID(ctx context.Context, id uint64) (model.Restriction, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+restrictionColumns+" FROM restrictions WHERE id=? LIMIT 1", id)
	rule, err := scanRestrictionRow(row)
	if err == sql.ErrNoRows {
		return model.Restriction{}, ErrRestrictionNotFound
	}
	return rule, err
}

// Upsert inserts a new restriction or updates an existing one depending
// on whether the record carries an ID. The generated ID is written back
// on insert.
func (r *RestrictionRepo) Upsert(ctx context.Context, rule *model.Restriction) error {
	if rule.ID == 0 {
		res, err := r.DB.ExecContext(ctx,
			"INSERT INTO restrictions (name, type, ttl, amount, `interval`, target) VALUES (?,?,?,?,?,?)",
			rule.Name, rule.Type, rule.TTL, rule.Amount, rule.Interval, rule.Target)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		rule.ID = uint64(id)
	} else {
		res, err := r.DB.ExecContext(ctx,
			"UPDATE restrictions SET name=?, type=?, ttl=?, amount=?, `interval`=?, target=? WHERE id=?",
			rule.Name, rule.Type, rule.TTL, rule.Amount, rule.Interval, rule.Target, rule.ID)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			// Either absent or unchanged; distinguish by existence.
			if _, err := r.GetByID(ctx, rule.ID); err != nil {
				return err
			}
		}
	}
	return r.DB.QueryRowContext(ctx,
		"SELECT created_at, updated_at FROM restrictions WHERE id=?",
		rule.ID).Scan(&rule.CreatedAt, &rule.UpdatedAt)
}

// Delete removes a restriction by id. Returns ErrRestrictionNotFound
// when nothing was deleted.
func (r *RestrictionRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM restrictions WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrRestrictionNotFound
	}
	return nil
}

type rowScanner interface{ Scan(dest ...any) error }

func scanRestrictionRow(row rowScanner) (model.Restriction, error) {
	var rule model.Restriction
	var interval sql.NullInt64
	var target sql.NullString
	err := row.Scan(&rule.ID, &rule.Name, &rule.Type, &rule.TTL, &rule.Amount,
		&interval, &target, &rule.CreatedAt, &rule.UpdatedAt)
	if err != nil {
		return model.Restriction{}, err
	}
	if interval.Valid {
		v := interval.Int64
		rule.Interval = &v
	}
	if target.Valid {
		t := target.String
		rule.Target = &t
	}
	return rule, nil
}
