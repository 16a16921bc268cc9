package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/hall-pass/internal/model"
	"github.com/iliyamo/hall-pass/internal/utils"
)

// SessionRepo persists and resolves login sessions. A session row stores
// only the SHA-256 hash of the token's secret suffix, never the raw
// token. Lookups go through the user id embedded in the token prefix,
// so no global token index is needed.
type SessionRepo struct{ DB *sql.DB }

func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{DB: db} }

// Create issues a new session for the user and returns the raw token to
// hand back to the client. The session is usable immediately: the insert
// commits before the response is written.
func (r *SessionRepo) Create(ctx context.Context, userID uint64) (utils.SessionToken, error) {
	tok, err := utils.NewSessionToken(userID, model.SessionTTL)
	if err != nil {
		return utils.SessionToken{}, err
	}
	_, err = r.DB.ExecContext(ctx,
		"INSERT INTO sessions (public_id, user_id, secret_hash, expires_at) VALUES (?,?,?,?)",
		uuid.NewString(), userID, tok.SecretHash, tok.Exp)
	if err != nil {
		return utils.SessionToken{}, err
	}
	return tok, nil
}

// Resolve maps a presented token to the owning user. It parses the
// two-part credential, loads the candidate user's sessions and compares
// the secret suffix in constant time. A token that matches nothing
// yields ErrUnauthenticated; a match on an expired session yields
// ErrSessionExpired so the client knows to log in again. Expiry is lazy:
// expired rows are left in place until logout or the next login sweep.
func (r *SessionRepo) Resolve(ctx context.Context, raw string) (uint64, error) {
	userID, secret, err := utils.ParseSessionToken(raw)
	if err != nil {
		return 0, ErrUnauthenticated
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT secret_hash, expires_at FROM sessions WHERE user_id=?", userID)
	if err != nil {
		return 0, err
	}
	defer rows.Close()
	sessions := make([]model.Session, 0)
	for rows.Next() {
		var s model.Session
		if err := rows.Scan(&s.SecretHash, &s.ExpiresAt); err != nil {
			return 0, err
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}
	if err := matchSession(sessions, secret, time.Now().UTC()); err != nil {
		return 0, err
	}
	return userID, nil
}

// matchSession checks a presented secret against the candidate
// sessions. A live match wins even when other sessions have lapsed;
// a match only on expired sessions yields ErrSessionExpired and no
// match at all yields ErrUnauthenticated.
func matchSession(sessions []model.Session, secret string, now time.Time) error {
	expiredMatch := false
	for i := range sessions {
		if !utils.VerifyTokenSecret(sessions[i].SecretHash, secret) {
			continue
		}
		if now.Before(sessions[i].ExpiresAt) {
			return nil
		}
		expiredMatch = true
	}
	if expiredMatch {
		return ErrSessionExpired
	}
	return ErrUnauthenticated
}

// Invalidate removes the session matching the presented token. It is
// idempotent: an absent or already-removed session is not an error.
func (r *SessionRepo) Invalidate(ctx context.Context, raw string) error {
	userID, secret, err := utils.ParseSessionToken(raw)
	if err != nil {
		return nil
	}
	_, err = r.DB.ExecContext(ctx,
		"DELETE FROM sessions WHERE user_id=? AND secret_hash=?",
		userID, utils.HashTokenSecret(secret))
	return err
}

// DeleteExpired removes sessions whose expiry is in the past and
// returns how many rows were deleted. Safe to run at any time.
func (r *SessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM sessions WHERE expires_at <= UTC_TIMESTAMP()")
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListByUser returns the user's sessions, newest first. Raw secrets are
// never recoverable from these rows.
func (r *SessionRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Session, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, public_id, user_id, secret_hash, expires_at, created_at
		 FROM sessions WHERE user_id=? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	sessions := make([]model.Session, 0)
	for rows.Next() {
		var s model.Session
		if err := rows.Scan(&s.ID, &s.PublicID, &s.UserID, &s.SecretHash, &s.ExpiresAt, &s.CreatedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}
