package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/hall-pass/internal/model"
	"github.com/iliyamo/hall-pass/internal/utils"
)

// UserRepo provides access to the 'users' table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id,username,password_hash,name,role,restriction_daily,restriction_class,failed_pass_attempts,on_duty,created_at,updated_at"

// Create inserts a user and returns its ID. The username is normalized
// to lower case; the password is hashed with bcrypt at the given cost.
func (r *UserRepo) Create(ctx context.Context, username, password, name string, role uint8, cost int) (uint64, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (username, password_hash, name, role) VALUES (?,?,?,?)",
		username, hash, name, role)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrUsernameTaken
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByUsername fetches a user by normalized username. Returns
// ErrUserNotFound when no row matches.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (model.User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username=? LIMIT 1", username))
}

// GetByID fetches a user by id. Returns ErrUserNotFound when no row matches.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// UsernameExists reports whether a username is already taken.
func (r *UserRepo) UsernameExists(ctx context.Context, username string) (bool, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	var one int
	err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM users WHERE username=? LIMIT 1", username).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// IncrementFailedAttempts bumps the abuse counter for a user after a
// denied pass request. The increment is atomic in the database so
// concurrent denials never lose updates.
func (r *UserRepo) IncrementFailedAttempts(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET failed_pass_attempts = failed_pass_attempts + 1 WHERE id=?", userID)
	return err
}

// SetOnDuty updates the staff on-duty flag.
func (r *UserRepo) SetOnDuty(ctx context.Context, userID uint64, onDuty bool) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET on_duty=? WHERE id=?", onDuty, userID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepo) scanOne(row *sql.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Name, &u.Role,
		&u.RestrictionDaily, &u.RestrictionClass, &u.FailedPassAttempts, &u.OnDuty,
		&u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrUserNotFound
	}
	return u, err
}
