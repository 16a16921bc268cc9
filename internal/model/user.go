package model

import "time"

// Role values stored in the users.role column. They are small integers
// rather than strings because every client of the API (mobile and
// dashboard alike) exchanges roles numerically.
const (
	RoleStudent uint8 = 0 // may request passes
	RoleTeacher uint8 = 1 // staff; may be marked on duty
	RoleIT      uint8 = 2 // administers restrictions and accounts
	RoleSenior  uint8 = 3 // highest privilege staff role
)

// RoleName maps a numeric role to its display name. Unknown values
// return "UNKNOWN" so callers never render a bare number.
func RoleName(role uint8) string {
	switch role {
	case RoleStudent:
		return "STUDENT"
	case RoleTeacher:
		return "TEACHER"
	case RoleIT:
		return "IT"
	case RoleSenior:
		return "SENIOR"
	}
	return "UNKNOWN"
}

// ValidRole reports whether the numeric role is one of the defined values.
func ValidRole(role uint8) bool { return role <= RoleSenior }

// User represents an application user record as stored in the `users`
// table. JSON tags are omitted; handlers define separate response types
// so that the password hash is never serialized by accident.
//
// Fields:
//  ID                 – primary key identifier of the user.
//  Username           – unique login name (lower case letters, digits, dashes).
//  PasswordHash       – bcrypt hashed password.
//  Name               – display name shown to staff.
//  Role               – numeric role, one of the Role* constants.
//  RestrictionDaily   – legacy running counter; no longer consulted, quota
//                       decisions derive counts from the pass history.
//  RestrictionClass   – legacy running counter, same status as above.
//  FailedPassAttempts – number of denied pass requests, kept for abuse review.
//  OnDuty             – staff only: whether the user is currently on duty.
//  CreatedAt          – timestamp of creation.
//  UpdatedAt          – timestamp of last update.
type User struct {
	ID                 uint64    // users.id
	Username           string    // users.username
	PasswordHash       string    // users.password_hash
	Name               string    // users.name
	Role               uint8     // users.role
	RestrictionDaily   uint32    // users.restriction_daily (legacy)
	RestrictionClass   uint32    // users.restriction_class (legacy)
	FailedPassAttempts uint32    // users.failed_pass_attempts
	OnDuty             bool      // users.on_duty
	CreatedAt          time.Time // users.created_at
	UpdatedAt          time.Time // users.updated_at
}

// Session models an entry in the `sessions` table. Each session belongs
// to one user and carries an opaque bearer credential. The credential is
// two-part: the user id (base64, a lookup key) and a random suffix (the
// actual secret). Only the SHA-256 hash of the suffix is stored.
//
// Fields:
//  ID         – primary key identifier.
//  PublicID   – UUID exposed to clients when listing sessions.
//  UserID     – owner of the session.
//  SecretHash – SHA-256 hex digest of the token's random suffix.
//  ExpiresAt  – expiration timestamp; sessions expire lazily.
//  CreatedAt  – timestamp of creation.
type Session struct {
	ID         uint64    // sessions.id
	PublicID   string    // sessions.public_id
	UserID     uint64    // sessions.user_id
	SecretHash string    // sessions.secret_hash
	ExpiresAt  time.Time // sessions.expires_at
	CreatedAt  time.Time // sessions.created_at
}

// SessionTTL is how long a session stays valid after login.
const SessionTTL = 7 * 24 * time.Hour

// Expired reports whether the session is past its expiry at the given time.
func (s *Session) Expired(now time.Time) bool { return !now.Before(s.ExpiresAt) }
