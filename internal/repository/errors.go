// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios without
// string matching. For example, ErrSessionExpired lets the auth
// middleware tell a client to log in again while ErrUnauthenticated
// covers tokens that never matched at all.
package repository

import "errors"

// ErrUnauthenticated is returned when a presented session token does
// not match any stored session. Handlers should translate this into an
// HTTP 401 response.
var ErrUnauthenticated = errors.New("unauthenticated")

// ErrSessionExpired is returned when a session token matched a stored
// session whose expiry lies in the past. Also an HTTP 401; the split
// exists so clients can show "session expired, log in again" instead of
// a generic auth failure.
var ErrSessionExpired = errors.New("session expired")

// ErrUsernameTaken is returned when creating a user with a username
// that already exists. Handlers translate this into HTTP 400.
var ErrUsernameTaken = errors.New("username already taken")

// ErrUserNotFound is returned for lookups of users that do not exist.
var ErrUserNotFound = errors.New("user not found")

// ErrRestrictionNotFound is returned when an administrative mutation
// references a restriction id that does not exist. HTTP 404.
var ErrRestrictionNotFound = errors.New("restriction not found")
