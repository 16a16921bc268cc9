package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/hall-pass/internal/model"
	"github.com/iliyamo/hall-pass/internal/utils"
)

func session(secret string, expiresAt time.Time) model.Session {
	return model.Session{SecretHash: utils.HashTokenSecret(secret), ExpiresAt: expiresAt}
}

func TestMatchSession(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	live := session("live-secret", now.Add(time.Hour))
	lapsed := session("lapsed-secret", now.Add(-time.Hour))

	cases := []struct {
		name     string
		sessions []model.Session
		secret   string
		want     error
	}{
		{"live match", []model.Session{live}, "live-secret", nil},
		{"no sessions", nil, "live-secret", ErrUnauthenticated},
		{"wrong secret", []model.Session{live}, "other-secret", ErrUnauthenticated},
		{"expired match", []model.Session{lapsed}, "lapsed-secret", ErrSessionExpired},
		{"expired does not hide live", []model.Session{lapsed, live}, "live-secret", nil},
		{"expired among others", []model.Session{live, lapsed}, "lapsed-secret", ErrSessionExpired},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := matchSession(tc.sessions, tc.secret, now)
			if tc.want == nil {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, tc.want)
			}
		})
	}
}

func TestMatchSessionExpiryBoundary(t *testing.T) {
	// A session is already expired at the exact expiry instant.
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	s := session("secret", now)
	require.ErrorIs(t, matchSession([]model.Session{s}, "secret", now), ErrSessionExpired)
	require.NoError(t, matchSession([]model.Session{s}, "secret", now.Add(-time.Millisecond)))
}
