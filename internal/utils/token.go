package utils // package utils provides helper functions for token creation and hashing

import (
	"crypto/rand"           // secure random number generation
	"crypto/sha256"         // SHA-256 hashing for session secrets
	"crypto/subtle"         // constant-time comparison of secrets
	"encoding/base64"       // base64 encoding of the user id lookup key
	"encoding/hex"          // hex encoding of digests
	"errors"                // sentinel error for malformed tokens
	"math/big"              // unbiased random index selection
	"strconv"               // numeric conversion of the decoded user id
	"time"                  // session expiry computation
)

// SessionToken is the opaque bearer credential handed to a client after
// login. The Raw string has the form `base64(user id) + "." + suffix`
// where the suffix is 32 random alphanumeric characters. The base64
// prefix is only a lookup key so the server can find candidate sessions
// without a global token index; it is not secret and not a security
// boundary. The suffix is the actual secret, and only its SHA-256 hash
// is persisted.
type SessionToken struct {
	Raw        string    // full token string returned to the client
	SecretHash string    // SHA-256 hex digest of the random suffix
	Exp        time.Time // UTC expiration time
}

// ErrMalformedToken is returned when a presented credential does not
// have the two-part token shape.
var ErrMalformedToken = errors.New("malformed session token")

// tokenAlphabet lists the characters used for session secrets, matching
// what existing clients were issued.
const tokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// secretLength is the number of alphanumeric characters in the secret suffix.
const secretLength = 32

// NewSessionToken builds a fresh session credential for the given user.
// The ttl controls how far in the future the expiry is set; it must be
// positive. Randomness comes from crypto/rand so tokens are unique for
// all practical purposes across the whole process.
func NewSessionToken(userID uint64, ttl time.Duration) (SessionToken, error) {
	suffix, err := randomAlphanumeric(secretLength)
	if err != nil {
		return SessionToken{}, err
	}
	key := base64.StdEncoding.EncodeToString([]byte(strconv.FormatUint(userID, 10)))
	return SessionToken{
		Raw:        key + "." + suffix,
		SecretHash: HashTokenSecret(suffix),
		Exp:        time.Now().UTC().Add(ttl),
	}, nil
}

// ParseSessionToken splits a presented credential into the user id it
// claims to belong to and its secret suffix. The result is untrusted:
// the caller must still verify the suffix against a stored hash.
func ParseSessionToken(raw string) (uint64, string, error) {
	dot := -1
	for i := 0; i < len(raw); i++ {
		if raw[i] == '.' {
			dot = i
			break
		}
	}
	if dot <= 0 || dot == len(raw)-1 {
		return 0, "", ErrMalformedToken
	}
	decoded, err := base64.StdEncoding.DecodeString(raw[:dot])
	if err != nil {
		return 0, "", ErrMalformedToken
	}
	userID, err := strconv.ParseUint(string(decoded), 10, 64)
	if err != nil || userID == 0 {
		return 0, "", ErrMalformedToken
	}
	return userID, raw[dot+1:], nil
}

// HashTokenSecret returns the SHA-256 hash of a token's secret suffix as
// a hex string. Storing only the hash prevents attackers from replaying
// sessions out of stolen database rows.
func HashTokenSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// VerifyTokenSecret compares a presented secret suffix against a stored
// hash in constant time.
func VerifyTokenSecret(storedHash, secret string) bool {
	computed := HashTokenSecret(secret)
	return subtle.ConstantTimeCompare([]byte(storedHash), []byte(computed)) == 1
}

// randomAlphanumeric returns n characters drawn uniformly from
// tokenAlphabet using crypto/rand. rand.Int avoids modulo bias.
func randomAlphanumeric(n int) (string, error) {
	out := make([]byte, n)
	max := big.NewInt(int64(len(tokenAlphabet)))
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = tokenAlphabet[idx.Int64()]
	}
	return string(out), nil
}
