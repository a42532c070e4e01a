// Package auth supplies the authenticated-identity and credential-hashing
// collaborators: HMAC-signed tokens carrying the acting user id, and a
// bcrypt hasher for password digests.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrMissingToken is returned when no token accompanies the request.
var ErrMissingToken = errors.New("missing token")

// ErrInvalidToken wraps parsing/validation errors.
var ErrInvalidToken = errors.New("invalid token")

// TokenConfig holds signing parameters.
type TokenConfig struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

// Tokens signs and verifies identity tokens.
type Tokens struct {
	cfg TokenConfig
	now func() time.Time
}

// NewTokens constructs a token signer/verifier.
func NewTokens(cfg TokenConfig) *Tokens {
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	return &Tokens{cfg: cfg, now: time.Now}
}

// TTL returns the configured token lifetime.
func (t *Tokens) TTL() time.Duration {
	return t.cfg.TTL
}

// Sign issues a token identifying the given user.
func (t *Tokens) Sign(userID int64) (string, error) {
	now := t.now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		Issuer:    t.cfg.Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(t.cfg.TTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(t.cfg.Secret))
}

// Parse validates a token and returns the user id it identifies.
func (t *Tokens) Parse(token string) (int64, error) {
	if token == "" {
		return 0, ErrMissingToken
	}

	parsed, err := jwt.Parse(token, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", tok.Header["alg"])
		}
		return []byte(t.cfg.Secret), nil
	},
		jwt.WithIssuer(t.cfg.Issuer),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithTimeFunc(func() time.Time { return t.now() }),
	)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	subject, err := parsed.Claims.GetSubject()
	if err != nil || subject == "" {
		return 0, ErrInvalidToken
	}
	userID, err := strconv.ParseInt(subject, 10, 64)
	if err != nil || userID <= 0 {
		return 0, ErrInvalidToken
	}
	return userID, nil
}
