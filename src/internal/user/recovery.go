package user

import (
	"time"

	"heartmon-svc/src/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

const defaultRecoveryMinutes = 10

// recoverySigner mints and verifies the short-lived tokens that gate
// change-password. A token is bound to one username and expires on its own;
// it is never stored server side.
type recoverySigner struct {
	key      []byte
	lifetime time.Duration
}

func newRecoverySigner(key string, minutes int) *recoverySigner {
	if minutes <= 0 {
		minutes = defaultRecoveryMinutes
	}
	return &recoverySigner{
		key:      []byte(key),
		lifetime: time.Duration(minutes) * time.Minute,
	}
}

func (s *recoverySigner) mint(username string, now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.lifetime)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
}

// verify checks the signature, expiry and subject. Any defect maps to the
// one recovery error so callers cannot probe for valid usernames.
func (s *recoverySigner) verify(tokenString, username string, now time.Time) error {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{},
		func(*jwt.Token) (interface{}, error) { return s.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		return models.ErrRecoveryToken
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject != username {
		return models.ErrRecoveryToken
	}
	return nil
}
