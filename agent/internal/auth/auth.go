// Package auth signs and verifies the bearer tokens that guard the
// settings-editing routes of the agent API.
package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

const Issuer = "focus-guard"

// Scope values carried by tokens.
const (
	ScopeSettings = "settings"
	ScopeStats    = "stats"
)

type Claims struct {
	Subject string   `json:"sub_name"`
	Scopes  []string `json:"scopes"`
	jwt.RegisteredClaims
}

func (c *Claims) Allows(scope string) bool {
	for _, s := range c.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

type Signer struct {
	Secret []byte
	Issuer string
	ExpMin int
}

func NewSigner(secret string, expMin int) *Signer {
	return &Signer{Secret: []byte(secret), Issuer: Issuer, ExpMin: expMin}
}

func (s *Signer) Sign(subject string, scopes ...string) (string, error) {
	if len(s.Secret) == 0 {
		return "", errors.New("empty signing secret")
	}
	now := time.Now()
	exp := now.Add(time.Duration(s.ExpMin) * time.Minute)
	claims := Claims{
		Subject: subject, Scopes: scopes,
		RegisteredClaims: jwt.RegisteredClaims{Issuer: s.Issuer, IssuedAt: jwt.NewNumericDate(now), ExpiresAt: jwt.NewNumericDate(exp)},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.Secret)
}

func (s *Signer) Parse(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) { return s.Secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.Issuer),
	)
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, jwt.ErrTokenInvalidClaims
}
