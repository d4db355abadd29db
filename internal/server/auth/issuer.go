// Package auth issues and verifies stateless HS256 session tokens.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/moodjournal/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carried by a session token. There is no server-side revocation;
// a token is good until exp.
type Claims struct {
	UserID   string `json:"uid"`
	UserName string `json:"username"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies session tokens with one HMAC secret.
type Issuer struct {
	secret   []byte
	validity time.Duration
	now      func() time.Time
}

type Option func(*Issuer)

// WithClock overrides the time source used for iat, exp and verification.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) { i.now = now }
}

func NewIssuer(secret string, validity time.Duration, opts ...Option) *Issuer {
	i := &Issuer{secret: []byte(secret), validity: validity, now: time.Now}
	for _, o := range opts {
		o(i)
	}
	return i
}

// Issue returns a signed token for the user and the instant it expires.
func (i *Issuer) Issue(userID, userName string) (string, time.Time, error) {
	now := i.now()
	exp := now.Add(i.validity)
	claims := &Claims{
		UserID:   userID,
		UserName: userName,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return s, exp, nil
}

// Verify checks signature, algorithm and expiry. It returns
// common.ErrTokenExpired for a well-formed token past exp and
// common.ErrInvalidToken for anything else.
func (i *Issuer) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return i.secret, nil
	},
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	if !token.Valid || claims.UserID == "" {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
