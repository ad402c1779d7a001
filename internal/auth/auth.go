// Package auth issues and validates the JWTs that gate the HTTP eval API,
// grounded on the teacher's internal/auth/jwt.go: lazy-initialized HS256
// secrets, RegisteredClaims embedding, and separate access/refresh token
// lifetimes. There is no user table behind this service — a caller trades
// a session name for a token, and the token's "session" claim carries
// that name.
package auth

import (
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	accessTokenTTL  = 15 * time.Minute
	refreshTokenTTL = 7 * 24 * time.Hour
)

// Issuer signs and validates tokens against a secret loaded once, the way
// the teacher's initSecrets does with sync.Once.
type Issuer struct {
	secret []byte
	issuer string
	once   sync.Once
	seed   string
}

// NewIssuer builds an Issuer around a secret read from config. The secret
// is not touched until the first Issue/Validate call, mirroring the
// teacher's lazy pattern even though here there is nothing expensive to
// defer; it keeps the two implementations structurally comparable.
func NewIssuer(secret, issuer string) *Issuer {
	return &Issuer{seed: secret, issuer: issuer}
}

func (i *Issuer) init() {
	i.once.Do(func() {
		i.secret = []byte(i.seed)
		if len(i.secret) == 0 {
			i.secret = []byte("dev-secret-change-me")
		}
	})
}

// Claims identifies the session a token was issued for.
type Claims struct {
	Session string `json:"session"`
	jwt.RegisteredClaims
}

// IssueAccess signs a short-lived token for session.
func (i *Issuer) IssueAccess(session string) (string, error) {
	i.init()
	claims := &Claims{
		Session: session,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(accessTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    i.issuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// IssueRefresh signs a long-lived token for session.
func (i *Issuer) IssueRefresh(session string) (string, error) {
	i.init()
	claims := &Claims{
		Session: session,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(refreshTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    i.issuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// Validate parses and verifies tokenStr, returning the session it was
// issued for.
func (i *Issuer) Validate(tokenStr string) (*Claims, error) {
	i.init()
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return i.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
