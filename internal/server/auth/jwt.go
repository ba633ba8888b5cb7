// Package auth holds the credential primitives of the auth core: session
// token codec, single-use flow tokens, password hashing and the request
// authentication backend.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/soundhub/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// TokenKind selects the secret and lifetime of a session token.
type TokenKind int

const (
	AccessToken TokenKind = iota
	RefreshToken
)

const (
	AccessTokenTTL  = 15 * time.Minute
	RefreshTokenTTL = 7 * 24 * time.Hour
)

func (k TokenKind) String() string {
	if k == RefreshToken {
		return "refresh"
	}
	return "access"
}

// Claims carries the token subject next to iat/exp.
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// TokenCodec issues and verifies HS256 session tokens. Access and refresh
// tokens are signed with distinct secrets, so one kind never verifies as
// the other.
type TokenCodec struct {
	accessSecret  []byte
	refreshSecret []byte
}

func NewTokenCodec(accessSecret, refreshSecret []byte) *TokenCodec {
	return &TokenCodec{accessSecret: accessSecret, refreshSecret: refreshSecret}
}

func (c *TokenCodec) secret(kind TokenKind) []byte {
	if kind == RefreshToken {
		return c.refreshSecret
	}
	return c.accessSecret
}

func ttl(kind TokenKind) time.Duration {
	if kind == RefreshToken {
		return RefreshTokenTTL
	}
	return AccessTokenTTL
}

// Issue signs a token of the given kind for userID, valid from now.
func (c *TokenCodec) Issue(kind TokenKind, userID string, now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl(kind))),
		},
	})

	tokenString, err := token.SignedString(c.secret(kind))
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// Verify checks the signature first and the expiry second, and returns the
// subject. A token with a valid signature past its expiry yields
// common.ErrTokenExpired; any other failure yields common.ErrTokenMalformed.
func (c *TokenCodec) Verify(kind TokenKind, tokenString string, now time.Time) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) {
			return c.secret(kind), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", common.ErrTokenExpired
		}
		return "", common.ErrTokenMalformed
	}

	if !token.Valid || claims.UserID == "" {
		return "", common.ErrTokenMalformed
	}

	return claims.UserID, nil
}
