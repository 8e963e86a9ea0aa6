package fakeapi

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	dErrors "forkful/pkg/domain-errors"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// claims mirror what the real backend's JWTs carry: a numeric user_id and a
// token_type. Generation lets tests invalidate every outstanding access token.
type claims struct {
	UserID     int    `json:"user_id"`
	TokenType  string `json:"token_type"`
	Generation int    `json:"gen"`
	jwt.RegisteredClaims
}

// issuer signs and checks HS256 tokens.
type issuer struct {
	signingKey []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func (i *issuer) issue(userID int, tokenType string, generation int) (string, error) {
	ttl := i.accessTTL
	if tokenType == tokenTypeRefresh {
		ttl = i.refreshTTL
	}
	now := i.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		UserID:     userID,
		TokenType:  tokenType,
		Generation: generation,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "forkful-fakeapi",
			ID:        uuid.NewString(),
		},
	})
	return token.SignedString(i.signingKey)
}

func (i *issuer) parse(tokenString, tokenType string) (*claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return i.signingKey, nil
	}, jwt.WithTimeFunc(i.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	c, ok := parsed.Claims.(*claims)
	if !ok || !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	if c.TokenType != tokenType {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "wrong token type")
	}
	return c, nil
}
