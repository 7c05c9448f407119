// Package auth issues and parses the signed session tokens handed out on a
// successful sign-in.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/manis-auth/manis/internal/common"
	"github.com/manis-auth/manis/internal/server/models"
)

// RoleUser is the single role granted to authenticated users.
const RoleUser = "user"

// Claims includes the registered claims plus the identity claims carried so
// a later request can be re-authorized without a log lookup.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"uid"`
	Login  string `json:"login"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// TokenFactory mints HS256-signed, time-bounded tokens. Expiry, signing key,
// issuer, and audience are configuration, not logic.
type TokenFactory struct {
	secret   []byte
	validity time.Duration
	issuer   string
	audience string
}

func NewTokenFactory(secret []byte, validity time.Duration, issuer, audience string) *TokenFactory {
	return &TokenFactory{secret: secret, validity: validity, issuer: issuer, audience: audience}
}

// Create issues a token binding the user's identity and role.
func (f *TokenFactory) Create(user *models.User) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    f.issuer,
			Audience:  jwt.ClaimStrings{f.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(f.validity)),
		},
		UserID: user.ID.String(),
		Login:  user.Login,
		Email:  user.Email,
		Role:   RoleUser,
	})

	return token.SignedString(f.secret)
}

// ParseClaims validates a token's signature and expiry and returns its claims.
func (f *TokenFactory) ParseClaims(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return f.secret, nil
	})
	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
