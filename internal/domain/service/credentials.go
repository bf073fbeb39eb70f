// Package service declares the ports the use cases depend on. Implementations live under infra.
package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// PasswordHasher turns passwords into stored hashes.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Check(password, hash string) bool
	// NeedsRehash reports a hash produced with settings other than the current ones.
	NeedsRehash(hash string) bool
}

// Claims are carried by access tokens.
type Claims struct {
	UserID uuid.UUID `json:"uid"`
	Roles  []string  `json:"roles"`
	Type   string    `json:"type"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies access tokens.
type TokenService interface {
	GenerateAccessToken(userID uuid.UUID, roles []string) (token string, expiresAt time.Time, err error)
	ValidateToken(tokenString string) (*Claims, error)
}
