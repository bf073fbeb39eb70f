// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"

	"tradepost/internal/domain/entity"

	"github.com/google/uuid"
)

// UserRepository defines the standard operations for user persistence.
// Lookups return domainerrors.ErrUserNotFound when no row matches.
type UserRepository interface {
	// FindByID retrieves a single user by their unique ID.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)

	// FindByIDForUpdate retrieves a user and holds a row lock until the transaction ends.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.User, error)

	// FindByEmail retrieves a single user by their normalised email address.
	FindByEmail(ctx context.Context, email string) (*entity.User, error)

	// FindByReferralCode retrieves the owner of a referral code.
	FindByReferralCode(ctx context.Context, code string) (*entity.User, error)

	// ReferralCodeExists reports whether a code is already taken.
	ReferralCodeExists(ctx context.Context, code string) (bool, error)

	// Create persists a new user entity to the storage.
	Create(ctx context.Context, user *entity.User) error

	// Update writes every mutable column of the user.
	Update(ctx context.Context, user *entity.User) error

	// UpdatePasswordHash replaces only the stored hash, leaving balances untouched.
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
}
