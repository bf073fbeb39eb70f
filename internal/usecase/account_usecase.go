package usecase

import (
	"context"
	"time"

	"tradepost/internal/domain/entity"

	"github.com/google/uuid"
)

// --- Input DTOs ---

// RegisterInput defines the data required to register a new user.
type RegisterInput struct {
	Name         string
	Email        string
	Password     string
	ReferralCode string
}

// LoginInput defines the data required for a user to log in.
type LoginInput struct {
	Email    string
	Password string
}

// UpdateProfileInput carries the shipping contact fields.
type UpdateProfileInput struct {
	Phone   string
	Address string
	City    string
	State   string
}

// GrantCreditsInput defines an admin credit grant.
type GrantCreditsInput struct {
	AdminAction
	UserID uuid.UUID
	Amount int64
	Reason string
}

// BanInput defines a ban or unban.
type BanInput struct {
	AdminAction
	UserID uuid.UUID
	Reason string
}

// --- Output DTOs ---

// LoginOutput returns the generated token after a successful login.
type LoginOutput struct {
	AccessToken string
	ExpiresAt   time.Time
	User        *entity.User
}

// Profile is the caller's view of their account.
type Profile struct {
	User          *entity.User
	Tier          entity.Tier
	NextLevelAt   *int64 // Points needed for the next level, nil at the top level.
	ReferredCount int64
}

// AccountUsecase defines the account operations around the marketplace core.
type AccountUsecase interface {
	Register(ctx context.Context, input *RegisterInput) (*entity.User, error)
	Login(ctx context.Context, input *LoginInput) (*LoginOutput, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (*Profile, error)

	// UpdateProfile stores contact fields and pays the signup referral bonus once they are complete.
	UpdateProfile(ctx context.Context, userID uuid.UUID, input *UpdateProfileInput) (*Profile, error)

	// SubmitAppeal records a banned user's appeal.
	SubmitAppeal(ctx context.Context, userID uuid.UUID, text string) error

	// DeleteAccount anonymises the user and keeps their ledger.
	DeleteAccount(ctx context.Context, userID uuid.UUID) error

	GrantCredits(ctx context.Context, input *GrantCreditsInput) (*entity.LedgerEntry, error)
	Ban(ctx context.Context, input *BanInput) (*entity.User, error)
	Unban(ctx context.Context, input *BanInput) (*entity.User, error)
}
