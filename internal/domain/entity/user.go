// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// User is an account that can upload, buy and moderate items.
// CreditBalance is a materialised projection of the user's ledger entries.
type User struct {
	ID           uuid.UUID // The Global Unique Identifier (GUID) for the user.
	Name         string    // Display name, not unique.
	Email        string    // Lower-cased, unique. Empty once the account is anonymised.
	PasswordHash string    // Verifier produced by the PasswordHasher.
	Roles        Roles     // Granted roles, at least RoleUser.

	CreditBalance int64 // Current balance, equal to the sum of ledger entries.
	TradingPoints int64 // Cumulative gamification points, never decreasing.
	Level         int   // Level derived from TradingPoints, stored for listing.

	Phone   string
	Address string
	City    string
	State   string

	ReferralCode string // Unique code other users sign up with.

	Banned    bool
	BanReason string
	Appeal    string

	HasApprovedUpload bool // Set on the first approval of any of the user's uploads.
	HasPurchased      bool // Set on the first successful checkout.

	LastCheckoutToken   string     // Idempotency token of the latest checkout.
	LastCheckoutAt      *time.Time // When LastCheckoutToken was recorded.
	LastCheckoutOrderID *uuid.UUID // Order produced by LastCheckoutToken.

	AnonymisedAt *time.Time // Set when the account was deleted by its owner.
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NormalizeEmail lower-cases and trims an email address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ProfileComplete reports whether every contact field used for shipping is filled in.
func (u *User) ProfileComplete() bool {
	return strings.TrimSpace(u.Phone) != "" &&
		strings.TrimSpace(u.Address) != "" &&
		strings.TrimSpace(u.City) != "" &&
		strings.TrimSpace(u.State) != ""
}

// IsAdmin reports whether the user may moderate.
func (u *User) IsAdmin() bool {
	return u.Roles.Contains(RoleAdmin)
}

// Tier returns the tier band of the user's current level.
func (u *User) Tier() Tier {
	return TierForLevel(u.Level)
}

// Anonymise strips personal data while keeping the row, so ledger sums stay intact.
func (u *User) Anonymise(now time.Time) {
	u.Name = "deleted user"
	u.Email = ""
	u.PasswordHash = ""
	u.Phone = ""
	u.Address = ""
	u.City = ""
	u.State = ""
	u.Appeal = ""
	u.AnonymisedAt = &now
}
