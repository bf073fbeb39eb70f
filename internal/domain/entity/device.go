package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// DevicePlatform is the client platform a push token was issued for.
type DevicePlatform string

const (
	DevicePlatformIOS     DevicePlatform = "ios"
	DevicePlatformAndroid DevicePlatform = "android"
	DevicePlatformWeb     DevicePlatform = "web"
)

// ParseDevicePlatform normalises raw client input.
func ParseDevicePlatform(raw string) (DevicePlatform, bool) {
	switch p := DevicePlatform(strings.ToLower(strings.TrimSpace(raw))); p {
	case DevicePlatformIOS, DevicePlatformAndroid, DevicePlatformWeb:
		return p, true
	default:
		return "", false
	}
}

// Device is one app installation that receives push notifications for a user.
// A user has at most one row per installation, and a push token belongs to one row.
type Device struct {
	ID             uuid.UUID      `json:"id"`
	UserID         uuid.UUID      `json:"user_id"`
	InstallationID string         `json:"installation_id"`
	Token          string         `json:"-"`
	Platform       DevicePlatform `json:"platform"`
	LastSeenAt     time.Time      `json:"last_seen_at"`
	CreatedAt      time.Time      `json:"created_at"`
}
