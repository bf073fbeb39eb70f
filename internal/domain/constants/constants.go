// Package constants holds values shared across layers.
package constants

const (
	// EnvDevelop is the environment name used for local development.
	EnvDevelop = "develop"
	// EnvTest is the environment name used by integration tests.
	EnvTest = "test"
)

// Pub/Sub providers for the job publisher.
const (
	PubSubProviderInProcess = "inprocess"
	PubSubProviderNone      = "none"
	PubSubProviderLocal     = "local"
	PubSubProviderGoogle    = "google"
)

// Echo context keys set by the auth middleware.
const (
	ContextKeyUserID = "userID"
	ContextKeyRoles  = "roles"
)

// Job types carried by the job publisher.
const (
	JobTypeWishlistMatch = "wishlist.match_item"
)

// RealtimeChannelPrefix prefixes per-user notification channels on Redis.
const RealtimeChannelPrefix = "notifications:"

// DefaultPageSize is used when a list endpoint receives no limit.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)
