package model

import (
	"database/sql"
	"time"
)

// Subscription tiers a user account can hold. New accounts default to
// starter; the owning user may switch tiers at any time.
const (
	SubscriptionStarter  = "starter"
	SubscriptionPro      = "pro"
	SubscriptionBusiness = "business"
)

// Subscriptions lists every valid tier, in the order they are advertised.
var Subscriptions = []string{SubscriptionStarter, SubscriptionPro, SubscriptionBusiness}

// User mirrors the `users` table. The password hash and both token slots
// never leave the process in an API response; handlers build dedicated
// response types instead of serializing this struct.
//
// Invariants maintained by the repository layer:
//   - Email is unique across all users.
//   - Verified == true implies VerificationToken is NULL (the verification
//     exchange flips both in one statement).
//   - Token holds at most one live session token; a new login overwrites
//     the previous value, which invalidates it for the auth middleware.
type User struct {
	ID                uint64
	Email             string
	PasswordHash      string
	Subscription      string
	AvatarURL         string
	VerificationToken sql.NullString // single-use, cleared on verification
	Verified          bool
	Token             sql.NullString // current session token (single slot)
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// ValidSubscription reports whether s names a known tier.
func ValidSubscription(s string) bool {
	for _, v := range Subscriptions {
		if s == v {
			return true
		}
	}
	return false
}
