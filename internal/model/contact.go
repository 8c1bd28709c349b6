package model

import "time"

// Contact is a per-user address book entry. OwnerID scopes every read and
// write in the repository; a contact is invisible and unmodifiable to any
// other user, and cross-owner lookups report not-found rather than a
// distinguishable permission error.
type Contact struct {
	ID        uint64    `json:"id"`
	OwnerID   uint64    `json:"owner"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Favorite  bool      `json:"favorite"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
