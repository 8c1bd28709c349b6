// Package repository implements data access for users and contacts on top
// of database/sql. Sentinel errors let handlers map failure scenarios to
// specific HTTP statuses without inspecting driver errors.
package repository

import "errors"

// ErrEmailExists is returned when an insert collides with the unique email
// index. Handlers translate this into HTTP 409.
var ErrEmailExists = errors.New("email already exists")

// ErrUserNotFound is returned when a user lookup (by id, email or
// verification token) yields no rows. Handlers translate this into 401 or
// 404 depending on the operation.
var ErrUserNotFound = errors.New("user not found")

// ErrContactNotFound is returned when a contact lookup yields no rows.
// Cross-owner access deliberately produces the same error as nonexistence.
var ErrContactNotFound = errors.New("contact not found")
