// Package repository defines error types that are reused across the
// repositories. These sentinel values allow the service layer to tell
// a missing row or a uniqueness violation apart from an infrastructure
// failure without inspecting driver-specific errors itself.
package repository

import "errors"

// ErrUserNotFound is returned when no users row matches the lookup.
var ErrUserNotFound = errors.New("user not found")

// ErrUsernameExists is returned when an insert or update collides with
// the uq_users_username unique key.
var ErrUsernameExists = errors.New("username already exists")

// ErrEmailExists is returned when an insert or update collides with
// the uq_users_email unique key.
var ErrEmailExists = errors.New("email already exists")

// ErrDuplicate is returned for a duplicate-key violation on an index
// that is not one of the two above.
var ErrDuplicate = errors.New("duplicate entry")
