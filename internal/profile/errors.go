package profile

import "errors"

var (
	// ErrNotFound is returned when no live profile exists for the identity.
	ErrNotFound = errors.New("profile not found")

	// ErrPreferencesNotFound is returned when no preferences row exists for
	// the identity.
	ErrPreferencesNotFound = errors.New("preferences not found")

	// ErrVersionConflict is returned when an update lost the optimistic
	// concurrency race against a concurrent writer.
	ErrVersionConflict = errors.New("profile version conflict")

	// ErrAlreadyExists is returned when creating a profile for an identity
	// that already has one.
	ErrAlreadyExists = errors.New("profile already exists")
)
