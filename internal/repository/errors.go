package repository

import "errors"

// Sentinel errors, checked with errors.Is
var (
	ErrNotFound = errors.New("entity not found")

	// ErrInvalidEntity is returned when an entity is missing required data
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrOperationNotSupported is returned for updates to a journal entry
	ErrOperationNotSupported = errors.New("journal entries cannot be updated")
)
