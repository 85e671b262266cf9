package repository

import "context"

// Reader is the read side of a store keyed by ID.
type Reader[T any, ID comparable] interface {
	// FindByID returns ErrNotFound if nothing is stored under id
	FindByID(ctx context.Context, id ID) (T, error)

	// FindAll returns every entity in insertion order, never nil
	FindAll(ctx context.Context) ([]T, error)

	ExistsByID(ctx context.Context, id ID) (bool, error)
}

// Writer is the write side of an append-only store. Save assigns the ID of a
// new entity; entities that already carry an ID are rejected with
// ErrOperationNotSupported.
type Writer[T any, ID comparable] interface {
	Save(ctx context.Context, entity T) (T, error)

	// DeleteByID returns ErrNotFound if nothing is stored under id
	DeleteByID(ctx context.Context, id ID) error
}

// Repository is a complete append-only store.
type Repository[T any, ID comparable] interface {
	Reader[T, ID]
	Writer[T, ID]
}
