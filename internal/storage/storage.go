// Package storage defines the persistence port shared by the document
// database adapter and the file-backed fallback adapter. Handlers only
// ever see this interface; which adapter serves a call is decided per
// request by the backend selector.
package storage

import (
	"context"
	"errors"

	"budgetbuddy/internal/core"
)

var (
	// ErrNotFound covers both unknown ids and records owned by
	// someone else, so a caller can never probe for existence of
	// another user's data.
	ErrNotFound = errors.New("record not found")

	// ErrInvalidID marks an id that is malformed for the adapter's
	// id scheme (ObjectId hex for the document database, UUID for
	// the file store).
	ErrInvalidID = errors.New("invalid id")
)

// Store is the unified backend interface. Identity is an opaque string
// at this boundary; each adapter owns its internal representation.
type Store interface {
	UserStore
	TransactionStore
}

type UserStore interface {
	// CreateUser persists the user and returns it with the
	// backend-assigned id. The email is expected normalized.
	CreateUser(ctx context.Context, u core.User) (core.User, error)

	UserByID(ctx context.Context, id string) (core.User, error)
	UserByEmail(ctx context.Context, email string) (core.User, error)
	UserByName(ctx context.Context, name string) (core.User, error)

	// UpdateUser applies the set fields of upd and returns the
	// updated record.
	UpdateUser(ctx context.Context, id string, upd core.UserUpdate) (core.User, error)
}

type TransactionStore interface {
	// CreateTransaction persists the transaction and returns it with
	// the backend-assigned id.
	CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)

	// Transactions returns all transactions owned by the user,
	// newest first.
	Transactions(ctx context.Context, userID string) ([]core.Transaction, error)

	// DeleteTransaction removes the transaction only if it is owned
	// by userID; otherwise ErrNotFound.
	DeleteTransaction(ctx context.Context, userID, id string) error

	// Summary aggregates the user's transactions into totals.
	Summary(ctx context.Context, userID string) (core.Summary, error)
}
