// Package storage declares the persistence contract the application core
// is written against. Implementations live in the sibling packages
// postgresdb, jsondb and memorystorage.
package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/patric-chuzhbe/shortling/internal/link"
	"github.com/patric-chuzhbe/shortling/internal/user"
)

// ErrConflict is returned when an insert or update violates a uniqueness
// guarantee (user email or link code). With the Postgres backend the
// violation is detected by the database itself, which closes the
// check-then-insert race.
var ErrConflict = errors.New("unique constraint violated")

// Storage is the full persistence surface. The transaction parameter of
// the mutating methods may be nil, in which case the operation runs
// outside any transaction. Implementations without real transactions
// accept and ignore it.
type Storage interface {
	CreateUser(ctx context.Context, usr *user.User, transaction *sql.Tx) (string, error)

	FindUserByEmail(ctx context.Context, email string, transaction *sql.Tx) (*user.User, bool, error)

	FindUserByID(ctx context.Context, userID string) (*user.User, bool, error)

	InsertLink(ctx context.Context, lnk *link.ShortLink, transaction *sql.Tx) (string, error)

	FindLinkByCode(ctx context.Context, code string) (*link.ShortLink, bool, error)

	FindLinkByID(ctx context.Context, linkID string, transaction *sql.Tx) (*link.ShortLink, bool, error)

	FindLinksByUser(ctx context.Context, userID string) ([]link.ShortLink, error)

	IsCodeExists(ctx context.Context, code string, transaction *sql.Tx) (bool, error)

	UpdateLink(
		ctx context.Context,
		linkID,
		userID,
		newCode,
		newTargetURL string,
		transaction *sql.Tx,
	) (int64, error)

	DeleteLink(ctx context.Context, linkID, userID string) (int64, error)

	BeginTransaction() (*sql.Tx, error)

	RollbackTransaction(transaction *sql.Tx) error

	CommitTransaction(transaction *sql.Tx) error

	Ping(ctx context.Context) error

	Close() error
}
