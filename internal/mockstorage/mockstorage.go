// Package mockstorage provides a testify-based mock implementation of the
// storage contract. It is used for unit testing HTTP handlers and the
// service layer by simulating storage behavior, including failures the
// real backends only produce under load.
package mockstorage

import (
	"context"
	"database/sql"

	"github.com/stretchr/testify/mock"

	"github.com/patric-chuzhbe/shortling/internal/link"
	"github.com/patric-chuzhbe/shortling/internal/user"
)

// StorageMock is a testify mock that implements storage.Storage.
type StorageMock struct {
	mock.Mock
}

// CreateUser mocks user insertion.
func (m *StorageMock) CreateUser(ctx context.Context, usr *user.User, transaction *sql.Tx) (string, error) {
	args := m.Called(ctx, usr, transaction)
	return args.String(0), args.Error(1)
}

// FindUserByEmail mocks the email lookup.
func (m *StorageMock) FindUserByEmail(ctx context.Context, email string, transaction *sql.Tx) (*user.User, bool, error) {
	args := m.Called(ctx, email, transaction)
	usr, _ := args.Get(0).(*user.User)
	return usr, args.Bool(1), args.Error(2)
}

// FindUserByID mocks the id lookup.
func (m *StorageMock) FindUserByID(ctx context.Context, userID string) (*user.User, bool, error) {
	args := m.Called(ctx, userID)
	usr, _ := args.Get(0).(*user.User)
	return usr, args.Bool(1), args.Error(2)
}

// InsertLink mocks link insertion.
func (m *StorageMock) InsertLink(ctx context.Context, lnk *link.ShortLink, transaction *sql.Tx) (string, error) {
	args := m.Called(ctx, lnk, transaction)
	return args.String(0), args.Error(1)
}

// FindLinkByCode mocks the code lookup.
func (m *StorageMock) FindLinkByCode(ctx context.Context, code string) (*link.ShortLink, bool, error) {
	args := m.Called(ctx, code)
	lnk, _ := args.Get(0).(*link.ShortLink)
	return lnk, args.Bool(1), args.Error(2)
}

// FindLinkByID mocks the id lookup.
func (m *StorageMock) FindLinkByID(ctx context.Context, linkID string, transaction *sql.Tx) (*link.ShortLink, bool, error) {
	args := m.Called(ctx, linkID, transaction)
	lnk, _ := args.Get(0).(*link.ShortLink)
	return lnk, args.Bool(1), args.Error(2)
}

// FindLinksByUser mocks the per-owner listing.
func (m *StorageMock) FindLinksByUser(ctx context.Context, userID string) ([]link.ShortLink, error) {
	args := m.Called(ctx, userID)
	links, _ := args.Get(0).([]link.ShortLink)
	return links, args.Error(1)
}

// IsCodeExists mocks the code existence check.
func (m *StorageMock) IsCodeExists(ctx context.Context, code string, transaction *sql.Tx) (bool, error) {
	args := m.Called(ctx, code, transaction)
	return args.Bool(0), args.Error(1)
}

// UpdateLink mocks the owner-scoped update.
func (m *StorageMock) UpdateLink(
	ctx context.Context,
	linkID,
	userID,
	newCode,
	newTargetURL string,
	transaction *sql.Tx,
) (int64, error) {
	args := m.Called(ctx, linkID, userID, newCode, newTargetURL, transaction)
	return args.Get(0).(int64), args.Error(1)
}

// DeleteLink mocks the owner-scoped delete.
func (m *StorageMock) DeleteLink(ctx context.Context, linkID, userID string) (int64, error) {
	args := m.Called(ctx, linkID, userID)
	return args.Get(0).(int64), args.Error(1)
}

// BeginTransaction mocks the beginning of a transaction.
func (m *StorageMock) BeginTransaction() (*sql.Tx, error) {
	args := m.Called()
	tx, _ := args.Get(0).(*sql.Tx)
	return tx, args.Error(1)
}

// RollbackTransaction mocks rolling back a transaction.
func (m *StorageMock) RollbackTransaction(transaction *sql.Tx) error {
	args := m.Called(transaction)
	return args.Error(0)
}

// CommitTransaction mocks committing a transaction.
func (m *StorageMock) CommitTransaction(transaction *sql.Tx) error {
	args := m.Called(transaction)
	return args.Error(0)
}

// Ping mocks the health check.
func (m *StorageMock) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Close mocks resource release.
func (m *StorageMock) Close() error {
	args := m.Called()
	return args.Error(0)
}
