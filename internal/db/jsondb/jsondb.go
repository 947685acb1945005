// Package jsondb is a file-backed implementation of the storage contract.
// The whole dataset lives in memory and is flushed to a JSON file on
// Close; it exists for local development and tests, not for production
// traffic.
package jsondb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"

	"github.com/patric-chuzhbe/shortling/internal/db/storage"
	"github.com/patric-chuzhbe/shortling/internal/link"
	"github.com/patric-chuzhbe/shortling/internal/user"
)

// CacheStruct is the serialized shape of the database file.
type CacheStruct struct {
	Users       map[string]*user.User
	EmailToUser map[string]string
	Links       map[string]*link.ShortLink
	CodeToLink  map[string]string

	// LinksOrder keeps link IDs in insertion order so per-user listings
	// are stable.
	LinksOrder []string
}

// JSONDB implements storage.Storage over an in-memory cache persisted to
// a JSON file. The cache is guarded by a mutex because this layer IS the
// storage engine and gets no transactional help from below.
type JSONDB struct {
	fileName string
	mu       sync.RWMutex
	Cache    CacheStruct
}

// NewCache returns an empty, fully initialized cache.
func NewCache() CacheStruct {
	return CacheStruct{
		Users:       map[string]*user.User{},
		EmailToUser: map[string]string{},
		Links:       map[string]*link.ShortLink{},
		CodeToLink:  map[string]string{},
		LinksOrder:  []string{},
	}
}

func initDBFile(fileName string) error {
	content, err := json.MarshalIndent(NewCache(), "", "\t")
	if err != nil {
		return err
	}

	return os.WriteFile(fileName, content, 0644)
}

func parseJSONFile(fileName string, cache *CacheStruct) error {
	file, err := os.Open(fileName)
	if err != nil {
		return err
	}
	defer file.Close()

	return json.NewDecoder(file).Decode(cache)
}

func writeToJSONFile(fileName string, cache interface{}) error {
	jsonData, err := json.MarshalIndent(cache, "", "\t")
	if err != nil {
		return fmt.Errorf("error marshaling JSON: %s", err)
	}

	if err := os.WriteFile(fileName, jsonData, 0644); err != nil {
		return fmt.Errorf("error writing to file: %s", err)
	}

	return nil
}

// NewDetached returns a JSONDB with no file behind it; Close on the
// result must be overridden by the wrapper (see memorystorage).
func NewDetached() *JSONDB {
	return &JSONDB{
		Cache: NewCache(),
	}
}

// New opens (or creates) the database file and loads it into memory.
func New(fileName string) (*JSONDB, error) {
	db := &JSONDB{
		fileName: fileName,
		Cache:    NewCache(),
	}

	err := parseJSONFile(db.fileName, &db.Cache)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		if err := initDBFile(fileName); err != nil {
			return nil, err
		}
		if err := parseJSONFile(db.fileName, &db.Cache); err != nil {
			return nil, err
		}
	}

	return db, nil
}

// CreateUser stores usr under a fresh UUID and returns it.
// A duplicate email yields storage.ErrConflict.
func (db *JSONDB) CreateUser(ctx context.Context, usr *user.User, transaction *sql.Tx) (string, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, exists := db.Cache.EmailToUser[usr.Email]; exists {
		return "", storage.ErrConflict
	}

	stored := *usr
	stored.ID = uuid.New().String()
	db.Cache.Users[stored.ID] = &stored
	db.Cache.EmailToUser[stored.Email] = stored.ID

	return stored.ID, nil
}

// FindUserByEmail returns the user registered with email, if any.
func (db *JSONDB) FindUserByEmail(ctx context.Context, email string, transaction *sql.Tx) (*user.User, bool, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	userID, found := db.Cache.EmailToUser[email]
	if !found {
		return nil, false, nil
	}
	usr := *db.Cache.Users[userID]

	return &usr, true, nil
}

// FindUserByID returns the user with the given identifier, if any.
func (db *JSONDB) FindUserByID(ctx context.Context, userID string) (*user.User, bool, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	usr, found := db.Cache.Users[userID]
	if !found {
		return nil, false, nil
	}
	copied := *usr

	return &copied, true, nil
}

// InsertLink stores lnk under a fresh UUID and returns it.
// A duplicate code yields storage.ErrConflict.
func (db *JSONDB) InsertLink(ctx context.Context, lnk *link.ShortLink, transaction *sql.Tx) (string, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, exists := db.Cache.CodeToLink[lnk.Code]; exists {
		return "", storage.ErrConflict
	}

	stored := *lnk
	stored.ID = uuid.New().String()
	db.Cache.Links[stored.ID] = &stored
	db.Cache.CodeToLink[stored.Code] = stored.ID
	db.Cache.LinksOrder = append(db.Cache.LinksOrder, stored.ID)

	return stored.ID, nil
}

// FindLinkByCode returns the link addressed by code, if any.
func (db *JSONDB) FindLinkByCode(ctx context.Context, code string) (*link.ShortLink, bool, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	linkID, found := db.Cache.CodeToLink[code]
	if !found {
		return nil, false, nil
	}
	lnk := *db.Cache.Links[linkID]

	return &lnk, true, nil
}

// FindLinkByID returns the link with the given identifier, if any.
func (db *JSONDB) FindLinkByID(ctx context.Context, linkID string, transaction *sql.Tx) (*link.ShortLink, bool, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	lnk, found := db.Cache.Links[linkID]
	if !found {
		return nil, false, nil
	}
	copied := *lnk

	return &copied, true, nil
}

// FindLinksByUser returns the links owned by userID in insertion order.
func (db *JSONDB) FindLinksByUser(ctx context.Context, userID string) ([]link.ShortLink, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	result := []link.ShortLink{}
	for _, linkID := range db.Cache.LinksOrder {
		lnk, found := db.Cache.Links[linkID]
		if found && lnk.UserID == userID {
			result = append(result, *lnk)
		}
	}

	return result, nil
}

// IsCodeExists reports whether any link already uses code.
func (db *JSONDB) IsCodeExists(ctx context.Context, code string, transaction *sql.Tx) (bool, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	_, exists := db.Cache.CodeToLink[code]

	return exists, nil
}

// UpdateLink rewrites code and/or target URL of the link matching both
// linkID and userID. Empty fields are left unchanged. It returns the
// number of affected rows (0 or 1).
func (db *JSONDB) UpdateLink(
	ctx context.Context,
	linkID,
	userID,
	newCode,
	newTargetURL string,
	transaction *sql.Tx,
) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	lnk, found := db.Cache.Links[linkID]
	if !found || lnk.UserID != userID {
		return 0, nil
	}

	if newCode != "" && newCode != lnk.Code {
		if _, exists := db.Cache.CodeToLink[newCode]; exists {
			return 0, storage.ErrConflict
		}
		delete(db.Cache.CodeToLink, lnk.Code)
		db.Cache.CodeToLink[newCode] = lnk.ID
		lnk.Code = newCode
	}

	if newTargetURL != "" {
		lnk.TargetURL = newTargetURL
	}

	return 1, nil
}

// DeleteLink removes the link matching both linkID and userID and
// returns the number of affected rows (0 or 1).
func (db *JSONDB) DeleteLink(ctx context.Context, linkID, userID string) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	lnk, found := db.Cache.Links[linkID]
	if !found || lnk.UserID != userID {
		return 0, nil
	}

	delete(db.Cache.CodeToLink, lnk.Code)
	delete(db.Cache.Links, linkID)
	for i, id := range db.Cache.LinksOrder {
		if id == linkID {
			db.Cache.LinksOrder = append(db.Cache.LinksOrder[:i], db.Cache.LinksOrder[i+1:]...)
			break
		}
	}

	return 1, nil
}

// BeginTransaction is a no-op: the cache mutex already serializes writes.
func (db *JSONDB) BeginTransaction() (*sql.Tx, error) {
	return nil, nil
}

// RollbackTransaction is a no-op.
func (db *JSONDB) RollbackTransaction(transaction *sql.Tx) error {
	return nil
}

// CommitTransaction is a no-op.
func (db *JSONDB) CommitTransaction(transaction *sql.Tx) error {
	return nil
}

// Ping always succeeds for the in-memory cache.
func (db *JSONDB) Ping(ctx context.Context) error {
	return nil
}

// Close flushes the cache to the database file.
func (db *JSONDB) Close() error {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return writeToJSONFile(db.fileName, db.Cache)
}
