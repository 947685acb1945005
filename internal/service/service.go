// Package service implements the application core: user accounts behind
// the authentication gate, ownership-scoped short link management, and
// public code resolution.
package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/patric-chuzhbe/shortling/internal/db/storage"
	"github.com/patric-chuzhbe/shortling/internal/hasher"
	"github.com/patric-chuzhbe/shortling/internal/link"
	"github.com/patric-chuzhbe/shortling/internal/shortcode"
	"github.com/patric-chuzhbe/shortling/internal/user"
)

// codeGenerationAttempts bounds the regeneration loop when a fresh random
// code collides with an existing one.
const codeGenerationAttempts = 5

var (
	// ErrEmailTaken is returned by Signup for a duplicate email.
	ErrEmailTaken = errors.New("user with this email already exists")

	// ErrUserNotFound is returned by Login for an unknown email.
	ErrUserNotFound = errors.New("user with this email does not exist")

	// ErrWrongPassword is returned by Login when the digest does not match.
	ErrWrongPassword = errors.New("invalid password")

	// ErrCodeTaken is returned when a requested code is already in use.
	ErrCodeTaken = errors.New("short code already in use")

	// ErrCodeGenExhausted is returned when the generation retry budget is
	// exceeded.
	ErrCodeGenExhausted = errors.New("the number of attempts to generate a unique code has been exceeded")

	// ErrLinkNotFound is returned when no link matches the code or id.
	ErrLinkNotFound = errors.New("short link not found")

	// ErrNotOwner is returned when a link exists but belongs to another
	// user.
	ErrNotOwner = errors.New("short link belongs to another user")
)

type transactioner interface {
	BeginTransaction() (*sql.Tx, error)

	RollbackTransaction(transaction *sql.Tx) error

	CommitTransaction(transaction *sql.Tx) error
}

type userKeeper interface {
	CreateUser(ctx context.Context, usr *user.User, transaction *sql.Tx) (string, error)

	FindUserByEmail(ctx context.Context, email string, transaction *sql.Tx) (*user.User, bool, error)

	FindUserByID(ctx context.Context, userID string) (*user.User, bool, error)
}

type linksKeeper interface {
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
}

type pinger interface {
	Ping(ctx context.Context) error
}

type serviceStorage interface {
	transactioner
	userKeeper
	linksKeeper
	pinger
}

type tokenIssuer interface {
	Issue(userID string) (string, error)
}

// Service wires the storage layer, the credential hasher and the token
// service into the operations the HTTP surface exposes.
type Service struct {
	db     serviceStorage
	tokens tokenIssuer
}

// New creates a Service over the given storage and token issuer.
func New(db serviceStorage, tokens tokenIssuer) *Service {
	return &Service{
		db:     db,
		tokens: tokens,
	}
}

// Signup registers a new user and returns its identifier. The email is
// checked before insert; the storage unique index closes the remaining
// race and is reported the same way.
func (s *Service) Signup(ctx context.Context, firstname, lastname, email, password string) (string, error) {
	_, found, err := s.db.FindUserByEmail(ctx, email, nil)
	if err != nil {
		return "", err
	}
	if found {
		return "", ErrEmailTaken
	}

	digest, salt, err := hasher.Hash(password)
	if err != nil {
		return "", err
	}

	userID, err := s.db.CreateUser(
		ctx,
		&user.User{
			Firstname: firstname,
			Lastname:  lastname,
			Email:     email,
			Password:  digest,
			Salt:      salt,
		},
		nil,
	)
	if errors.Is(err, storage.ErrConflict) {
		return "", ErrEmailTaken
	}
	if err != nil {
		return "", err
	}

	return userID, nil
}

// Login verifies the credentials and returns a signed bearer token.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	usr, found, err := s.db.FindUserByEmail(ctx, email, nil)
	if err != nil {
		return "", err
	}
	if !found {
		return "", ErrUserNotFound
	}

	if !hasher.Verify(password, usr.Salt, usr.Password) {
		return "", ErrWrongPassword
	}

	return s.tokens.Issue(usr.ID)
}

// Shorten creates a new short link owned by ownerID. A non-empty
// requestedCode is used verbatim and rejected on conflict; otherwise a
// random code is generated with a bounded number of retries.
func (s *Service) Shorten(ctx context.Context, targetURL, requestedCode, ownerID string) (*link.ShortLink, error) {
	transaction, err := s.db.BeginTransaction()
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = s.db.RollbackTransaction(transaction)
	}()

	lnk := &link.ShortLink{
		TargetURL: targetURL,
		UserID:    ownerID,
	}

	if requestedCode != "" {
		lnk.Code = requestedCode
		exists, err := s.db.IsCodeExists(ctx, requestedCode, transaction)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, ErrCodeTaken
		}

		lnk.ID, err = s.db.InsertLink(ctx, lnk, transaction)
		if errors.Is(err, storage.ErrConflict) {
			return nil, ErrCodeTaken
		}
		if err != nil {
			return nil, err
		}
	} else {
		if err := s.insertWithGeneratedCode(ctx, lnk, transaction); err != nil {
			return nil, err
		}
	}

	if err := s.db.CommitTransaction(transaction); err != nil {
		return nil, err
	}

	return lnk, nil
}

func (s *Service) insertWithGeneratedCode(ctx context.Context, lnk *link.ShortLink, transaction *sql.Tx) error {
	for attempt := 0; attempt < codeGenerationAttempts; attempt++ {
		code, err := shortcode.Generate()
		if err != nil {
			return err
		}

		exists, err := s.db.IsCodeExists(ctx, code, transaction)
		if err != nil {
			return err
		}
		if exists {
			continue
		}

		lnk.Code = code
		lnk.ID, err = s.db.InsertLink(ctx, lnk, transaction)
		if errors.Is(err, storage.ErrConflict) {
			// Lost the insert race to a sibling request; counts as a
			// failed attempt.
			continue
		}

		return err
	}

	return ErrCodeGenExhausted
}

// UserLinks returns the links owned by ownerID, insertion order.
func (s *Service) UserLinks(ctx context.Context, ownerID string) ([]link.ShortLink, error) {
	return s.db.FindLinksByUser(ctx, ownerID)
}

// UpdateLink rewrites code and/or target URL of the link. Existence is
// checked before ownership so the caller can tell 404 from 403; the
// storage UPDATE still constrains on the owner.
func (s *Service) UpdateLink(ctx context.Context, linkID, ownerID, newCode, newTargetURL string) error {
	transaction, err := s.db.BeginTransaction()
	if err != nil {
		return err
	}
	defer func() {
		_ = s.db.RollbackTransaction(transaction)
	}()

	lnk, found, err := s.db.FindLinkByID(ctx, linkID, transaction)
	if err != nil {
		return err
	}
	if !found {
		return ErrLinkNotFound
	}
	if lnk.UserID != ownerID {
		return ErrNotOwner
	}

	if newCode != "" && newCode != lnk.Code {
		exists, err := s.db.IsCodeExists(ctx, newCode, transaction)
		if err != nil {
			return err
		}
		if exists {
			return ErrCodeTaken
		}
	}

	affected, err := s.db.UpdateLink(ctx, linkID, ownerID, newCode, newTargetURL, transaction)
	if errors.Is(err, storage.ErrConflict) {
		return ErrCodeTaken
	}
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrLinkNotFound
	}

	return s.db.CommitTransaction(transaction)
}

// DeleteLink removes the link after the same 404/403 ladder as
// UpdateLink; the storage DELETE constrains on the owner.
func (s *Service) DeleteLink(ctx context.Context, linkID, ownerID string) error {
	lnk, found, err := s.db.FindLinkByID(ctx, linkID, nil)
	if err != nil {
		return err
	}
	if !found {
		return ErrLinkNotFound
	}
	if lnk.UserID != ownerID {
		return ErrNotOwner
	}

	affected, err := s.db.DeleteLink(ctx, linkID, ownerID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrLinkNotFound
	}

	return nil
}

// Resolve returns the target URL stored for code.
func (s *Service) Resolve(ctx context.Context, code string) (string, error) {
	lnk, found, err := s.db.FindLinkByCode(ctx, code)
	if err != nil {
		return "", err
	}
	if !found {
		return "", ErrLinkNotFound
	}

	return lnk.TargetURL, nil
}

// Ping checks the health of the storage layer.
func (s *Service) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}
