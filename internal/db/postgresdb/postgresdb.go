// Package postgresdb provides the PostgreSQL-backed implementation of the
// storage contract. Schema migrations are applied at startup with goose;
// uniqueness of user emails and link codes is enforced by unique indexes,
// surfaced to callers as storage.ErrConflict.
package postgresdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/patric-chuzhbe/shortling/internal/db/storage"
	"github.com/patric-chuzhbe/shortling/internal/link"
	"github.com/patric-chuzhbe/shortling/internal/user"
)

// PostgresDB implements storage.Storage over a PostgreSQL connection.
type PostgresDB struct {
	database          *sql.DB
	connectionTimeout time.Duration
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

type initOptions struct {
	DBPreReset bool
}

// InitOption customizes New.
type InitOption func(*initOptions)

// WithDBPreReset drops the schema before migrating. Integration tests use
// it to start from a clean database.
func WithDBPreReset(value bool) InitOption {
	return func(options *initOptions) {
		options.DBPreReset = value
	}
}

// New connects to the database, optionally resets it, and applies the
// goose migrations from migrationsDir.
func New(
	ctx context.Context,
	databaseDSN string,
	connectionTimeout time.Duration,
	migrationsDir string,
	optionsProto ...InitOption,
) (*PostgresDB, error) {
	options := &initOptions{}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	database, err := sql.Open("pgx", databaseDSN)
	if err != nil {
		return nil, err
	}

	result := &PostgresDB{
		database:          database,
		connectionTimeout: connectionTimeout,
	}

	if options.DBPreReset {
		if err := result.resetDB(ctx); err != nil {
			return nil,
				fmt.Errorf(
					"in internal/db/postgresdb/postgresdb.go/New(): error while `result.resetDB()` calling: %w",
					err,
				)
		}
	}

	if err := goose.SetDialect("postgres"); err != nil {
		return nil,
			fmt.Errorf(
				"in internal/db/postgresdb/postgresdb.go/New(): error while `goose.SetDialect()` calling: %w",
				err,
			)
	}

	if err := goose.Up(result.database, migrationsDir); err != nil {
		return nil,
			fmt.Errorf(
				"in internal/db/postgresdb/postgresdb.go/New(): error while `goose.Up()` calling: %w",
				err,
			)
	}

	return result, nil
}

func (db *PostgresDB) queryerFor(transaction *sql.Tx) queryer {
	if transaction == nil {
		return db.database
	}
	return transaction
}

func (db *PostgresDB) executorFor(transaction *sql.Tx) executor {
	if transaction == nil {
		return db.database
	}
	return transaction
}

func classifyError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return storage.ErrConflict
	}

	return err
}

// CreateUser inserts usr under a fresh UUID and returns it.
// A duplicate email yields storage.ErrConflict.
func (db *PostgresDB) CreateUser(ctx context.Context, usr *user.User, transaction *sql.Tx) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, db.connectionTimeout)
	defer cancel()

	userID := uuid.New().String()
	_, err := db.executorFor(transaction).ExecContext(
		ctx,
		`INSERT INTO users ("id", "firstname", "lastname", "email", "password", "salt")
			VALUES ($1, $2, $3, $4, $5, $6)`,
		userID,
		usr.Firstname,
		usr.Lastname,
		usr.Email,
		usr.Password,
		usr.Salt,
	)
	if err != nil {
		return "", classifyError(err)
	}

	return userID, nil
}

// FindUserByEmail returns the user registered with email, if any.
func (db *PostgresDB) FindUserByEmail(ctx context.Context, email string, transaction *sql.Tx) (*user.User, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, db.connectionTimeout)
	defer cancel()

	usr := &user.User{}
	err := db.queryerFor(transaction).QueryRowContext(
		ctx,
		`SELECT "id", "firstname", "lastname", "email", "password", "salt"
			FROM users
			WHERE "email" = $1`,
		email,
	).Scan(&usr.ID, &usr.Firstname, &usr.Lastname, &usr.Email, &usr.Password, &usr.Salt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	return usr, true, nil
}

// FindUserByID returns the user with the given identifier, if any.
func (db *PostgresDB) FindUserByID(ctx context.Context, userID string) (*user.User, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, db.connectionTimeout)
	defer cancel()

	usr := &user.User{}
	err := db.database.QueryRowContext(
		ctx,
		`SELECT "id", "firstname", "lastname", "email", "password", "salt"
			FROM users
			WHERE "id" = $1`,
		userID,
	).Scan(&usr.ID, &usr.Firstname, &usr.Lastname, &usr.Email, &usr.Password, &usr.Salt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	return usr, true, nil
}

// InsertLink inserts lnk under a fresh UUID and returns it.
// A duplicate code yields storage.ErrConflict.
func (db *PostgresDB) InsertLink(ctx context.Context, lnk *link.ShortLink, transaction *sql.Tx) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, db.connectionTimeout)
	defer cancel()

	linkID := uuid.New().String()
	_, err := db.executorFor(transaction).ExecContext(
		ctx,
		`INSERT INTO short_links ("id", "code", "target_url", "user_id")
			VALUES ($1, $2, $3, $4)`,
		linkID,
		lnk.Code,
		lnk.TargetURL,
		lnk.UserID,
	)
	if err != nil {
		return "", classifyError(err)
	}

	return linkID, nil
}

// FindLinkByCode returns the link addressed by code, if any.
func (db *PostgresDB) FindLinkByCode(ctx context.Context, code string) (*link.ShortLink, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, db.connectionTimeout)
	defer cancel()

	lnk := &link.ShortLink{}
	err := db.database.QueryRowContext(
		ctx,
		`SELECT "id", "code", "target_url", "user_id"
			FROM short_links
			WHERE "code" = $1`,
		code,
	).Scan(&lnk.ID, &lnk.Code, &lnk.TargetURL, &lnk.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	return lnk, true, nil
}

// FindLinkByID returns the link with the given identifier, if any.
func (db *PostgresDB) FindLinkByID(ctx context.Context, linkID string, transaction *sql.Tx) (*link.ShortLink, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, db.connectionTimeout)
	defer cancel()

	lnk := &link.ShortLink{}
	err := db.queryerFor(transaction).QueryRowContext(
		ctx,
		`SELECT "id", "code", "target_url", "user_id"
			FROM short_links
			WHERE "id" = $1`,
		linkID,
	).Scan(&lnk.ID, &lnk.Code, &lnk.TargetURL, &lnk.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	return lnk, true, nil
}

// FindLinksByUser returns the links owned by userID in insertion order.
func (db *PostgresDB) FindLinksByUser(ctx context.Context, userID string) ([]link.ShortLink, error) {
	ctx, cancel := context.WithTimeout(ctx, db.connectionTimeout)
	defer cancel()

	rows, err := db.database.QueryContext(
		ctx,
		`SELECT "id", "code", "target_url", "user_id"
			FROM short_links
			WHERE "user_id" = $1
			ORDER BY "created_at"`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []link.ShortLink{}
	for rows.Next() {
		var lnk link.ShortLink
		if err := rows.Scan(&lnk.ID, &lnk.Code, &lnk.TargetURL, &lnk.UserID); err != nil {
			return nil, err
		}
		result = append(result, lnk)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// IsCodeExists reports whether any link already uses code.
func (db *PostgresDB) IsCodeExists(ctx context.Context, code string, transaction *sql.Tx) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, db.connectionTimeout)
	defer cancel()

	var exists bool
	err := db.queryerFor(transaction).QueryRowContext(
		ctx,
		`SELECT EXISTS(SELECT 1 FROM short_links WHERE "code" = $1)`,
		code,
	).Scan(&exists)
	if err != nil {
		return false, err
	}

	return exists, nil
}

// UpdateLink rewrites code and/or target URL of the link matching both
// linkID and userID. Empty fields are left unchanged. The WHERE clause
// constrains on the owner, so a mismatched caller affects zero rows.
func (db *PostgresDB) UpdateLink(
	ctx context.Context,
	linkID,
	userID,
	newCode,
	newTargetURL string,
	transaction *sql.Tx,
) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, db.connectionTimeout)
	defer cancel()

	result, err := db.executorFor(transaction).ExecContext(
		ctx,
		`UPDATE short_links
			SET "code" = CASE WHEN $3 = '' THEN "code" ELSE $3 END,
				"target_url" = CASE WHEN $4 = '' THEN "target_url" ELSE $4 END
			WHERE "id" = $1 AND "user_id" = $2`,
		linkID,
		userID,
		newCode,
		newTargetURL,
	)
	if err != nil {
		return 0, classifyError(err)
	}

	return result.RowsAffected()
}

// DeleteLink removes the link matching both linkID and userID.
func (db *PostgresDB) DeleteLink(ctx context.Context, linkID, userID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, db.connectionTimeout)
	defer cancel()

	result, err := db.database.ExecContext(
		ctx,
		`DELETE FROM short_links WHERE "id" = $1 AND "user_id" = $2`,
		linkID,
		userID,
	)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}

// BeginTransaction starts a database transaction.
func (db *PostgresDB) BeginTransaction() (*sql.Tx, error) {
	return db.database.Begin()
}

// RollbackTransaction rolls the transaction back; a transaction already
// finished by Commit is not an error.
func (db *PostgresDB) RollbackTransaction(transaction *sql.Tx) error {
	if transaction == nil {
		return nil
	}
	if err := transaction.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return err
	}

	return nil
}

// CommitTransaction commits the transaction.
func (db *PostgresDB) CommitTransaction(transaction *sql.Tx) error {
	if transaction == nil {
		return nil
	}

	return transaction.Commit()
}

// Ping checks database reachability.
func (db *PostgresDB) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, db.connectionTimeout)
	defer cancel()

	return db.database.PingContext(ctx)
}

// Close closes the underlying connection pool.
func (db *PostgresDB) Close() error {
	return db.database.Close()
}

func (db *PostgresDB) resetDB(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, db.connectionTimeout)
	defer cancel()

	_, err := db.database.ExecContext(ctx, `DROP SCHEMA public CASCADE; CREATE SCHEMA public;`)

	return err
}
