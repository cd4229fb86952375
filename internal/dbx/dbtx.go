// Package dbx holds the small database helpers shared by repositories: the
// DBTX handle satisfied by both *sql.DB and *sql.Tx, a transaction runner,
// and translation of Postgres constraint violations.
package dbx

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/roleplay/internal/common"
	"github.com/jackc/pgx/v5/pgconn"
)

// pgUniqueViolation is the SQLSTATE Postgres reports for unique constraint failures.
const pgUniqueViolation = "23505"

// DBTX is the subset of database/sql used by repositories.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx runs fn inside a transaction. The transaction is committed when fn
// returns nil and rolled back when fn returns an error or panics; panics are
// re-raised after the rollback.
//
//	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
//	    if err := groups.Create(ctx, g); err != nil {
//	        return err
//	    }
//	    return groups.AddPlayer(ctx, g.ID, g.MasterID)
//	})
func WithTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	err = fn(ctx, tx)
	return err
}

// UniqueViolation reports whether err is a Postgres unique constraint
// violation and, if so, the name of the violated constraint.
func UniqueViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return pgErr.ConstraintName, true
	}
	return "", false
}

// MapError converts a driver error into the repository error vocabulary:
// sql.ErrNoRows becomes common.ErrorNotFound, a unique violation becomes
// common.ErrorConflict carrying the constraint name, and anything else is
// wrapped as a db error. A nil err stays nil.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return common.ErrorNotFound
	}
	if constraint, ok := UniqueViolation(err); ok {
		return fmt.Errorf("%w: %s", common.ErrorConflict, constraint)
	}
	return fmt.Errorf("db error: %w", err)
}
