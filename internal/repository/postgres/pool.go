// Package postgres holds the PostgreSQL-backed repository implementations.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxPool is the slice of pool behavior the repositories depend on. Both
// *pgxpool.Pool and pgxmock.PgxPoolIface satisfy it, which is what lets the
// repository tests run without a database.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	Close()
}

// DB is the handle the repository constructors take.
type DB struct{ Pool PgxPool }

// New opens a connection pool for the DSN.
func New(ctx context.Context, dsn string) (*DB, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &DB{Pool: pool}, nil
}

func (db *DB) Close() { db.Pool.Close() }

// pgErrCode extracts the SQLSTATE code, or "" for non-postgres errors.
func pgErrCode(err error) string {
	var pg *pgconn.PgError
	if errors.As(err, &pg) {
		return pg.Code
	}
	return ""
}

// unique_violation: insert hit an existing key (duplicate email, replayed
// session id).
func isUniqueViolation(err error) bool { return pgErrCode(err) == "23505" }

// foreign_key_violation: delete blocked by referencing rows (category with
// products).
func isForeignKeyViolation(err error) bool { return pgErrCode(err) == "23503" }
