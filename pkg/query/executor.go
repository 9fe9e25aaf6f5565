package query

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

const CurrentTimestampQuery = "SELECT CURRENT_TIMESTAMP"

// Executor runs a query that yields a single scalar value.
type Executor interface {
	Scalar(ctx context.Context, query string) (interface{}, error)
}

// FreshExecutor opens a new database handle for every call and closes it
// afterwards; nothing is reused between calls.
type FreshExecutor struct {
	driver         string
	dsn            string
	connectTimeout time.Duration
}

func NewFreshExecutor(driver, dsn string, connectTimeout time.Duration) *FreshExecutor {
	return &FreshExecutor{
		driver:         driver,
		dsn:            dsn,
		connectTimeout: connectTimeout,
	}
}

func (e *FreshExecutor) Scalar(ctx context.Context, query string) (interface{}, error) {
	db, err := sqlx.Open(e.driver, e.dsn)
	if err != nil {
		return nil, errors.Wrap(err, "Unable to open connection")
	}
	defer db.Close()

	db.SetMaxOpenConns(1)

	return scalar(ctx, db, e.connectTimeout, query)
}

// PoolExecutor runs every call on a connection borrowed from a shared pool.
type PoolExecutor struct {
	db             *sqlx.DB
	connectTimeout time.Duration
}

func NewPoolExecutor(db *sqlx.DB, connectTimeout time.Duration) *PoolExecutor {
	return &PoolExecutor{
		db:             db,
		connectTimeout: connectTimeout,
	}
}

func (e *PoolExecutor) Scalar(ctx context.Context, query string) (interface{}, error) {
	return scalar(ctx, e.db, e.connectTimeout, query)
}

func scalar(ctx context.Context, db *sqlx.DB, connectTimeout time.Duration, query string) (interface{}, error) {
	connCtx := ctx
	if connectTimeout > 0 {
		var cancel context.CancelFunc
		connCtx, cancel = context.WithTimeout(ctx, connectTimeout)
		defer cancel()
	}

	conn, err := db.Connx(connCtx)
	if err != nil {
		return nil, errors.Wrap(err, "Unable to open connection")
	}
	defer conn.Close()

	var value interface{}

	err = conn.QueryRowxContext(ctx, query).Scan(&value)
	if err != nil {
		return nil, errors.Wrap(err, "Unable to execute query")
	}

	if b, ok := value.([]byte); ok {
		return string(b), nil
	}

	return value, nil
}

// Format renders a scalar for logs and JSON responses.
func Format(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case time.Time:
		return v.UTC().Format(time.RFC3339Nano)
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}
