package sqlfx

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.uber.org/fx"

	"github.com/yurykabanov/sqljobrunner/internal/configfx"

	_ "github.com/jackc/pgx/v4/stdlib"
	_ "github.com/mattn/go-sqlite3"
	_ "github.com/microsoft/go-mssqldb"
)

// OpenDatabase prepares the shared pool. No connection is made here: a
// database that is down must not prevent the runner from starting.
func OpenDatabase(config *configfx.DatabaseConfig, pool *configfx.PoolConfig, logger *logrus.Logger) (*sqlx.DB, error) {
	logger.WithField("driver", config.Driver).Debug("Opening DB pool")

	db, err := sqlx.Open(config.Driver, config.ConnectionString)
	if err != nil {
		return nil, errors.Wrap(err, "Unable to open DB pool")
	}

	db.SetMaxOpenConns(pool.MaxSize)
	db.SetMaxIdleConns(pool.MaxSize)

	return db, nil
}

// WarmUp opens pool.MinSize connections and returns them to the idle set.
func WarmUp(ctx context.Context, db *sqlx.DB, pool *configfx.PoolConfig) error {
	if pool.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, pool.ConnectTimeout)
		defer cancel()
	}

	conns := make([]*sqlx.Conn, 0, pool.MinSize)
	defer func() {
		for _, c := range conns {
			_ = c.Close()
		}
	}()

	for i := 0; i < pool.MinSize; i++ {
		c, err := db.Connx(ctx)
		if err != nil {
			return errors.Wrapf(err, "Unable to open connection %d of %d", i+1, pool.MinSize)
		}
		conns = append(conns, c)
	}

	return nil
}

func ManageDatabase(lc fx.Lifecycle, db *sqlx.DB, pool *configfx.PoolConfig, logger *logrus.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := WarmUp(context.Background(), db, pool); err != nil {
					logger.WithError(err).Warn("Unable to warm up DB pool")
					return
				}
				logger.WithField("connections", pool.MinSize).Debug("DB pool warmed up")
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return db.Close()
		},
	})
}
