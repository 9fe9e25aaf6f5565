package sqlfx

import (
	"github.com/jmoiron/sqlx"

	"github.com/yurykabanov/sqljobrunner/internal/configfx"
	"github.com/yurykabanov/sqljobrunner/pkg/query"
)

func PoolExecutor(db *sqlx.DB, pool *configfx.PoolConfig) *query.PoolExecutor {
	return query.NewPoolExecutor(db, pool.ConnectTimeout)
}

func FreshExecutor(config *configfx.DatabaseConfig, pool *configfx.PoolConfig) *query.FreshExecutor {
	return query.NewFreshExecutor(config.Driver, config.ConnectionString, pool.ConnectTimeout)
}
