// Package lock builds the migrate.Locker selected by a LockConfig.
package lock

import (
	"fmt"

	"github.com/burugo/migrate"
	"github.com/burugo/migrate/drivers/db/mysql"
	"github.com/burugo/migrate/drivers/db/postgres"
	"github.com/burugo/migrate/drivers/db/sqlserver"
	redislock "github.com/burugo/migrate/drivers/lock/redis"
	"github.com/burugo/migrate/migration"
)

// New returns the locker for cfg.Backend:
//
//	""         no locking (nil locker)
//	local      in-process lock
//	database   the adapter's native lock; SQLite falls back to local
//	redis      SET NX lock on cfg.Redis
func New(cfg migrate.LockConfig, adapter migrate.DBAdapter) (migrate.Locker, error) {
	switch cfg.Backend {
	case "":
		return nil, nil
	case "local":
		return migration.NewLocalLock(), nil
	case "database":
		if adapter == nil {
			return nil, fmt.Errorf("lock backend database: adapter is nil")
		}
		switch adapter.DialectName() {
		case "postgres":
			return postgres.NewPostgresLock(adapter.DB()), nil
		case "mysql":
			return mysql.NewMySQLLock(adapter.DB(), cfg.TTL), nil
		case "sqlserver":
			return sqlserver.NewAppLock(adapter.DB(), cfg.TTL), nil
		case "sqlite":
			// a single-connection database has no session lock to hold
			return migration.NewLocalLock(), nil
		default:
			return nil, fmt.Errorf("%w: no database lock for %s", migrate.ErrUnsupportedDialect, adapter.DialectName())
		}
	case "redis":
		return redislock.NewLock(nil, &redislock.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.TTL,
		}), nil
	default:
		return nil, fmt.Errorf("unknown lock backend %q", cfg.Backend)
	}
}
