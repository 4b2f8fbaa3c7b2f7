package postgres

import (
	"context"
	"fmt"
	"hash/fnv"
	"log"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver registered as "pgx"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver registered as "postgres"

	"github.com/burugo/migrate"
	"github.com/burugo/migrate/drivers/schema"
	"github.com/burugo/migrate/internal/drivers/db"
)

// DefaultDriver is the database/sql driver used by NewPostgreSQLAdapter.
const DefaultDriver = "pgx"

// PostgreSQLAdapter implements the migrate.DBAdapter interface for PostgreSQL.
type PostgreSQLAdapter struct {
	*db.Adapter
}

var _ migrate.DBAdapter = (*PostgreSQLAdapter)(nil)

// NewPostgreSQLAdapter creates a new PostgreSQL adapter on the pgx driver.
func NewPostgreSQLAdapter(dsn string) (*PostgreSQLAdapter, error) {
	return NewPostgreSQLAdapterWithDriver(DefaultDriver, dsn)
}

// NewPostgreSQLAdapterWithDriver creates a PostgreSQL adapter on the given
// database/sql driver: "pgx" or "postgres" (lib/pq).
func NewPostgreSQLAdapterWithDriver(driverName, dsn string) (*PostgreSQLAdapter, error) {
	switch driverName {
	case "pgx", "postgres":
	default:
		return nil, fmt.Errorf("%w: postgres driver %q", migrate.ErrUnsupportedDialect, driverName)
	}
	sqlxDB, err := db.Open(driverName, dsn, 25, 10, time.Hour)
	if err != nil {
		return nil, err
	}
	log.Printf("PostgreSQL adapter initialized successfully (driver %s).", driverName)
	return &PostgreSQLAdapter{Adapter: db.NewAdapter(sqlxDB, "postgres")}, nil
}

// PostgresLock implements migrate.Locker using PostgreSQL advisory locks.
// Advisory locks belong to a session, so a dedicated connection is held
// until release.
type PostgresLock struct {
	db *sqlx.DB
}

// NewPostgresLock creates a new PostgresLock.
func NewPostgresLock(db *sqlx.DB) *PostgresLock {
	return &PostgresLock{db: db}
}

// Acquire obtains an advisory lock on the FNV-1a hash of key.
func (l *PostgresLock) Acquire(ctx context.Context, key string) (func(), error) {
	lockID := hashLockKey(key)
	conn, err := l.db.Connx(ctx)
	if err != nil {
		return nil, fmt.Errorf("postgres lock connection: %w", err)
	}
	if _, err := conn.ExecContext(ctx, `SELECT pg_advisory_lock($1)`, lockID); err != nil {
		conn.Close()
		return nil, fmt.Errorf("pg_advisory_lock(%d): %w", lockID, err)
	}
	release := func() {
		if _, err := conn.ExecContext(context.Background(), `SELECT pg_advisory_unlock($1)`, lockID); err != nil {
			log.Printf("pg_advisory_unlock(%d) failed: %v", lockID, err)
		}
		conn.Close()
	}
	return release, nil
}

// hashLockKey produces a stable non-negative int64 from key (FNV-1a).
func hashLockKey(key string) int64 {
	h := fnv.New64a()
	h.Write([]byte(key))
	return int64(h.Sum64() & 0x7FFFFFFFFFFFFFFF)
}

func init() {
	migrate.RegisterIntrospectorFactory("postgres", func(adapter migrate.DBAdapter) schema.Introspector {
		return &PostgreSQLIntrospector{DB: adapter.DB()}
	})
}
