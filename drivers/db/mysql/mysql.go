package mysql

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-sql-driver/mysql" // MySQL driver
	"github.com/jmoiron/sqlx"

	"github.com/burugo/migrate"
	"github.com/burugo/migrate/drivers/schema"
	"github.com/burugo/migrate/internal/drivers/db"
)

// MySQLAdapter implements the migrate.DBAdapter interface for MySQL.
type MySQLAdapter struct {
	*db.Adapter
}

var _ migrate.DBAdapter = (*MySQLAdapter)(nil)

// NewMySQLAdapter creates a new MySQL adapter instance. Multi-statement
// execution is enabled so SQL migration files can hold several statements.
func NewMySQLAdapter(dsn string) (*MySQLAdapter, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid mysql dsn: %w", err)
	}
	cfg.MultiStatements = true
	cfg.ParseTime = true

	sqlxDB, err := db.Open("mysql", cfg.FormatDSN(), 25, 10, time.Hour)
	if err != nil {
		return nil, err
	}
	log.Println("MySQL adapter initialized successfully.")
	return &MySQLAdapter{Adapter: db.NewAdapter(sqlxDB, "mysql")}, nil
}

// MySQLLock implements migrate.Locker with GET_LOCK. The lock is bound to
// one session, so a dedicated connection is held until release.
type MySQLLock struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewMySQLLock creates a lock that waits up to timeout for GET_LOCK.
func NewMySQLLock(db *sqlx.DB, timeout time.Duration) *MySQLLock {
	return &MySQLLock{db: db, timeout: timeout}
}

// Acquire obtains the named lock.
func (l *MySQLLock) Acquire(ctx context.Context, key string) (func(), error) {
	conn, err := l.db.Connx(ctx)
	if err != nil {
		return nil, fmt.Errorf("mysql lock connection: %w", err)
	}
	var got int
	if err := conn.GetContext(ctx, &got, "SELECT COALESCE(GET_LOCK(?, ?), 0)", key, int(l.timeout.Seconds())); err != nil {
		conn.Close()
		return nil, fmt.Errorf("GET_LOCK(%s): %w", key, err)
	}
	if got != 1 {
		conn.Close()
		return nil, fmt.Errorf("%w: %s", migrate.ErrLockNotAcquired, key)
	}
	release := func() {
		if _, err := conn.ExecContext(context.Background(), "SELECT RELEASE_LOCK(?)", key); err != nil {
			log.Printf("RELEASE_LOCK(%s) failed: %v", key, err)
		}
		conn.Close()
	}
	return release, nil
}

func init() {
	migrate.RegisterIntrospectorFactory("mysql", func(adapter migrate.DBAdapter) schema.Introspector {
		return &MySQLIntrospector{DB: adapter.DB()}
	})
}
