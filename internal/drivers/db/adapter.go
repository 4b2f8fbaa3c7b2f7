// Package db holds the sqlx-backed adapter shared by the database drivers.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/burugo/migrate"
)

// Adapter implements migrate.DBAdapter over a *sqlx.DB. Queries are written
// with ? placeholders and rebound to the driver's bind style.
type Adapter struct {
	db      *sqlx.DB
	dialect string
	closeMx sync.Mutex
	closed  bool
}

// Compile-time checks to ensure interfaces are implemented.
var (
	_ migrate.DBAdapter = (*Adapter)(nil)
	_ migrate.Tx        = (*Tx)(nil)
)

// NewAdapter wraps db; dialect is the name reported by DialectName.
func NewAdapter(db *sqlx.DB, dialect string) *Adapter {
	return &Adapter{db: db, dialect: dialect}
}

// Open connects with sqlx, applies the pool settings and pings the database.
func Open(driverName, dsn string, maxOpen, maxIdle int, maxLifetime time.Duration) (*sqlx.DB, error) {
	db, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s connection: %w", driverName, err)
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(maxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", driverName, err)
	}
	return db, nil
}

func rebind(db interface{ Rebind(string) string }, query string, args []interface{}) string {
	if len(args) == 0 {
		return query
	}
	return db.Rebind(query)
}

// Get retrieves a single row and scans it into dest.
func (a *Adapter) Get(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	if a.isClosed() {
		return migrate.ErrAdapterClosed
	}
	query = rebind(a.db, query, args)
	start := time.Now()
	err := a.db.GetContext(ctx, dest, query, args...)
	duration := time.Since(start)
	if errors.Is(err, sql.ErrNoRows) {
		log.Printf("DB Get (No Rows): %s [%v] (%s)", query, args, duration)
		return migrate.ErrNotFound
	}
	if err != nil {
		log.Printf("DB Get Error: %s [%v] (%s) - %v", query, args, duration, err)
		return fmt.Errorf("%s Get error: %w", a.dialect, err)
	}
	log.Printf("DB Get: %s [%v] (%s)", query, args, duration)
	return nil
}

// Select executes a query and scans the rows into the slice dest points to.
func (a *Adapter) Select(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	if a.isClosed() {
		return migrate.ErrAdapterClosed
	}
	query = rebind(a.db, query, args)
	start := time.Now()
	err := a.db.SelectContext(ctx, dest, query, args...)
	duration := time.Since(start)
	if err != nil {
		log.Printf("DB Select Error: %s [%v] (%s) - %v", query, args, duration, err)
		return fmt.Errorf("%s Select error: %w", a.dialect, err)
	}
	log.Printf("DB Select: %s [%v] (%s)", query, args, duration)
	return nil
}

// Exec executes a statement that returns no rows.
func (a *Adapter) Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	if a.isClosed() {
		return nil, migrate.ErrAdapterClosed
	}
	query = rebind(a.db, query, args)
	start := time.Now()
	result, err := a.db.ExecContext(ctx, query, args...)
	duration := time.Since(start)
	if err != nil {
		log.Printf("DB Exec Error: %s [%v] (%s) - %v", query, args, duration, err)
		return nil, fmt.Errorf("%s Exec error: %w", a.dialect, err)
	}
	log.Printf("DB Exec: %s [%v] (%s)", query, args, duration)
	return result, nil
}

// BeginTx starts a new database transaction.
func (a *Adapter) BeginTx(ctx context.Context, opts *sql.TxOptions) (migrate.Tx, error) {
	if a.isClosed() {
		return nil, migrate.ErrAdapterClosed
	}
	tx, err := a.db.BeginTxx(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to begin %s transaction: %w", a.dialect, err)
	}
	log.Println("DB Transaction Started")
	return &Tx{tx: tx, dialect: a.dialect}, nil
}

// Close closes the connection pool. Closing twice is a no-op.
func (a *Adapter) Close() error {
	a.closeMx.Lock()
	defer a.closeMx.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true
	log.Printf("%s adapter closed.", a.dialect)
	return a.db.Close()
}

func (a *Adapter) isClosed() bool {
	a.closeMx.Lock()
	defer a.closeMx.Unlock()
	return a.closed
}

// DB returns the underlying *sqlx.DB for advanced use cases.
func (a *Adapter) DB() *sqlx.DB { return a.db }

func (a *Adapter) DialectName() string { return a.dialect }

// Tx wraps a *sqlx.Tx to implement migrate.Tx.
type Tx struct {
	tx      *sqlx.Tx
	dialect string
}

func (t *Tx) Get(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	query = rebind(t.tx, query, args)
	err := t.tx.GetContext(ctx, dest, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		log.Printf("DB Tx Get (No Rows): %s [%v]", query, args)
		return migrate.ErrNotFound
	}
	if err != nil {
		log.Printf("DB Tx Get Error: %s [%v] - %v", query, args, err)
		return fmt.Errorf("%s Tx Get error: %w", t.dialect, err)
	}
	log.Printf("DB Tx Get: %s [%v]", query, args)
	return nil
}

func (t *Tx) Select(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	query = rebind(t.tx, query, args)
	if err := t.tx.SelectContext(ctx, dest, query, args...); err != nil {
		log.Printf("DB Tx Select Error: %s [%v] - %v", query, args, err)
		return fmt.Errorf("%s Tx Select error: %w", t.dialect, err)
	}
	log.Printf("DB Tx Select: %s [%v]", query, args)
	return nil
}

func (t *Tx) Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	query = rebind(t.tx, query, args)
	start := time.Now()
	result, err := t.tx.ExecContext(ctx, query, args...)
	duration := time.Since(start)
	if err != nil {
		log.Printf("DB Tx Exec Error: %s [%v] (%s) - %v", query, args, duration, err)
		return nil, fmt.Errorf("%s Tx Exec error: %w", t.dialect, err)
	}
	log.Printf("DB Tx Exec: %s [%v] (%s)", query, args, duration)
	return result, nil
}

// Commit commits the transaction.
func (t *Tx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		log.Printf("DB Transaction Commit Error: %v", err)
		return fmt.Errorf("%s commit error: %w", t.dialect, err)
	}
	log.Println("DB Transaction Committed")
	return nil
}

// Rollback rolls back the transaction.
func (t *Tx) Rollback() error {
	err := t.tx.Rollback()
	if err != nil {
		// It's conventional not to wrap sql.ErrTxDone
		if errors.Is(err, sql.ErrTxDone) {
			log.Printf("DB Transaction Rollback Warning: %v", err)
			return err
		}
		log.Printf("DB Transaction Rollback Error: %v", err)
		return fmt.Errorf("%s rollback error: %w", t.dialect, err)
	}
	log.Println("DB Transaction Rolled Back")
	return nil
}
