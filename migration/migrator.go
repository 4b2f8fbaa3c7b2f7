package migration

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/burugo/migrate"
	"github.com/burugo/migrate/internal/schema"
)

// Migrator applies registered migrations against a database.
type Migrator struct {
	db            migrate.DBAdapter
	dialect       *schema.Dialect
	prefix        string
	historyTable  string
	transactional bool
	locker        migrate.Locker
	lockKey       string
	migrations    map[int64]Migration
	logEnabled    bool
}

// Option configures a Migrator.
type Option func(*Migrator)

// WithTablePrefix sets the prefix for {{%name}} templates. The history table
// is prefixed too.
func WithTablePrefix(prefix string) Option {
	return func(m *Migrator) { m.prefix = prefix }
}

// WithHistoryTable overrides the history table name (default schema_migrations).
func WithHistoryTable(table string) Option {
	return func(m *Migrator) {
		if table != "" {
			m.historyTable = table
		}
	}
}

// WithTransactional toggles running each migration in its own transaction.
func WithTransactional(enabled bool) Option {
	return func(m *Migrator) { m.transactional = enabled }
}

// WithLocker guards Migrate and Rollback with locker under key.
func WithLocker(locker migrate.Locker, key string) Option {
	return func(m *Migrator) {
		m.locker = locker
		if key != "" {
			m.lockKey = key
		}
	}
}

// WithConfig applies the prefix, history table, transaction and lock key
// settings of cfg. The locker itself is supplied with WithLocker.
func WithConfig(cfg *migrate.Config) Option {
	return func(m *Migrator) {
		if cfg == nil {
			return
		}
		m.prefix = cfg.TablePrefix
		if cfg.HistoryTable != "" {
			m.historyTable = cfg.HistoryTable
		}
		m.transactional = cfg.Transactional
		if cfg.Lock.Key != "" {
			m.lockKey = cfg.Lock.Key
		}
	}
}

// NewMigrator creates a Migrator on db.
func NewMigrator(db migrate.DBAdapter, opts ...Option) (*Migrator, error) {
	d, err := schema.Lookup(db.DialectName())
	if err != nil {
		return nil, fmt.Errorf("%w: %s", migrate.ErrUnsupportedDialect, db.DialectName())
	}
	m := &Migrator{
		db:            db,
		dialect:       d,
		historyTable:  migrate.DefaultHistoryTable,
		transactional: true,
		lockKey:       "migrate",
		migrations:    make(map[int64]Migration),
		logEnabled:    true,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// EnableLog enables/disables logging
func (m *Migrator) EnableLog(enable bool) {
	m.logEnabled = enable
}

func (m *Migrator) logf(format string, args ...interface{}) {
	if m.logEnabled {
		fmt.Printf("[Migrator] "+format+"\n", args...)
	}
}

// Register adds migrations. Versions must be unique.
func (m *Migrator) Register(migrations ...Migration) error {
	for _, mig := range migrations {
		if _, ok := m.migrations[mig.Version]; ok {
			return fmt.Errorf("%w: %d", ErrDuplicateVersion, mig.Version)
		}
		m.migrations[mig.Version] = mig
	}
	return nil
}

// HistoryTable returns the resolved (prefixed) history table name.
func (m *Migrator) HistoryTable() string {
	return m.prefix + m.historyTable
}

// AppliedVersion is a row of the history table.
type AppliedVersion struct {
	Version     string    `db:"version"`
	Description string    `db:"description"`
	AppliedAt   time.Time `db:"applied_at"`
}

// Status describes a registered or applied migration.
type Status struct {
	Version   int64
	Name      string
	Applied   bool
	AppliedAt time.Time
	// Registered is false for versions found only in the history table.
	Registered bool
}

func (m *Migrator) ensureMigrationsTable(ctx context.Context) error {
	table := m.HistoryTable()
	m.logf("Ensuring %s table exists...", table)
	sqlStmt, err := m.dialect.MigrationsTableSQL(table)
	if err != nil {
		return fmt.Errorf("failed to generate migrations table SQL: %w", err)
	}
	if _, err := m.db.Exec(ctx, sqlStmt); err != nil {
		return fmt.Errorf("failed to execute migrations table creation: %w\nSQL: %s", err, sqlStmt)
	}
	return nil
}

func (m *Migrator) appliedVersions(ctx context.Context) (map[int64]AppliedVersion, error) {
	query := fmt.Sprintf("SELECT version, description, applied_at FROM %s", m.dialect.Quote(m.HistoryTable()))
	var rows []AppliedVersion
	if err := m.db.Select(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to query applied versions: %w", err)
	}
	applied := make(map[int64]AppliedVersion, len(rows))
	for _, row := range rows {
		v, err := strconv.ParseInt(row.Version, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid version format '%s' found in %s table: %w", row.Version, m.HistoryTable(), err)
		}
		applied[v] = row
	}
	m.logf("Found %d applied migrations.", len(applied))
	return applied, nil
}

func (m *Migrator) sortedVersions() []int64 {
	versions := make([]int64, 0, len(m.migrations))
	for v := range m.migrations {
		versions = append(versions, v)
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i] < versions[j] })
	return versions
}

func (m *Migrator) lock(ctx context.Context) (func(), error) {
	if m.locker == nil {
		return func() {}, nil
	}
	m.logf("Acquiring lock %q...", m.lockKey)
	return m.locker.Acquire(ctx, m.lockKey)
}

// Migrate applies pending migrations in version order and returns how many
// were applied. A failing migration is rolled back (when transactional) and
// stops the run.
func (m *Migrator) Migrate(ctx context.Context) (int, error) {
	m.logf("Starting migration process...")
	release, err := m.lock(ctx)
	if err != nil {
		return 0, err
	}
	defer release()

	if err := m.ensureMigrationsTable(ctx); err != nil {
		return 0, err
	}
	applied, err := m.appliedVersions(ctx)
	if err != nil {
		return 0, err
	}

	var pending []Migration
	for _, v := range m.sortedVersions() {
		if _, ok := applied[v]; !ok {
			pending = append(pending, m.migrations[v])
		}
	}
	if len(pending) == 0 {
		m.logf("No pending migrations to apply.")
		return 0, nil
	}
	m.logf("Found %d pending migrations to apply.", len(pending))

	for i, mig := range pending {
		m.logf("Applying migration %d: %s...", mig.Version, mig.Name)
		err := m.run(ctx, mig, func(ctx context.Context, r migrate.Runner, exec migrate.Execer) error {
			for _, step := range mig.Steps {
				if err := step.Up(ctx, r); err != nil {
					return err
				}
			}
			return m.recordAppliedVersion(ctx, exec, mig)
		})
		if err != nil {
			return i, fmt.Errorf("failed to apply migration %d (%s): %w", mig.Version, mig.Name, err)
		}
		m.logf("Successfully applied migration %d: %s", mig.Version, mig.Name)
	}
	m.logf("Migration process completed successfully.")
	return len(pending), nil
}

// Rollback reverts the last n applied migrations, newest first. n < 1 means 1.
// It returns how many were reverted.
func (m *Migrator) Rollback(ctx context.Context, n int) (int, error) {
	if n < 1 {
		n = 1
	}
	m.logf("Starting rollback of %d migration(s)...", n)
	release, err := m.lock(ctx)
	if err != nil {
		return 0, err
	}
	defer release()

	if err := m.ensureMigrationsTable(ctx); err != nil {
		return 0, err
	}
	applied, err := m.appliedVersions(ctx)
	if err != nil {
		return 0, err
	}
	versions := make([]int64, 0, len(applied))
	for v := range applied {
		versions = append(versions, v)
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i] > versions[j] })
	if len(versions) > n {
		versions = versions[:n]
	}

	for i, v := range versions {
		mig, ok := m.migrations[v]
		if !ok {
			return i, fmt.Errorf("%w: %d", ErrUnknownVersion, v)
		}
		m.logf("Reverting migration %d: %s...", mig.Version, mig.Name)
		err := m.run(ctx, mig, func(ctx context.Context, r migrate.Runner, exec migrate.Execer) error {
			for j := len(mig.Steps) - 1; j >= 0; j-- {
				if err := mig.Steps[j].Down(ctx, r); err != nil {
					return err
				}
			}
			return m.removeAppliedVersion(ctx, exec, mig.Version)
		})
		if err != nil {
			return i, fmt.Errorf("failed to revert migration %d (%s): %w", mig.Version, mig.Name, err)
		}
		m.logf("Successfully reverted migration %d: %s", mig.Version, mig.Name)
	}
	return len(versions), nil
}

// Status lists registered and applied migrations in version order.
func (m *Migrator) Status(ctx context.Context) ([]Status, error) {
	if err := m.ensureMigrationsTable(ctx); err != nil {
		return nil, err
	}
	applied, err := m.appliedVersions(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[int64]bool, len(m.migrations)+len(applied))
	var statuses []Status
	for v, mig := range m.migrations {
		row, ok := applied[v]
		statuses = append(statuses, Status{
			Version:    v,
			Name:       mig.Name,
			Applied:    ok,
			AppliedAt:  row.AppliedAt,
			Registered: true,
		})
		seen[v] = true
	}
	for v, row := range applied {
		if seen[v] {
			continue
		}
		statuses = append(statuses, Status{
			Version:   v,
			Name:      row.Description,
			Applied:   true,
			AppliedAt: row.AppliedAt,
		})
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].Version < statuses[j].Version })
	return statuses, nil
}

// run executes fn inside a transaction when enabled. If the transaction
// cannot be started fn runs directly on the database.
func (m *Migrator) run(ctx context.Context, mig Migration, fn func(context.Context, migrate.Runner, migrate.Execer) error) error {
	var tx migrate.Tx
	if m.transactional {
		var err error
		tx, err = m.db.BeginTx(ctx, nil)
		if err != nil {
			m.logf("Warning: Could not start transaction (%v), running migration %d without transaction.", err, mig.Version)
			tx = nil
		}
	}

	var exec migrate.Execer = m.db
	if tx != nil {
		exec = tx
	}
	runner, err := migrate.NewSQLRunner(exec, m.dialect.Name, migrate.WithTablePrefix(m.prefix))
	if err != nil {
		if tx != nil {
			tx.Rollback()
		}
		return err
	}

	if err := fn(ctx, runner, exec); err != nil {
		if tx != nil {
			m.logf("Migration %d failed, rolling back transaction...", mig.Version)
			if rbErr := tx.Rollback(); rbErr != nil {
				return fmt.Errorf("%w; additionally, rollback failed: %v", err, rbErr)
			}
		}
		return err
	}
	if tx != nil {
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration transaction: %w", err)
		}
	}
	return nil
}

func (m *Migrator) recordAppliedVersion(ctx context.Context, exec migrate.Execer, mig Migration) error {
	query := fmt.Sprintf("INSERT INTO %s (version, description, applied_at) VALUES (?, ?, ?)", m.dialect.Quote(m.HistoryTable()))
	_, err := exec.Exec(ctx, query, strconv.FormatInt(mig.Version, 10), mig.Name, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to record applied version %d: %w", mig.Version, err)
	}
	return nil
}

func (m *Migrator) removeAppliedVersion(ctx context.Context, exec migrate.Execer, version int64) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE version = ?", m.dialect.Quote(m.HistoryTable()))
	if _, err := exec.Exec(ctx, query, strconv.FormatInt(version, 10)); err != nil {
		return fmt.Errorf("failed to remove applied version %d: %w", version, err)
	}
	return nil
}
