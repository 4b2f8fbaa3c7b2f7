package migrate

import "errors"

// Definition errors, returned before any schema operation is issued.
var (
	ErrMissingTableName      = errors.New("migrate: table name is empty")
	ErrNoColumns             = errors.New("migrate: table has no columns")
	ErrDuplicateColumn       = errors.New("migrate: duplicate column name")
	ErrMissingDefinition     = errors.New("migrate: column has no definition")
	ErrDuplicateRelation     = errors.New("migrate: duplicate foreign key relation")
	ErrMissingReferenceTable = errors.New("migrate: foreign key reference has no table")
	ErrMissingViewName       = errors.New("migrate: view name is empty")
	ErrMissingViewQuery      = errors.New("migrate: view has no query")
	ErrUnsupportedDialect    = errors.New("migrate: unsupported dialect")
)

// Runtime errors.
var (
	ErrNotFound        = errors.New("migrate: requested item not found")
	ErrLockNotAcquired = errors.New("migrate: could not acquire lock")
	ErrAdapterClosed   = errors.New("migrate: adapter is closed")
)
