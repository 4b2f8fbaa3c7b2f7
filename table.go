package migrate

import (
	"context"
	"fmt"

	"github.com/burugo/migrate/internal/utils"
)

// TableCategory contributes columns and foreign keys shared by a family of
// tables. Entries the table declares itself replace the category's.
type TableCategory interface {
	DefaultColumns() Columns
	DefaultForeignKeys() ForeignKeys
}

// CreateTable is a step that creates one table with its composite keys,
// unique indexes and foreign keys, and drops it again on Down.
//
// Every name is passed to the runner as a {{%name}} template so the runner's
// table prefix applies: the table is {{%<Table>}}, the composite primary key
// {{%pk-<Table>}}, unique indexes {{%uq-<Table>-<label>}} and, per relation,
// the index {{%idx-<Table>-<relation>}} and constraint {{%fk-<Table>-<relation>}}.
type CreateTable struct {
	// Table is the table name without prefix.
	Table   string
	Columns Columns

	CompositePrimaryKey []string
	CompositeUniqueKeys UniqueKeys
	ForeignKeys         ForeignKeys

	Category TableCategory

	// Options replaces the driver's registered table options when set.
	Options string

	// DefaultOnDelete and DefaultOnUpdate apply to references that do not
	// set their own action. Empty means CASCADE.
	DefaultOnDelete ReferenceOption
	DefaultOnUpdate ReferenceOption
}

// PrefixedTableName returns the table name template.
func (t CreateTable) PrefixedTableName() string {
	return "{{%" + t.Table + "}}"
}

func (t CreateTable) derivedName(kind, suffix string) string {
	name := kind + "-" + t.Table
	if suffix != "" {
		name += "-" + suffix
	}
	return "{{%" + name + "}}"
}

// tablePlan is the validated, merged definition shared by Up and Down.
type tablePlan struct {
	columns     Columns
	foreignKeys []resolvedReference
}

func (t CreateTable) plan() (*tablePlan, error) {
	if t.Table == "" {
		return nil, ErrMissingTableName
	}

	var defaultColumns Columns
	var defaultKeys ForeignKeys
	if t.Category != nil {
		defaultColumns = t.Category.DefaultColumns()
		defaultKeys = t.Category.DefaultForeignKeys()
	}

	cols := utils.NewOrderedMap[ColumnDefinition]()
	for _, c := range t.Columns {
		if !cols.SetIfAbsent(c.Name, c.Definition) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateColumn, c.Name)
		}
	}
	seen := make(map[string]bool, len(defaultColumns))
	for _, c := range defaultColumns {
		if seen[c.Name] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateColumn, c.Name)
		}
		seen[c.Name] = true
		cols.SetIfAbsent(c.Name, c.Definition)
	}
	if cols.Len() == 0 {
		return nil, ErrNoColumns
	}

	p := &tablePlan{}
	err := cols.Each(func(name string, def ColumnDefinition) error {
		if def == nil {
			return fmt.Errorf("%w: %s", ErrMissingDefinition, name)
		}
		p.columns = append(p.columns, Column{Name: name, Definition: def})
		return nil
	})
	if err != nil {
		return nil, err
	}

	keys := utils.NewOrderedMap[Reference]()
	for _, fk := range t.ForeignKeys {
		if !keys.SetIfAbsent(fk.Relation, fk.Reference) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateRelation, fk.Relation)
		}
	}
	seen = make(map[string]bool, len(defaultKeys))
	for _, fk := range defaultKeys {
		if seen[fk.Relation] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateRelation, fk.Relation)
		}
		seen[fk.Relation] = true
		keys.SetIfAbsent(fk.Relation, fk.Reference)
	}

	onDelete, onUpdate := t.DefaultOnDelete, t.DefaultOnUpdate
	if onDelete == "" {
		onDelete = Cascade
	}
	if onUpdate == "" {
		onUpdate = Cascade
	}
	err = keys.Each(func(relation string, ref Reference) error {
		if ref.Table == "" {
			return fmt.Errorf("%w: relation %s", ErrMissingReferenceTable, relation)
		}
		p.foreignKeys = append(p.foreignKeys, ForeignKey{Relation: relation, Reference: ref}.resolve(onDelete, onUpdate))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Validate reports definition errors without touching the database.
func (t CreateTable) Validate() error {
	_, err := t.plan()
	return err
}

// Up creates the table, its composite primary key, its unique indexes and,
// per relation, an index followed by the foreign key.
func (t CreateTable) Up(ctx context.Context, r Runner) error {
	p, err := t.plan()
	if err != nil {
		return err
	}
	table := t.PrefixedTableName()

	options := t.Options
	if options == "" {
		options = TableOptions(r.DriverName())
	}
	if err := r.CreateTable(ctx, table, p.columns, options); err != nil {
		return err
	}

	if len(t.CompositePrimaryKey) > 0 {
		if err := r.AddPrimaryKey(ctx, t.derivedName("pk", ""), table, t.CompositePrimaryKey); err != nil {
			return err
		}
	}

	for _, uq := range t.CompositeUniqueKeys {
		if err := r.CreateIndex(ctx, t.derivedName("uq", uq.Label), table, uq.Columns, true); err != nil {
			return err
		}
	}

	for _, fk := range p.foreignKeys {
		if err := r.CreateIndex(ctx, t.derivedName("idx", fk.relation), table, fk.sourceColumns, false); err != nil {
			return err
		}
		if err := r.AddForeignKey(ctx, t.derivedName("fk", fk.relation), table, fk.sourceColumns,
			"{{%"+fk.table+"}}", fk.columns, fk.onDelete, fk.onUpdate); err != nil {
			return err
		}
	}
	return nil
}

// Down drops every foreign key and its index in declaration order, then the
// table. The composite primary key and unique indexes go with the table.
func (t CreateTable) Down(ctx context.Context, r Runner) error {
	p, err := t.plan()
	if err != nil {
		return err
	}
	table := t.PrefixedTableName()

	for _, fk := range p.foreignKeys {
		if err := r.DropForeignKey(ctx, t.derivedName("fk", fk.relation), table); err != nil {
			return err
		}
		if err := r.DropIndex(ctx, t.derivedName("idx", fk.relation), table); err != nil {
			return err
		}
	}
	return r.DropTable(ctx, table)
}

// Auditable adds created_by/created_at/updated_by/updated_at columns, with
// the *_by columns referencing UserTable(id).
type Auditable struct {
	// UserTable is the referenced table without prefix; "user" when empty.
	UserTable string
}

func (a Auditable) userTable() string {
	if a.UserTable == "" {
		return "user"
	}
	return a.UserTable
}

func (a Auditable) DefaultColumns() Columns {
	return Columns{
		{Name: "created_by", Definition: NormalKey()},
		{Name: "created_at", Definition: DateTime().NotNull()},
		{Name: "updated_by", Definition: NormalKey()},
		{Name: "updated_at", Definition: DateTime().NotNull()},
	}
}

func (a Auditable) DefaultForeignKeys() ForeignKeys {
	return ForeignKeys{
		{Relation: "created_by", Reference: References(a.userTable())},
		{Relation: "updated_by", Reference: References(a.userTable())},
	}
}
