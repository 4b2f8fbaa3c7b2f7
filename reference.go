package migrate

// ReferenceOption is a referential action for ON DELETE / ON UPDATE.
type ReferenceOption string

const (
	Cascade    ReferenceOption = "CASCADE"
	SetNull    ReferenceOption = "SET NULL"
	SetDefault ReferenceOption = "SET DEFAULT"
	Restrict   ReferenceOption = "RESTRICT"
	NoAction   ReferenceOption = "NO ACTION"
)

// Reference is the target of a foreign key. Zero fields take defaults:
// Columns is [id], SourceColumns is [relation name] and the actions fall
// back to the table's defaults.
type Reference struct {
	Table         string
	Columns       []string
	SourceColumns []string
	OnDelete      ReferenceOption
	OnUpdate      ReferenceOption
}

// References is the shorthand for a reference to table(id).
func References(table string) Reference {
	return Reference{Table: table}
}

// ForeignKey relates a relation name to its reference. The relation name
// derives the index and constraint names.
type ForeignKey struct {
	Relation  string
	Reference Reference
}

// ForeignKeys is an ordered list of foreign keys.
type ForeignKeys []ForeignKey

// UniqueKey is a composite unique index; Label derives the index name.
type UniqueKey struct {
	Label   string
	Columns []string
}

// UniqueKeys is an ordered list of unique keys.
type UniqueKeys []UniqueKey

// resolvedReference is a reference with every default applied.
type resolvedReference struct {
	relation      string
	table         string
	columns       []string
	sourceColumns []string
	onDelete      ReferenceOption
	onUpdate      ReferenceOption
}

func (fk ForeignKey) resolve(onDelete, onUpdate ReferenceOption) resolvedReference {
	ref := fk.Reference
	r := resolvedReference{
		relation:      fk.Relation,
		table:         ref.Table,
		columns:       ref.Columns,
		sourceColumns: ref.SourceColumns,
		onDelete:      ref.OnDelete,
		onUpdate:      ref.OnUpdate,
	}
	if len(r.columns) == 0 {
		r.columns = []string{"id"}
	}
	if len(r.sourceColumns) == 0 {
		r.sourceColumns = []string{fk.Relation}
	}
	if r.onDelete == "" {
		r.onDelete = onDelete
	}
	if r.onUpdate == "" {
		r.onUpdate = onUpdate
	}
	return r
}
