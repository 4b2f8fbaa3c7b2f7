package migrate

// DefaultKeyLength is the display length of key columns.
const DefaultKeyLength = 11

func keyLength(length []int) int {
	if len(length) > 0 && length[0] > 0 {
		return length[0]
	}
	return DefaultKeyLength
}

// NormalKey returns an unsigned, not null integer column, the shape of every
// foreign key column.
func NormalKey(length ...int) *ColumnBuilder {
	return Integer(keyLength(length)).Unsigned().NotNull()
}

// PrimaryKey returns a NormalKey that auto-increments and is the primary key.
func PrimaryKey(length ...int) *ColumnBuilder {
	return NormalKey(length...).AutoIncrement().PrimaryKey()
}

// Activable returns a not null boolean column defaulting to def.
func Activable(def bool) *ColumnBuilder {
	return Boolean().NotNull().DefaultValue(def)
}
