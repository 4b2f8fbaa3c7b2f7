package migrate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTableOptions(t *testing.T) {
	assert.Equal(t, MySQLTableOptions, TableOptions("mysql"))
	assert.Equal(t, MySQLTableOptions, TableOptions("MySQL"))
	assert.Empty(t, TableOptions("sqlite"))

	RegisterTableOptions("postgres", "TABLESPACE fast")
	defer RegisterTableOptions("postgres", "")
	assert.Equal(t, "TABLESPACE fast", TableOptions("postgres"))

	RegisterTableOptions("postgres", "")
	assert.Empty(t, TableOptions("postgres"))
}

func TestKeys(t *testing.T) {
	cases := []struct {
		def    *ColumnBuilder
		driver string
		want   string
	}{
		{NormalKey(), "mysql", "int(11) UNSIGNED NOT NULL"},
		{NormalKey(20), "mysql", "int(20) UNSIGNED NOT NULL"},
		{PrimaryKey(), "mysql", "int(11) UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY"},
		{PrimaryKey(), "sqlite", "integer NOT NULL PRIMARY KEY AUTOINCREMENT"},
		{Activable(true), "mysql", "tinyint(1) NOT NULL DEFAULT TRUE"},
		{Activable(false), "sqlserver", "bit NOT NULL DEFAULT 0"},
		{Timestamp().DefaultExpression("CURRENT_TIMESTAMP"), "postgres", "timestamp(0) DEFAULT CURRENT_TIMESTAMP"},
		{String(32).Null().DefaultValue("n/a"), "sqlite", "varchar(32) NULL DEFAULT 'n/a'"},
		{Type("jsonb").NotNull(), "postgres", "jsonb NOT NULL"},
	}
	for _, tc := range cases {
		got, err := tc.def.SQL(tc.driver)
		assert.NoError(t, err)
		assert.Equal(t, tc.want, got)
		assert.Equal(t, tc.want, tc.def.Build(tc.driver))
	}

	_, err := NormalKey().SQL("oracle")
	assert.Error(t, err)
	assert.Empty(t, NormalKey().Build("oracle"))
}

func TestColumnsNames(t *testing.T) {
	cols := Columns{{Name: "a", Definition: Text()}, {Name: "b", Definition: Raw("int")}}
	assert.Equal(t, []string{"a", "b"}, cols.Names())
	assert.Equal(t, "int", Raw("int").Build("any"))
}
