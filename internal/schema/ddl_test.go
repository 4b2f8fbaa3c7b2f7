package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDialect(t *testing.T, driver string) *Dialect {
	t.Helper()
	d, err := Lookup(driver)
	require.NoError(t, err)
	return d
}

func TestLookup(t *testing.T) {
	for driver, name := range map[string]string{
		"mysql":      "mysql",
		"MySQL":      "mysql",
		"pgx":        "postgres",
		"postgresql": "postgres",
		"sqlite3":    "sqlite",
		"mssql":      "sqlserver",
	} {
		d, err := Lookup(driver)
		require.NoError(t, err, driver)
		assert.Equal(t, name, d.Name)
	}

	_, err := Lookup("oracle")
	assert.EqualError(t, err, "unsupported dialect: oracle")
	assert.Contains(t, Names(), "sqlite3")
}

func TestQuote(t *testing.T) {
	mysql := mustDialect(t, "mysql")
	assert.Equal(t, "`user`", mysql.Quote("user"))
	assert.Equal(t, "`db`.`user`", mysql.Quote("db.user"))
	assert.Equal(t, "`user`", mysql.Quote("`user`"))
	assert.Equal(t, "`a``b`", mysql.Quote("a`b"))
	assert.Equal(t, "`t`.*", mysql.Quote("t.*"))

	mssql := mustDialect(t, "sqlserver")
	assert.Equal(t, "[idx-user-role]", mssql.Quote("idx-user-role"))
	assert.Equal(t, `"a", "b"`, mustDialect(t, "postgres").QuoteList([]string{"a", "b"}))
}

func TestColumnSQL(t *testing.T) {
	key := ColumnSpec{Kind: KindInteger, Sizes: []int{11}, Unsigned: true, NotNull: true}
	pk := key
	pk.AutoIncrement = true
	pk.PrimaryKey = true

	cases := []struct {
		driver string
		spec   ColumnSpec
		want   string
	}{
		{"mysql", key, "int(11) UNSIGNED NOT NULL"},
		{"mysql", pk, "int(11) UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY"},
		{"postgres", key, "integer NOT NULL"},
		{"postgres", pk, "serial NOT NULL PRIMARY KEY"},
		{"sqlite", pk, "integer NOT NULL PRIMARY KEY AUTOINCREMENT"},
		{"sqlserver", pk, "int NOT NULL IDENTITY PRIMARY KEY"},
		{"mysql", ColumnSpec{Kind: KindBoolean, NotNull: true, HasDefault: true, Default: true}, "tinyint(1) NOT NULL DEFAULT TRUE"},
		{"sqlserver", ColumnSpec{Kind: KindBoolean, NotNull: true, HasDefault: true, Default: false}, "bit NOT NULL DEFAULT 0"},
		{"postgres", ColumnSpec{Kind: KindString, Null: true, HasDefault: true, Default: "o'k"}, "varchar(255) NULL DEFAULT 'o''k'"},
		{"mysql", ColumnSpec{Kind: KindDecimal, Sizes: []int{8}}, "decimal(8,0)"},
		{"sqlite", ColumnSpec{Kind: KindTimestamp, HasDefault: true, Default: Expression("CURRENT_TIMESTAMP")}, "timestamp DEFAULT CURRENT_TIMESTAMP"},
		{"mysql", ColumnSpec{Kind: "json", Append: "COMMENT 'x'"}, "json COMMENT 'x'"},
	}
	for _, tc := range cases {
		got, err := mustDialect(t, tc.driver).ColumnSQL(tc.spec)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, tc.driver)
	}

	_, err := mustDialect(t, "mysql").ColumnSQL(ColumnSpec{Kind: KindText, HasDefault: true, Default: struct{}{}})
	assert.Error(t, err)
}

func TestCreateTableSQL(t *testing.T) {
	d := mustDialect(t, "mysql")
	got := d.CreateTableSQL("user_role", []ColumnDDL{
		{Name: "user_id", Definition: "int(11) UNSIGNED NOT NULL"},
		{Name: "role_id", Definition: "int(11) UNSIGNED NOT NULL"},
	}, "ENGINE=InnoDB")
	assert.Equal(t, "CREATE TABLE `user_role` (\n\t`user_id` int(11) UNSIGNED NOT NULL,\n\t`role_id` int(11) UNSIGNED NOT NULL\n) ENGINE=InnoDB", got)
	assert.Equal(t, "DROP TABLE `user_role`", d.DropTableSQL("user_role"))
}

func TestConstraintSQL(t *testing.T) {
	mysql := mustDialect(t, "mysql")
	pg := mustDialect(t, "postgres")
	sqlite := mustDialect(t, "sqlite")

	assert.Equal(t, "ALTER TABLE `user_role` ADD CONSTRAINT `pk-user_role` PRIMARY KEY (`user_id`, `role_id`)",
		mysql.AddPrimaryKeySQL("pk-user_role", "user_role", []string{"user_id", "role_id"}))
	assert.Equal(t, "ALTER TABLE `user_role` DROP PRIMARY KEY", mysql.DropPrimaryKeySQL("pk-user_role", "user_role"))
	assert.Equal(t, `ALTER TABLE "user_role" DROP CONSTRAINT "pk-user_role"`, pg.DropPrimaryKeySQL("pk-user_role", "user_role"))

	assert.Equal(t, "CREATE UNIQUE INDEX `uq-user-email` ON `user` (`email`)",
		mysql.CreateIndexSQL("uq-user-email", "user", []string{"email"}, true))
	assert.Equal(t, "DROP INDEX `idx-user-role` ON `user`", mysql.DropIndexSQL("idx-user-role", "user"))
	assert.Equal(t, `DROP INDEX "idx-user-role"`, sqlite.DropIndexSQL("idx-user-role", "user"))

	assert.Equal(t, "ALTER TABLE `post` ADD CONSTRAINT `fk-post-author` FOREIGN KEY (`author_id`) REFERENCES `user` (`id`) ON DELETE CASCADE ON UPDATE RESTRICT",
		mysql.AddForeignKeySQL("fk-post-author", "post", []string{"author_id"}, "user", []string{"id"}, "CASCADE", "RESTRICT"))
	assert.Equal(t, "ALTER TABLE `post` DROP FOREIGN KEY `fk-post-author`", mysql.DropForeignKeySQL("fk-post-author", "post"))
	assert.Equal(t, `ALTER TABLE "post" DROP CONSTRAINT "fk-post-author"`, pg.DropForeignKeySQL("fk-post-author", "post"))
	assert.Equal(t, `CONSTRAINT "fk" FOREIGN KEY ("a") REFERENCES "b" ("id")`,
		pg.ForeignKeyClause("fk", []string{"a"}, "b", []string{"id"}, "", ""))
}

func TestGenerateMigrationsTableSQL(t *testing.T) {
	got, err := GenerateMigrationsTableSQL("sqlite", "schema_migrations")
	require.NoError(t, err)
	assert.Contains(t, got, `CREATE TABLE IF NOT EXISTS "schema_migrations"`)

	got, err = GenerateMigrationsTableSQL("sqlserver", "history")
	require.NoError(t, err)
	assert.Contains(t, got, "OBJECT_ID(N'[history]', N'U')")
	assert.Contains(t, got, "CREATE TABLE [history]")

	_, err = GenerateMigrationsTableSQL("oracle", "x")
	assert.Error(t, err)
}

func TestRebind(t *testing.T) {
	pg := mustDialect(t, "postgres")
	assert.Equal(t, "SELECT * FROM t WHERE a = $1 AND b = '?' AND c = $2", pg.Rebind("SELECT * FROM t WHERE a = ? AND b = '?' AND c = ?"))
	assert.Equal(t, "a = @p1", mustDialect(t, "sqlserver").Rebind("a = ?"))
	assert.Equal(t, "a = ?", mustDialect(t, "mysql").Rebind("a = ?"))
}
