package migrate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	mysqlKey = "int(11) UNSIGNED NOT NULL"
	mysqlPK  = "int(11) UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY"
)

func userRoleTable() CreateTable {
	return CreateTable{
		Table: "user_role",
		Columns: Columns{
			{Name: "user", Definition: NormalKey()},
			{Name: "role", Definition: NormalKey()},
		},
		CompositePrimaryKey: []string{"user", "role"},
		ForeignKeys: ForeignKeys{
			{Relation: "user", Reference: References("user")},
			{Relation: "role", Reference: References("role")},
		},
	}
}

func TestCreateTable_UpOrder(t *testing.T) {
	r := newRecordingRunner("mysql")
	require.NoError(t, userRoleTable().Up(context.Background(), r))

	assert.Equal(t, []string{
		"CreateTable {{%user_role}} (user " + mysqlKey + ", role " + mysqlKey + ") " + MySQLTableOptions,
		"AddPrimaryKey {{%pk-user_role}} {{%user_role}} [user role]",
		"CreateIndex {{%idx-user_role-user}} {{%user_role}} [user]",
		"AddForeignKey {{%fk-user_role-user}} {{%user_role}} [user] -> {{%user}} [id] ON DELETE CASCADE ON UPDATE CASCADE",
		"CreateIndex {{%idx-user_role-role}} {{%user_role}} [role]",
		"AddForeignKey {{%fk-user_role-role}} {{%user_role}} [role] -> {{%role}} [id] ON DELETE CASCADE ON UPDATE CASCADE",
	}, r.ops)
}

func TestCreateTable_DownOrder(t *testing.T) {
	r := newRecordingRunner("mysql")
	require.NoError(t, userRoleTable().Down(context.Background(), r))

	assert.Equal(t, []string{
		"DropForeignKey {{%fk-user_role-user}} {{%user_role}}",
		"DropIndex {{%idx-user_role-user}} {{%user_role}}",
		"DropForeignKey {{%fk-user_role-role}} {{%user_role}}",
		"DropIndex {{%idx-user_role-role}} {{%user_role}}",
		"DropTable {{%user_role}}",
	}, r.ops)
}

func TestCreateTable_UniqueKeys(t *testing.T) {
	table := CreateTable{
		Table: "user",
		Columns: Columns{
			{Name: "id", Definition: PrimaryKey()},
			{Name: "tenant", Definition: NormalKey()},
			{Name: "email", Definition: String(128).NotNull()},
		},
		CompositeUniqueKeys: UniqueKeys{
			{Label: "tenant-email", Columns: []string{"tenant", "email"}},
			{Label: "email", Columns: []string{"email"}},
		},
	}
	r := newRecordingRunner("sqlite")
	require.NoError(t, table.Up(context.Background(), r))

	assert.Equal(t, []string{
		"CreateTable {{%user}} (id integer NOT NULL PRIMARY KEY AUTOINCREMENT, tenant integer NOT NULL, email varchar(128) NOT NULL)",
		"CreateUniqueIndex {{%uq-user-tenant-email}} {{%user}} [tenant email]",
		"CreateUniqueIndex {{%uq-user-email}} {{%user}} [email]",
	}, r.ops)

	r = newRecordingRunner("sqlite")
	require.NoError(t, table.Down(context.Background(), r))
	assert.Equal(t, []string{"DropTable {{%user}}"}, r.ops)
}

func TestCreateTable_StructuredReference(t *testing.T) {
	table := CreateTable{
		Table: "post",
		Columns: Columns{
			{Name: "id", Definition: PrimaryKey()},
			{Name: "author_id", Definition: NormalKey()},
			{Name: "editor", Definition: Integer().Unsigned().Null()},
		},
		ForeignKeys: ForeignKeys{
			{Relation: "author", Reference: Reference{
				Table:         "account",
				Columns:       []string{"uid"},
				SourceColumns: []string{"author_id"},
				OnDelete:      Restrict,
			}},
			{Relation: "editor", Reference: References("account")},
		},
		DefaultOnDelete: SetNull,
		DefaultOnUpdate: NoAction,
	}
	r := newRecordingRunner("mysql")
	require.NoError(t, table.Up(context.Background(), r))

	assert.Equal(t, []string{
		"CreateIndex {{%idx-post-author}} {{%post}} [author_id]",
		"AddForeignKey {{%fk-post-author}} {{%post}} [author_id] -> {{%account}} [uid] ON DELETE RESTRICT ON UPDATE NO ACTION",
		"CreateIndex {{%idx-post-editor}} {{%post}} [editor]",
		"AddForeignKey {{%fk-post-editor}} {{%post}} [editor] -> {{%account}} [id] ON DELETE SET NULL ON UPDATE NO ACTION",
	}, r.ops[1:])
}

type testCategory struct {
	columns Columns
	keys    ForeignKeys
}

func (c testCategory) DefaultColumns() Columns         { return c.columns }
func (c testCategory) DefaultForeignKeys() ForeignKeys { return c.keys }

func TestCreateTable_AuthorWinsOverCategory(t *testing.T) {
	table := CreateTable{
		Table: "article",
		Columns: Columns{
			{Name: "id", Definition: PrimaryKey()},
			{Name: "status", Definition: String(16).NotNull()},
		},
		ForeignKeys: ForeignKeys{
			{Relation: "owner", Reference: References("member")},
		},
		Category: testCategory{
			columns: Columns{
				{Name: "status", Definition: Integer()},
				{Name: "created_at", Definition: DateTime().NotNull()},
			},
			keys: ForeignKeys{
				{Relation: "owner", Reference: References("user")},
				{Relation: "site", Reference: References("site")},
			},
		},
	}
	r := newRecordingRunner("mysql")
	require.NoError(t, table.Up(context.Background(), r))

	assert.Equal(t, []string{
		"CreateTable {{%article}} (id " + mysqlPK + ", status varchar(16) NOT NULL, created_at datetime NOT NULL) " + MySQLTableOptions,
		"CreateIndex {{%idx-article-owner}} {{%article}} [owner]",
		"AddForeignKey {{%fk-article-owner}} {{%article}} [owner] -> {{%member}} [id] ON DELETE CASCADE ON UPDATE CASCADE",
		"CreateIndex {{%idx-article-site}} {{%article}} [site]",
		"AddForeignKey {{%fk-article-site}} {{%article}} [site] -> {{%site}} [id] ON DELETE CASCADE ON UPDATE CASCADE",
	}, r.ops)
}

func TestCreateTable_Auditable(t *testing.T) {
	table := CreateTable{
		Table: "invoice",
		Columns: Columns{
			{Name: "id", Definition: PrimaryKey()},
			{Name: "amount", Definition: Decimal(10, 2).NotNull()},
		},
		Category: Auditable{UserTable: "account"},
	}
	r := newRecordingRunner("mysql")
	require.NoError(t, table.Up(context.Background(), r))

	assert.Equal(t, "CreateTable {{%invoice}} (id "+mysqlPK+", amount decimal(10,2) NOT NULL, created_by "+mysqlKey+
		", created_at datetime NOT NULL, updated_by "+mysqlKey+", updated_at datetime NOT NULL) "+MySQLTableOptions, r.ops[0])
	assert.Equal(t, "AddForeignKey {{%fk-invoice-created_by}} {{%invoice}} [created_by] -> {{%account}} [id] ON DELETE CASCADE ON UPDATE CASCADE", r.ops[2])
	assert.Equal(t, "AddForeignKey {{%fk-invoice-updated_by}} {{%invoice}} [updated_by] -> {{%account}} [id] ON DELETE CASCADE ON UPDATE CASCADE", r.ops[4])
	assert.Len(t, r.ops, 5)
}

func TestCreateTable_Options(t *testing.T) {
	table := CreateTable{Table: "t", Columns: Columns{{Name: "id", Definition: PrimaryKey()}}}

	r := newRecordingRunner("postgres")
	require.NoError(t, table.Up(context.Background(), r))
	assert.Equal(t, "CreateTable {{%t}} (id serial NOT NULL PRIMARY KEY)", r.ops[0])

	table.Options = "ENGINE=MyISAM"
	r = newRecordingRunner("mysql")
	require.NoError(t, table.Up(context.Background(), r))
	assert.Equal(t, "CreateTable {{%t}} (id "+mysqlPK+") ENGINE=MyISAM", r.ops[0])
}

func TestCreateTable_RawDefinition(t *testing.T) {
	table := CreateTable{Table: "t", Columns: Columns{
		{Name: "id", Definition: Raw("BIGSERIAL PRIMARY KEY")},
	}}
	r := newRecordingRunner("postgres")
	require.NoError(t, table.Up(context.Background(), r))
	assert.Equal(t, "CreateTable {{%t}} (id BIGSERIAL PRIMARY KEY)", r.ops[0])
}

func TestCreateTable_DefinitionErrors(t *testing.T) {
	cases := []struct {
		name  string
		table CreateTable
		want  error
	}{
		{"missing table", CreateTable{Columns: Columns{{Name: "id", Definition: PrimaryKey()}}}, ErrMissingTableName},
		{"no columns", CreateTable{Table: "t"}, ErrNoColumns},
		{"duplicate column", CreateTable{Table: "t", Columns: Columns{
			{Name: "a", Definition: Integer()},
			{Name: "a", Definition: Text()},
		}}, ErrDuplicateColumn},
		{"duplicate default column", CreateTable{Table: "t", Category: testCategory{columns: Columns{
			{Name: "a", Definition: Integer()},
			{Name: "a", Definition: Integer()},
		}}}, ErrDuplicateColumn},
		{"nil definition", CreateTable{Table: "t", Columns: Columns{{Name: "a"}}}, ErrMissingDefinition},
		{"duplicate relation", CreateTable{Table: "t", Columns: Columns{{Name: "a", Definition: NormalKey()}},
			ForeignKeys: ForeignKeys{
				{Relation: "a", Reference: References("x")},
				{Relation: "a", Reference: References("y")},
			}}, ErrDuplicateRelation},
		{"missing reference table", CreateTable{Table: "t", Columns: Columns{{Name: "a", Definition: NormalKey()}},
			ForeignKeys: ForeignKeys{{Relation: "a"}}}, ErrMissingReferenceTable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newRecordingRunner("mysql")
			assert.ErrorIs(t, tc.table.Up(context.Background(), r), tc.want)
			assert.ErrorIs(t, tc.table.Down(context.Background(), r), tc.want)
			assert.ErrorIs(t, tc.table.Validate(), tc.want)
			assert.Empty(t, r.ops, "no operation may run for an invalid definition")
		})
	}
}

func TestCreateTable_StopsAtFirstError(t *testing.T) {
	r := newRecordingRunner("mysql")
	r.failOn = "AddForeignKey {{%fk-user_role-user}}"
	err := userRoleTable().Up(context.Background(), r)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Len(t, r.ops, 4)
}
