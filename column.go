package migrate

import (
	"github.com/burugo/migrate/internal/schema"
)

// Expression is SQL written verbatim where a value is expected, e.g. as a
// column default or a query argument.
type Expression = schema.Expression

// ColumnDefinition renders the type and constraints of a column for a driver.
type ColumnDefinition interface {
	Build(driver string) string
}

// Raw is literal SQL. As a ColumnDefinition it is used on every driver
// unchanged; as a ViewQuery it is the view body.
type Raw string

// Build implements ColumnDefinition.
func (r Raw) Build(string) string { return string(r) }

// RawSQL implements ViewQuery.
func (r Raw) RawSQL(string) (string, error) { return string(r), nil }

// Column is a named column definition.
type Column struct {
	Name       string
	Definition ColumnDefinition
}

// Columns is an ordered list of columns; order is the CREATE TABLE order.
type Columns []Column

// Names returns the column names in order.
func (cs Columns) Names() []string {
	names := make([]string, len(cs))
	for i, c := range cs {
		names[i] = c.Name
	}
	return names
}

// ColumnBuilder builds a column definition fluently. Modifiers change the
// builder in place and return it.
type ColumnBuilder struct {
	spec schema.ColumnSpec
}

func newColumn(kind string, sizes ...int) *ColumnBuilder {
	return &ColumnBuilder{spec: schema.ColumnSpec{Kind: kind, Sizes: sizes}}
}

// Integer returns an integer column of the given display length.
func Integer(length ...int) *ColumnBuilder { return newColumn(schema.KindInteger, length...) }

// BigInteger returns a bigint column.
func BigInteger(length ...int) *ColumnBuilder { return newColumn(schema.KindBigInt, length...) }

// SmallInteger returns a smallint column.
func SmallInteger(length ...int) *ColumnBuilder { return newColumn(schema.KindSmallInt, length...) }

// String returns a varchar column; the default length is 255.
func String(length ...int) *ColumnBuilder { return newColumn(schema.KindString, length...) }

func Text() *ColumnBuilder      { return newColumn(schema.KindText) }
func Boolean() *ColumnBuilder   { return newColumn(schema.KindBoolean) }
func Timestamp() *ColumnBuilder { return newColumn(schema.KindTimestamp) }
func DateTime() *ColumnBuilder  { return newColumn(schema.KindDateTime) }
func Date() *ColumnBuilder      { return newColumn(schema.KindDate) }
func Float() *ColumnBuilder     { return newColumn(schema.KindFloat) }
func Binary() *ColumnBuilder    { return newColumn(schema.KindBinary) }

// Decimal returns a fixed-point column with the given precision and scale.
func Decimal(precisionAndScale ...int) *ColumnBuilder {
	return newColumn(schema.KindDecimal, precisionAndScale...)
}

// Type returns a column of a native SQL type that is passed through as-is.
func Type(sqlType string) *ColumnBuilder { return newColumn(sqlType) }

func (c *ColumnBuilder) Unsigned() *ColumnBuilder {
	c.spec.Unsigned = true
	return c
}

func (c *ColumnBuilder) NotNull() *ColumnBuilder {
	c.spec.NotNull = true
	c.spec.Null = false
	return c
}

func (c *ColumnBuilder) Null() *ColumnBuilder {
	c.spec.Null = true
	c.spec.NotNull = false
	return c
}

// DefaultValue sets a default rendered as a literal for the target driver.
func (c *ColumnBuilder) DefaultValue(v any) *ColumnBuilder {
	c.spec.HasDefault = true
	c.spec.Default = v
	return c
}

// DefaultExpression sets a default written verbatim, e.g. CURRENT_TIMESTAMP.
func (c *ColumnBuilder) DefaultExpression(expr string) *ColumnBuilder {
	return c.DefaultValue(Expression(expr))
}

func (c *ColumnBuilder) AutoIncrement() *ColumnBuilder {
	c.spec.AutoIncrement = true
	return c
}

func (c *ColumnBuilder) PrimaryKey() *ColumnBuilder {
	c.spec.PrimaryKey = true
	return c
}

// Append adds raw SQL after the generated definition.
func (c *ColumnBuilder) Append(sql string) *ColumnBuilder {
	if c.spec.Append != "" {
		c.spec.Append += " "
	}
	c.spec.Append += sql
	return c
}

// SQL renders the definition for driver.
func (c *ColumnBuilder) SQL(driver string) (string, error) {
	d, err := schema.Lookup(driver)
	if err != nil {
		return "", err
	}
	return d.ColumnSQL(c.spec)
}

// Build implements ColumnDefinition. It returns an empty string when the
// definition cannot be rendered for driver; SQL reports why.
func (c *ColumnBuilder) Build(driver string) string {
	s, err := c.SQL(driver)
	if err != nil {
		return ""
	}
	return s
}

// buildColumn renders def, preferring the error-reporting form when the
// definition has one.
func buildColumn(def ColumnDefinition, driver string) (string, error) {
	if checked, ok := def.(interface {
		SQL(driver string) (string, error)
	}); ok {
		return checked.SQL(driver)
	}
	return def.Build(driver), nil
}
