package schema

import (
	"database/sql/driver"
	"encoding/hex"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Expression is SQL text that is written as-is wherever a value is expected,
// e.g. CURRENT_TIMESTAMP as a column default.
type Expression string

// Literal renders v as an SQL literal for this dialect.
func (d *Dialect) Literal(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "NULL", nil
	case Expression:
		return string(val), nil
	case string:
		return d.QuoteString(val), nil
	case []byte:
		if val == nil {
			return "NULL", nil
		}
		return fmt.Sprintf(d.BytesFormat, hex.EncodeToString(val)), nil
	case bool:
		if val {
			return d.TrueLiteral, nil
		}
		return d.FalseLiteral, nil
	case time.Time:
		return d.QuoteString(val.Format("2006-01-02 15:04:05")), nil
	case driver.Valuer:
		inner, err := val.Value()
		if err != nil {
			return "", err
		}
		return d.Literal(inner)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), nil
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'g', -1, 64), nil
	case reflect.String:
		return d.QuoteString(rv.String()), nil
	case reflect.Bool:
		return d.Literal(rv.Bool())
	case reflect.Pointer:
		if rv.IsNil() {
			return "NULL", nil
		}
		return d.Literal(rv.Elem().Interface())
	}
	return "", fmt.Errorf("cannot render %T as an SQL literal", v)
}

// QuoteString quotes s as a string literal.
func (d *Dialect) QuoteString(s string) string {
	if d.BackslashEscapes {
		s = strings.ReplaceAll(s, `\`, `\\`)
	}
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
