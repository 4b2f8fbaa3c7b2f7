package schema

import (
	"regexp"
	"strings"
)

var (
	tableTemplate  = regexp.MustCompile(`\{\{(%?[\w\-\. ]+%?)\}\}`)
	columnTemplate = regexp.MustCompile(`\[\[([\w\-\. ]+)\]\]`)
)

// HasTemplate reports whether name still contains a {{table}} placeholder.
func HasTemplate(name string) bool {
	return strings.Contains(name, "{{")
}

// ExpandName resolves a bare {{%name}} or {{name}} into the unquoted table
// name. The % marks where the table prefix goes. Names without a template are
// returned unchanged.
func ExpandName(name, prefix string) string {
	return tableTemplate.ReplaceAllStringFunc(name, func(m string) string {
		return strings.ReplaceAll(tableTemplate.FindStringSubmatch(m)[1], "%", prefix)
	})
}

// ExpandSQL replaces every {{table}} placeholder with the quoted, prefixed
// table name and every [[column]] placeholder with the quoted column name.
func (d *Dialect) ExpandSQL(sql, prefix string) string {
	sql = tableTemplate.ReplaceAllStringFunc(sql, func(m string) string {
		name := strings.ReplaceAll(tableTemplate.FindStringSubmatch(m)[1], "%", prefix)
		return d.Quote(name)
	})
	return columnTemplate.ReplaceAllStringFunc(sql, func(m string) string {
		return d.Quote(columnTemplate.FindStringSubmatch(m)[1])
	})
}
