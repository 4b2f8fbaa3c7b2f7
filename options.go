package migrate

import (
	"strings"
	"sync"
)

// MySQLTableOptions are applied to every table created on MySQL.
const MySQLTableOptions = "CHARACTER SET utf8 COLLATE utf8_unicode_ci ENGINE=InnoDB"

var (
	tableOptionsMu sync.RWMutex
	tableOptions   = map[string]string{
		"mysql": MySQLTableOptions,
	}
)

// RegisterTableOptions sets the table options used by CreateTable for
// driver. An empty options string removes the entry.
func RegisterTableOptions(driver, options string) {
	tableOptionsMu.Lock()
	defer tableOptionsMu.Unlock()
	driver = strings.ToLower(driver)
	if options == "" {
		delete(tableOptions, driver)
		return
	}
	tableOptions[driver] = options
}

// TableOptions returns the table options registered for driver, or "".
func TableOptions(driver string) string {
	tableOptionsMu.RLock()
	defer tableOptionsMu.RUnlock()
	return tableOptions[strings.ToLower(driver)]
}
