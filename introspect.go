package migrate

import (
	"fmt"
	"sync"

	"github.com/burugo/migrate/drivers/schema"
)

// IntrospectorFactory builds an Introspector for an adapter.
type IntrospectorFactory func(adapter DBAdapter) schema.Introspector

var (
	introspectorsMu sync.RWMutex
	introspectors   = map[string]IntrospectorFactory{}
)

// RegisterIntrospectorFactory registers the introspector of a dialect.
// Drivers call it from init to avoid import cycles.
func RegisterIntrospectorFactory(dialect string, factory IntrospectorFactory) {
	introspectorsMu.Lock()
	defer introspectorsMu.Unlock()
	introspectors[dialect] = factory
}

// NewIntrospector returns the introspector registered for the adapter's
// dialect.
func NewIntrospector(adapter DBAdapter) (schema.Introspector, error) {
	introspectorsMu.RLock()
	factory, ok := introspectors[adapter.DialectName()]
	introspectorsMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: no introspector for %s", ErrUnsupportedDialect, adapter.DialectName())
	}
	return factory(adapter), nil
}
