package utils

// OrderedMap is a map that preserves key insertion order.
type OrderedMap[V any] struct {
	keys   []string
	values map[string]V
}

// NewOrderedMap creates a new empty OrderedMap.
func NewOrderedMap[V any]() *OrderedMap[V] {
	return &OrderedMap[V]{
		keys:   make([]string, 0),
		values: make(map[string]V),
	}
}

// Set sets the value for a key. A new key is appended; an existing key keeps
// its position and has its value replaced.
func (om *OrderedMap[V]) Set(key string, value V) {
	if _, exists := om.values[key]; !exists {
		om.keys = append(om.keys, key)
	}
	om.values[key] = value
}

// SetIfAbsent stores value only when key is not present yet and reports
// whether it did.
func (om *OrderedMap[V]) SetIfAbsent(key string, value V) bool {
	if _, exists := om.values[key]; exists {
		return false
	}
	om.keys = append(om.keys, key)
	om.values[key] = value
	return true
}

// Get retrieves the value for a key.
func (om *OrderedMap[V]) Get(key string) (V, bool) {
	v, ok := om.values[key]
	return v, ok
}

// Has reports whether key is present.
func (om *OrderedMap[V]) Has(key string) bool {
	_, ok := om.values[key]
	return ok
}

// Len returns the number of entries.
func (om *OrderedMap[V]) Len() int {
	return len(om.keys)
}

// Keys returns the keys in insertion order.
func (om *OrderedMap[V]) Keys() []string {
	return append([]string(nil), om.keys...)
}

// Each calls fn for every entry in insertion order and stops at the first
// error.
func (om *OrderedMap[V]) Each(fn func(key string, value V) error) error {
	for _, k := range om.keys {
		if err := fn(k, om.values[k]); err != nil {
			return err
		}
	}
	return nil
}
