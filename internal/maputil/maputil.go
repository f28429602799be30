package maputil

import "sync"

// Pop removes key from map under lock and returns the previous value if present.
func Pop[K comparable, V any](mu *sync.Mutex, items map[K]V, key K) (V, bool) {
	mu.Lock()
	defer mu.Unlock()

	value, ok := items[key]
	if ok {
		delete(items, key)
	}
	return value, ok
}

// PopWhere removes and returns all values matching keep under lock.
func PopWhere[K comparable, V any](mu *sync.Mutex, items map[K]V, keep func(V) bool) []V {
	mu.Lock()
	defer mu.Unlock()

	var out []V
	for key, value := range items {
		if !keep(value) {
			continue
		}
		delete(items, key)
		out = append(out, value)
	}
	return out
}
