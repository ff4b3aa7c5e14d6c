package basicfit

import "context"

// Store is a durable key-value namespace. Implementations live under
// store/ and register themselves with RegisterStore.
type Store interface {
	// Load returns a consistent snapshot of every key in the namespace.
	// A namespace that was never written yields an empty map, not an error.
	Load(ctx context.Context) (map[string]string, error)

	// Apply performs all edits as one atomic unit: readers observe either
	// none or all of them.
	Apply(ctx context.Context, edits ...Edit) error

	// Close releases any resources held by the store.
	Close() error
}

// Edit is a single put or remove within an Apply batch.
type Edit struct {
	Key    string
	Value  string
	Remove bool
}

// Put returns an edit that sets key to value.
func Put(key, value string) Edit {
	return Edit{Key: key, Value: value}
}

// Remove returns an edit that deletes key. Removing a missing key is a no-op.
func Remove(key string) Edit {
	return Edit{Key: key, Remove: true}
}

// ApplyTo applies edits to values in order.
func ApplyTo(values map[string]string, edits []Edit) {
	for _, e := range edits {
		if e.Remove {
			delete(values, e.Key)
			continue
		}
		values[e.Key] = e.Value
	}
}
