// Package storage persists generated artifacts such as CTest registration
// files and test manifests.
package storage

// Storage is a keyed store for generated files
// Keys are slash-separated paths relative to the store root
type Storage interface {
	// Get retrieves data by key
	// Returns nil if key does not exist
	Get(key string) ([]byte, error)

	// Put replaces the data stored at key
	Put(key string, data []byte) error

	// Exists checks if a key exists
	Exists(key string) (bool, error)
}
