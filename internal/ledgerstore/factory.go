package ledgerstore

import "fmt"

// Backend names accepted by New.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// New creates and initializes the store for backend at path.
func New(backend, path string) (Store, error) {
	var store Store
	switch backend {
	case "", BackendJSON:
		store = NewJSONFileStore()
	case BackendSQLite:
		store = NewSQLiteStore()
	case BackendMemory:
		store = NewMemoryStore()
	default:
		return nil, fmt.Errorf("unknown ledger backend %q", backend)
	}

	if err := store.Initialize(path); err != nil {
		return nil, err
	}
	return store, nil
}
