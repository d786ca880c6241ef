package kv

import (
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
)

// Open opens the badger directory backing the score ledger. Badger holds an
// exclusive file lock, so exactly one process owns a ledger path at a time.
func Open(path string) (*badger.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("ledger path is required")
	}
	db, err := badger.Open(badger.DefaultOptions(path).WithLoggingLevel(badger.ERROR))
	if err != nil {
		return nil, fmt.Errorf("open badger ledger at %s: %w", path, err)
	}
	return db, nil
}

// OpenInMemory opens an ephemeral store, used by tests and local tooling.
func OpenInMemory() (*badger.DB, error) {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("open in-memory badger: %w", err)
	}
	return db, nil
}
