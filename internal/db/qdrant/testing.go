package qdrant

import "time"

// NewStoreForTest creates a Store over the provided client (test-only).
func NewStoreForTest(c api, collection string, timeout time.Duration) *Store {
	return &Store{client: c, collection: collection, timeout: timeout}
}
