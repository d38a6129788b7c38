// Package db defines the key-value storage abstraction the rewards store is
// written against.
package db

// KVStore is an ordered key-value store. Keys iterate in bytewise order.
type KVStore interface {
	Writer
	Get(key []byte) ([]byte, error)
	Delete(key []byte) error
	NewBatch() Batch
	NewIterator(start, end []byte) (Iterator, error)
	Close() error
}

type Writer interface {
	Put(key []byte, value []byte) error
}

// Batch collects writes that become visible together on Commit, or not at
// all if the batch is closed first.
type Batch interface {
	Writer
	Delete(key []byte) error
	Commit() error
	Close() error
}

// Iterator walks a key range. Next must be called before the first Key.
// Once Next returns false, Error tells a read failure apart from the end of
// the range. Iterators must be closed after use.
type Iterator interface {
	Next() bool
	Key() []byte
	Value() ([]byte, error)
	Valid() bool
	Error() error
	Close() error
}
