// Package store defines the primitives of a simple key/value storage.
//
// A Trie stages a batch of writes on top of a read-only parent. The batch is
// visible to the readers of the staged trie only, and it becomes durable only
// when the owner of the parent decides to apply it.
package store

// Readable is the interface for a readable store.
type Readable interface {
	// Get returns the value of the key, or nil if it does not exist.
	Get(key []byte) ([]byte, error)
}

// Writable is the interface for a writable store.
type Writable interface {
	Set(key []byte, value []byte) error

	Delete(key []byte) error
}

// Snapshot is a state of the store that can be read and write independently. A
// write is applied only to the snapshot reference.
type Snapshot interface {
	Readable
	Writable
}

// Trie is a store that can stage a batch of updates.
type Trie interface {
	Readable

	// Stage creates a child of the trie, runs the callback on it and returns
	// it if the callback succeeds. The trie itself is never modified.
	Stage(fn func(Snapshot) error) (Trie, error)

	// Updates iterates over the writes of this trie only, in lexicographic
	// order of the keys. A nil value means the key has been deleted.
	Updates(fn func(key, value []byte) error) error
}
