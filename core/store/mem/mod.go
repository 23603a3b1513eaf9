// Package mem implements an in-memory trie that stages the updates of a
// single execution on top of a parent store.
package mem

import (
	"sort"

	"go.dedis.ch/piggybank/core/store"
	"golang.org/x/xerrors"
)

// Trie is an in-memory implementation of a trie. It saves the updates in an
// internal store and only keep the updates of the current trie. When reading,
// it'll look up by following the parent if the key is not found.
//
// - implements store.Trie
// - implements store.Snapshot
type Trie struct {
	parent store.Readable
	store  map[string][]byte
}

// NewTrie creates a new empty trie on top of the parent. The parent can be nil.
func NewTrie(parent store.Readable) *Trie {
	return &Trie{
		parent: parent,
		store:  make(map[string][]byte),
	}
}

// Get implements store.Readable. A key deleted in this trie is reported as
// missing even if the parent knows it.
func (t *Trie) Get(key []byte) ([]byte, error) {
	val, found := t.store[string(key)]
	if found {
		return val, nil
	}

	if t.parent == nil {
		return nil, nil
	}

	val, err := t.parent.Get(key)
	if err != nil {
		return nil, xerrors.Errorf("parent: %v", err)
	}

	return val, nil
}

// Set implements store.Writable.
func (t *Trie) Set(key, value []byte) error {
	if value == nil {
		value = []byte{}
	}

	t.store[string(key)] = value

	return nil
}

// Delete implements store.Writable. The deletion is recorded so that it hides
// the value of the parent.
func (t *Trie) Delete(key []byte) error {
	t.store[string(key)] = nil

	return nil
}

// Stage implements store.Trie.
func (t *Trie) Stage(fn func(store.Snapshot) error) (store.Trie, error) {
	child := NewTrie(t)

	err := fn(child)
	if err != nil {
		return nil, err
	}

	return child, nil
}

// Updates implements store.Trie.
func (t *Trie) Updates(fn func(key, value []byte) error) error {
	keys := make([]string, 0, len(t.store))
	for key := range t.store {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	for _, key := range keys {
		err := fn([]byte(key), t.store[key])
		if err != nil {
			return xerrors.Errorf("callback failed: %v", err)
		}
	}

	return nil
}

// Merge applies the updates of the child on this trie.
func (t *Trie) Merge(child store.Trie) error {
	return child.Updates(func(key, value []byte) error {
		if value == nil {
			return t.Delete(key)
		}

		return t.Set(key, value)
	})
}

// Len returns the number of updates recorded by this trie.
func (t *Trie) Len() int {
	return len(t.store)
}
