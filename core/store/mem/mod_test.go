package mem

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/piggybank/core/store"
	"go.dedis.ch/piggybank/internal/testing/fake"
)

func TestTrie_Get(t *testing.T) {
	trie := NewTrie(nil)

	value, err := trie.Get([]byte("ping"))
	require.NoError(t, err)
	require.Nil(t, value)

	require.NoError(t, trie.Set([]byte("ping"), []byte("pong")))

	value, err = trie.Get([]byte("ping"))
	require.NoError(t, err)
	require.Equal(t, []byte("pong"), value)

	parent := fake.NewSnapshot()
	parent.Set([]byte("A"), []byte("1"))

	trie = NewTrie(parent)

	value, err = trie.Get([]byte("A"))
	require.NoError(t, err)
	require.Equal(t, []byte("1"), value)

	require.NoError(t, trie.Delete([]byte("A")))

	value, err = trie.Get([]byte("A"))
	require.NoError(t, err)
	require.Nil(t, value)

	trie = NewTrie(fake.NewBadSnapshot())
	_, err = trie.Get([]byte("A"))
	require.EqualError(t, err, fake.Err("parent"))
}

func TestTrie_Stage(t *testing.T) {
	trie := NewTrie(nil)
	require.NoError(t, trie.Set([]byte("A"), []byte("1")))

	child, err := trie.Stage(func(snap store.Snapshot) error {
		value, err := snap.Get([]byte("A"))
		require.NoError(t, err)
		require.Equal(t, []byte("1"), value)

		require.NoError(t, snap.Set([]byte("B"), []byte("2")))
		require.NoError(t, snap.Delete([]byte("A")))

		return nil
	})
	require.NoError(t, err)

	// The parent is untouched until the child is merged.
	value, err := trie.Get([]byte("B"))
	require.NoError(t, err)
	require.Nil(t, value)

	value, err = child.Get([]byte("B"))
	require.NoError(t, err)
	require.Equal(t, []byte("2"), value)

	require.NoError(t, trie.Merge(child))

	value, err = trie.Get([]byte("A"))
	require.NoError(t, err)
	require.Nil(t, value)

	value, err = trie.Get([]byte("B"))
	require.NoError(t, err)
	require.Equal(t, []byte("2"), value)

	_, err = trie.Stage(func(snap store.Snapshot) error {
		snap.Set([]byte("C"), []byte("3"))

		return fake.GetError()
	})
	require.EqualError(t, err, fake.GetError().Error())

	value, err = trie.Get([]byte("C"))
	require.NoError(t, err)
	require.Nil(t, value)
}

func TestTrie_Updates(t *testing.T) {
	trie := NewTrie(nil)
	trie.Set([]byte("B"), nil)
	trie.Set([]byte("A"), []byte("1"))
	trie.Delete([]byte("C"))

	require.Equal(t, 3, trie.Len())

	keys := []string{}
	values := [][]byte{}

	err := trie.Updates(func(key, value []byte) error {
		keys = append(keys, string(key))
		values = append(values, value)

		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []string{"A", "B", "C"}, keys)
	require.Equal(t, [][]byte{[]byte("1"), {}, nil}, values)

	err = trie.Updates(func(key, value []byte) error {
		return fake.GetError()
	})
	require.EqualError(t, err, fake.Err("callback failed"))
}
