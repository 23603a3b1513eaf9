package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/piggybank/internal/testing/fake"
)

func TestFileLoader_LoadOrCreate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "keys", "alice.key")

	generator := fakeGenerator{calls: fake.NewCall()}

	loader := NewFileLoader(path)
	require.False(t, loader.Exists())

	data, err := loader.LoadOrCreate(generator)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, data)
	require.Equal(t, 1, generator.calls.Len())
	require.True(t, loader.Exists())

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, keyPerm, info.Mode().Perm())

	// The second call reads the file.
	data, err = loader.LoadOrCreate(generator)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, data)
	require.Equal(t, 1, generator.calls.Len())
}

func TestFileLoader_LoadOrCreate_Errors(t *testing.T) {
	generator := fakeGenerator{calls: fake.NewCall()}

	loader := fileLoader{path: "bob.key", fs: fakeFS{}}

	_, err := loader.LoadOrCreate(fakeGenerator{calls: fake.NewCall(), err: fake.GetError()})
	require.EqualError(t, err, fake.Err("generator failed"))

	loader.fs = fakeFS{errMkdir: fake.GetError()}
	_, err = loader.LoadOrCreate(generator)
	require.EqualError(t, err, fake.Err("failed to create folder"))

	loader.fs = fakeFS{errWrite: fake.GetError()}
	_, err = loader.LoadOrCreate(generator)
	require.EqualError(t, err, fake.Err("failed to write file"))

	loader.fs = fakeFS{exists: true, errRead: fake.GetError()}
	_, err = loader.LoadOrCreate(generator)
	require.EqualError(t, err, fake.Err("failed to load file: failed to read file"))
}

func TestFileLoader_Load(t *testing.T) {
	loader := NewFileLoader(filepath.Join(t.TempDir(), "missing.key"))

	_, err := loader.Load()
	require.Error(t, err)
	require.Regexp(t, "^failed to read file: ", err.Error())
}

// -----------------------------------------------------------------------------
// Utility functions

type fakeGenerator struct {
	calls *fake.Call
	err   error
}

func (g fakeGenerator) Generate() ([]byte, error) {
	g.calls.Add("Generate")

	return []byte{1, 2, 3}, g.err
}

type fakeFS struct {
	exists   bool
	errRead  error
	errWrite error
	errMkdir error
}

func (fs fakeFS) Stat(path string) (os.FileInfo, error) {
	if fs.exists {
		return nil, nil
	}

	return nil, os.ErrNotExist
}

func (fs fakeFS) ReadFile(path string) ([]byte, error) {
	return nil, fs.errRead
}

func (fs fakeFS) WriteFile(path string, data []byte, perm os.FileMode) error {
	return fs.errWrite
}

func (fs fakeFS) MkdirAll(path string, perm os.FileMode) error {
	return fs.errMkdir
}
