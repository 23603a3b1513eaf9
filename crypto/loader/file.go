package loader

import (
	"os"
	"path/filepath"

	"golang.org/x/xerrors"
)

// keyPerm only lets the owner read a key file.
const keyPerm os.FileMode = 0400

// fileSystem is the part of the os package the file loader needs.
type fileSystem interface {
	Stat(path string) (os.FileInfo, error)
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, data []byte, perm os.FileMode) error
	MkdirAll(path string, perm os.FileMode) error
}

// osFS is the file system of the host.
//
// - implements loader.fileSystem
type osFS struct{}

func (osFS) Stat(path string) (os.FileInfo, error) { return os.Stat(path) }

func (osFS) ReadFile(path string) ([]byte, error) { return os.ReadFile(path) }

func (osFS) WriteFile(path string, data []byte, perm os.FileMode) error {
	return os.WriteFile(path, data, perm)
}

func (osFS) MkdirAll(path string, perm os.FileMode) error { return os.MkdirAll(path, perm) }

// fileLoader keeps a key in a single file, like the account keys of a
// configuration folder.
//
// - implements loader.Loader
type fileLoader struct {
	path string
	fs   fileSystem
}

// NewFileLoader returns a loader for the key file at the path. The parent
// folders are created with the file.
func NewFileLoader(path string) Loader {
	return fileLoader{
		path: path,
		fs:   osFS{},
	}
}

// Exists implements loader.Loader.
func (l fileLoader) Exists() bool {
	_, err := l.fs.Stat(l.path)

	return err == nil
}

// LoadOrCreate implements loader.Loader. A new key is written read-only for
// the current user.
func (l fileLoader) LoadOrCreate(g Generator) ([]byte, error) {
	_, err := l.fs.Stat(l.path)
	if !os.IsNotExist(err) {
		data, err := l.Load()
		if err != nil {
			return nil, xerrors.Errorf("failed to load file: %v", err)
		}

		return data, nil
	}

	data, err := g.Generate()
	if err != nil {
		return nil, xerrors.Errorf("generator failed: %v", err)
	}

	err = l.fs.MkdirAll(filepath.Dir(l.path), 0700)
	if err != nil {
		return nil, xerrors.Errorf("failed to create folder: %v", err)
	}

	err = l.fs.WriteFile(l.path, data, keyPerm)
	if err != nil {
		return nil, xerrors.Errorf("failed to write file: %v", err)
	}

	return data, nil
}

// Load implements loader.Loader.
func (l fileLoader) Load() ([]byte, error) {
	data, err := l.fs.ReadFile(l.path)
	if err != nil {
		return nil, xerrors.Errorf("failed to read file: %v", err)
	}

	return data, nil
}
