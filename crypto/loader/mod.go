// Package loader keeps the private keys of the accounts between two runs of
// the tool.
package loader

// Generator creates the binary form of a new key.
type Generator interface {
	Generate() ([]byte, error)
}

// Loader reads a key from where it is stored.
type Loader interface {
	// LoadOrCreate returns the stored key, or a new one from the generator
	// that is stored first.
	LoadOrCreate(Generator) ([]byte, error)

	Load() ([]byte, error)

	// Exists returns true when a key is stored.
	Exists() bool
}
