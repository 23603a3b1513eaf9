// Package kv defines the abstraction for a key/value database.
//
// The package implements two drivers: bolt, which is the default and uses
// bbolt as the engine (https://github.com/etcd-io/bbolt), and sqlite, which
// stores the buckets in a single table through gorm.
package kv

import (
	"sort"
	"sync"

	"golang.org/x/xerrors"
)

// Bucket is a general interface to operate on a database bucket.
type Bucket interface {
	// Get reads the key from the bucket and returns the value, or nil if the
	// key does not exist.
	Get(key []byte) []byte

	// Set assigns the value to the provided key.
	Set(key, value []byte) error

	// Delete deletes the key from the bucket.
	Delete(key []byte) error

	// Scan iterates over every key that matches the prefix in an order
	// determined by the implementation. The iteration stops when the callback
	// returns an error.
	Scan(prefix []byte, fn func(k, v []byte) error) error
}

// DB is a general interface to operate over a key/value database.
type DB interface {
	// View executes the provided read-only transaction in the context of the
	// bucket. It returns an error if the bucket does not exist.
	View(bucket []byte, fn func(Bucket) error) error

	// Update executes the provided writable transaction in the context of the
	// bucket, which is created if necessary. Either every write of the
	// callback is applied, or none if it returns an error.
	Update(bucket []byte, fn func(Bucket) error) error

	// Close closes the database and free the resources.
	Close() error
}

// Driver is the name of a database engine.
type Driver string

const (
	// BoltDriver opens a bbolt database file.
	BoltDriver Driver = "bolt"

	// SQLiteDriver opens a sqlite database file through gorm.
	SQLiteDriver Driver = "sqlite"
)

// Opener is a function that opens a database at the given path.
type Opener func(path string) (DB, error)

var drivers = struct {
	sync.RWMutex
	openers map[Driver]Opener
}{
	openers: map[Driver]Opener{
		BoltDriver:   New,
		SQLiteDriver: NewSQLite,
	},
}

// Register makes a database driver available by name. It returns an error if
// the name is already used.
func Register(name Driver, opener Opener) error {
	drivers.Lock()
	defer drivers.Unlock()

	_, found := drivers.openers[name]
	if found {
		return xerrors.Errorf("driver '%s' already registered", name)
	}

	drivers.openers[name] = opener

	return nil
}

// Drivers returns the names of the registered drivers in alphabetical order.
func Drivers() []Driver {
	drivers.RLock()
	defer drivers.RUnlock()

	names := make([]Driver, 0, len(drivers.openers))
	for name := range drivers.openers {
		names = append(names, name)
	}

	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })

	return names
}

// Open opens the database at the path with the driver. An empty driver name
// selects bolt.
func Open(name Driver, path string) (DB, error) {
	if name == "" {
		name = BoltDriver
	}

	drivers.RLock()
	opener, found := drivers.openers[name]
	drivers.RUnlock()

	if !found {
		return nil, xerrors.Errorf("unknown driver '%s'", name)
	}

	db, err := opener(path)
	if err != nil {
		return nil, xerrors.Errorf("driver '%s': %v", name, err)
	}

	return db, nil
}
