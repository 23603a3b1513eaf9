package kv

import (
	"encoding/hex"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
	"golang.org/x/xerrors"
)

// sqlBucket is the row that registers the existence of a bucket.
type sqlBucket struct {
	Name string `gorm:"column:bucket_name;primaryKey;size:128"`
}

// TableName returns the name of the buckets table.
func (sqlBucket) TableName() string {
	return "buckets"
}

// sqlEntry is a key/value pair of a bucket. Keys are stored in hexadecimal so
// that the text ordering matches the byte ordering.
type sqlEntry struct {
	Bucket string `gorm:"column:bucket_name;primaryKey;size:128"`
	Key    string `gorm:"column:entry_key;primaryKey"`
	Value  []byte `gorm:"column:entry_value;type:blob"`
}

// TableName returns the name of the entries table.
func (sqlEntry) TableName() string {
	return "entries"
}

// sqliteDB is an adapter of the KV store using a sqlite database.
//
// - implements kv.DB
type sqliteDB struct {
	db *gorm.DB
}

// NewSQLite opens a sqlite database at the given path and migrates the
// tables if necessary.
func NewSQLite(path string) (DB, error) {
	conf := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	db, err := gorm.Open(sqlite.Open(path), conf)
	if err != nil {
		return nil, xerrors.Errorf("failed to open db: %v", err)
	}

	err = db.AutoMigrate(&sqlBucket{}, &sqlEntry{})
	if err != nil {
		return nil, xerrors.Errorf("failed to migrate: %v", err)
	}

	return sqliteDB{db: db}, nil
}

// View implements kv.DB. It returns an error if the bucket does not exist.
func (s sqliteDB) View(bucket []byte, fn func(Bucket) error) error {
	name := hex.EncodeToString(bucket)

	return s.db.Transaction(func(tx *gorm.DB) error {
		var count int64

		err := tx.Model(&sqlBucket{}).Where("bucket_name = ?", name).Count(&count).Error
		if err != nil {
			return xerrors.Errorf("failed to read bucket: %v", err)
		}

		if count == 0 {
			return xerrors.Errorf("bucket '%x' not found", bucket)
		}

		return s.run(tx, name, fn)
	})
}

// Update implements kv.DB. It creates the bucket if it does not exist and
// rolls back every write when the callback fails.
func (s sqliteDB) Update(bucket []byte, fn func(Bucket) error) error {
	if len(bucket) == 0 {
		return xerrors.New("failed to create bucket: bucket name required")
	}

	name := hex.EncodeToString(bucket)

	return s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&sqlBucket{Name: name}).Error
		if err != nil {
			return xerrors.Errorf("failed to create bucket: %v", err)
		}

		return s.run(tx, name, fn)
	})
}

func (s sqliteDB) run(tx *gorm.DB, name string, fn func(Bucket) error) error {
	b := &sqliteBucket{tx: tx, name: name}

	err := fn(b)
	if err != nil {
		return err
	}

	// A read failure cannot be returned by Get so it aborts the transaction
	// here instead.
	if b.err != nil {
		return xerrors.Errorf("failed to read: %v", b.err)
	}

	return nil
}

// Close implements kv.DB. It closes the underlying connections.
func (s sqliteDB) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return xerrors.Errorf("failed to get connection: %v", err)
	}

	return sqlDB.Close()
}

// sqliteBucket is the bucket of a sqlite transaction.
//
// - implements kv.Bucket
type sqliteBucket struct {
	tx   *gorm.DB
	name string
	err  error
}

// Get implements kv.Bucket. It returns the value of the key, or nil if it does
// not exist.
func (b *sqliteBucket) Get(key []byte) []byte {
	var entries []sqlEntry

	err := b.tx.Where("bucket_name = ? AND entry_key = ?", b.name, hex.EncodeToString(key)).
		Limit(1).Find(&entries).Error
	if err != nil {
		b.err = err
		return nil
	}

	if len(entries) == 0 {
		return nil
	}

	if entries[0].Value == nil {
		return []byte{}
	}

	return entries[0].Value
}

// Set implements kv.Bucket. It inserts or replaces the value of the key.
func (b *sqliteBucket) Set(key, value []byte) error {
	if len(key) == 0 {
		return xerrors.New("key required")
	}

	entry := sqlEntry{
		Bucket: b.name,
		Key:    hex.EncodeToString(key),
		Value:  append([]byte{}, value...),
	}

	err := b.tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&entry).Error
	if err != nil {
		return xerrors.Errorf("failed to write: %v", err)
	}

	return nil
}

// Delete implements kv.Bucket. It removes the key from the bucket.
func (b *sqliteBucket) Delete(key []byte) error {
	err := b.tx.Where("bucket_name = ? AND entry_key = ?", b.name, hex.EncodeToString(key)).
		Delete(&sqlEntry{}).Error
	if err != nil {
		return xerrors.Errorf("failed to delete: %v", err)
	}

	return nil
}

// Scan implements kv.Bucket. It iterates over the keys matching the prefix in
// the key order.
func (b *sqliteBucket) Scan(prefix []byte, fn func(k, v []byte) error) error {
	query := b.tx.Where("bucket_name = ? AND entry_key LIKE ?", b.name, hex.EncodeToString(prefix)+"%")

	err := b.iterate(query, fn)
	if err != nil {
		return xerrors.Errorf("callback failed: %v", err)
	}

	return nil
}

func (b *sqliteBucket) iterate(query *gorm.DB, fn func(k, v []byte) error) error {
	var entries []sqlEntry

	err := query.Order("entry_key").Find(&entries).Error
	if err != nil {
		return xerrors.Errorf("failed to read: %v", err)
	}

	for _, entry := range entries {
		key, err := hex.DecodeString(entry.Key)
		if err != nil {
			return xerrors.Errorf("malformed key: %v", err)
		}

		value := entry.Value
		if value == nil {
			value = []byte{}
		}

		err = fn(key, value)
		if err != nil {
			return err
		}
	}

	return nil
}
