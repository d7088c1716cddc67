package persist

import (
	bolt "go.etcd.io/bbolt"
)

var snapshotBucket = []byte("loom_snapshots")

// BoltStorage is a durable Storage backed by a bbolt database file. All
// persisted entries live in a single bucket keyed by the persistor name.
type BoltStorage struct {
	db *bolt.DB
}

var _ Storage = (*BoltStorage)(nil)

// NewBoltStorage opens (creating if necessary) the database at path.
func NewBoltStorage(path string) (*BoltStorage, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(snapshotBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &BoltStorage{db: db}, nil
}

func (b *BoltStorage) GetItem(key string) ([]byte, bool, error) {
	var value []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(snapshotBucket).Get([]byte(key)); v != nil {
			value = make([]byte, len(v))
			copy(value, v)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return value, value != nil, nil
}

func (b *BoltStorage) SetItem(key string, value []byte) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(snapshotBucket).Put([]byte(key), value)
	})
}

// Close releases the database file.
func (b *BoltStorage) Close() error {
	return b.db.Close()
}
