package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

var stateBucket = []byte("ssal")

// BoltEngine stores every key in a single bucket; a batch is one
// read-write transaction.
type BoltEngine struct {
	db *bolt.DB
}

func OpenBoltEngine(path string, openTimeout time.Duration) (*BoltEngine, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", filepath.Dir(path), err)
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: openTimeout})
	if err != nil {
		return nil, fmt.Errorf("bolt.Open: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(stateBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}

	return &BoltEngine{db: db}, nil
}

func (b *BoltEngine) Get(key string) ([]byte, bool, error) {
	var value []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		// bolt values are only valid inside the transaction
		if v := tx.Bucket(stateBucket).Get([]byte(key)); v != nil {
			value = append([]byte{}, v...)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return value, value != nil, nil
}

func (b *BoltEngine) Write(entries []Entry) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(stateBucket)
		for _, e := range entries {
			value := e.Value
			if value == nil {
				value = []byte{}
			}
			if err := bucket.Put([]byte(e.Key), value); err != nil {
				return fmt.Errorf("put %s: %w", e.Key, err)
			}
		}
		return nil
	})
}

func (b *BoltEngine) Close() error {
	return b.db.Close()
}
