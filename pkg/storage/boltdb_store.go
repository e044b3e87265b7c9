package storage

import (
	"bytes"
	"fmt"
	"os"

	"github.com/nspcc-dev/rds-go/pkg/io"
	"github.com/nspcc-dev/rds-go/pkg/storage/dbconfig"
	"github.com/syndtr/goleveldb/leveldb/util"
	"go.etcd.io/bbolt"
)

// Bucket represents bucket used in boltdb to store all the data.
var Bucket = []byte("DB")

// BoltDBStore is a BoltDB-backed Store.
type BoltDBStore struct {
	db *bbolt.DB
}

// NewBoltDBStore returns a new ready to use BoltDB storage with created bucket.
func NewBoltDBStore(cfg dbconfig.BoltDBOptions) (*BoltDBStore, error) {
	cp := *bbolt.DefaultOptions // Do not change bbolt's global variable.
	opts := &cp
	fileMode := os.FileMode(0600)
	fileName := cfg.FilePath
	if cfg.ReadOnly {
		opts.ReadOnly = true
	} else {
		if err := io.MakeDirForFile(fileName, "BoltDB"); err != nil {
			return nil, err
		}
	}
	db, err := bbolt.Open(fileName, fileMode, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BoltDB instance: %w", err)
	}
	if !opts.ReadOnly {
		err = db.Update(func(tx *bbolt.Tx) error {
			_, err = tx.CreateBucketIfNotExists(Bucket)
			if err != nil {
				return fmt.Errorf("could not create root bucket: %w", err)
			}
			return nil
		})
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to initialize BoltDB instance: %w", err)
		}
	}

	return &BoltDBStore{db: db}, nil
}

// Get implements the Store interface.
func (s *BoltDBStore) Get(key []byte) (val []byte, err error) {
	err = s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(Bucket)
		if b == nil {
			return nil
		}
		// Value from Get is only valid for the lifetime of transaction.
		val = bytes.Clone(b.Get(key))
		return nil
	})
	if err == nil && val == nil {
		err = ErrKeyNotFound
	}
	return
}

// PutChangeSet implements the Store interface.
func (s *BoltDBStore) PutChangeSet(puts map[string][]byte) error {
	var err error

	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(Bucket)
		for k, v := range puts {
			if v != nil {
				err = b.Put([]byte(k), v)
			} else {
				err = b.Delete([]byte(k))
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// Seek implements the Store interface.
func (s *BoltDBStore) Seek(rng SeekRange, f func(k, v []byte) bool) {
	rang := seekRangeToPrefixes(rng)
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(Bucket)
		if b == nil {
			return nil
		}
		if rng.Backwards {
			seekBackwards(b.Cursor(), rang, f)
		} else {
			seekForwards(b.Cursor(), rang, f)
		}
		return nil
	})
	if err != nil {
		panic(err)
	}
}

func seekForwards(c *bbolt.Cursor, rang *util.Range, f func(k, v []byte) bool) {
	for k, v := c.Seek(rang.Start); k != nil && (len(rang.Limit) == 0 || bytes.Compare(k, rang.Limit) < 0); k, v = c.Next() {
		if !f(k, v) {
			break
		}
	}
}

func seekBackwards(c *bbolt.Cursor, rang *util.Range, f func(k, v []byte) bool) {
	var k, v []byte
	if len(rang.Limit) == 0 {
		k, v = c.Last()
	} else {
		k, v = c.Seek(rang.Limit)
		if k == nil {
			k, v = c.Last()
		} else {
			k, v = c.Prev()
		}
	}
	for ; k != nil && bytes.Compare(k, rang.Start) >= 0; k, v = c.Prev() {
		if !f(k, v) {
			break
		}
	}
}

// Close releases all db resources.
func (s *BoltDBStore) Close() error {
	return s.db.Close()
}
