package registry

import (
	bolt "github.com/boltdb/bolt"
)

var blobsBucket = []byte("git-blobs")

// BoltBlobCache memoizes git-tree blob lookups (the equivalent of `git
// show <tree>:<path>`) in a local bolt database, standing in for the
// teacher's persistent source cache (source_cache_bolt.go): a
// GitRegistry backed by one of these never re-shells to git for a
// (tree, path) pair it has already resolved in a prior run.
type BoltBlobCache struct {
	db *bolt.DB
}

// OpenBoltBlobCache opens (creating if necessary) a bolt database at
// path to back blob memoization.
func OpenBoltBlobCache(path string) (*BoltBlobCache, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, err
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(blobsBucket)
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}
	return &BoltBlobCache{db: db}, nil
}

// Close releases the underlying bolt database.
func (c *BoltBlobCache) Close() error { return c.db.Close() }

func blobKey(treeish, path string) []byte { return []byte(treeish + ":" + path) }

// Get returns a previously cached blob for (treeish, path), if present.
func (c *BoltBlobCache) Get(treeish, path string) ([]byte, bool, error) {
	var data []byte
	err := c.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(blobsBucket).Get(blobKey(treeish, path)); v != nil {
			data = append([]byte(nil), v...)
		}
		return nil
	})
	return data, data != nil, err
}

// Put stores a blob for later lookups.
func (c *BoltBlobCache) Put(treeish, path string, data []byte) error {
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(blobsBucket).Put(blobKey(treeish, path), data)
	})
}
