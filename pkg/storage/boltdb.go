package storage

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	bolt "go.etcd.io/bbolt"

	"github.com/cellwatch/cellwatch/pkg/types"
)

var (
	// Bucket names
	bucketEvents = []byte("events")
	bucketMeta   = []byte("meta")

	keySequence = []byte("sequence")
)

// BoltArchive implements Archive using BoltDB. Events are keyed by a
// monotonic sequence number so iteration order is ingestion order.
type BoltArchive struct {
	db *bolt.DB
}

// NewBoltArchive opens (or creates) the archive at the given path.
func NewBoltArchive(path string) (*BoltArchive, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}

	// Create buckets
	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketEvents, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})

	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltArchive{db: db}, nil
}

// Close closes the database
func (a *BoltArchive) Close() error {
	return a.db.Close()
}

// Append records one admitted event under the next sequence number.
func (a *BoltArchive) Append(e *types.Event) error {
	return a.db.Update(func(tx *bolt.Tx) error {
		meta := tx.Bucket(bucketMeta)
		seq := uint64(0)
		if raw := meta.Get(keySequence); raw != nil {
			seq = binary.BigEndian.Uint64(raw)
		}
		seq++

		var key [8]byte
		binary.BigEndian.PutUint64(key[:], seq)
		if err := meta.Put(keySequence, key[:]); err != nil {
			return fmt.Errorf("failed to advance sequence: %w", err)
		}

		data, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("failed to marshal event: %w", err)
		}
		return tx.Bucket(bucketEvents).Put(key[:], data)
	})
}

// List returns matching events most-recent-first, walking the bucket
// backwards so the limit can short-circuit the scan.
func (a *BoltArchive) List(q Query) ([]*types.Event, error) {
	var out []*types.Event

	err := a.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketEvents).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			var e types.Event
			if err := json.Unmarshal(v, &e); err != nil {
				return fmt.Errorf("failed to unmarshal event: %w", err)
			}
			if q.Type != "" && e.Type != q.Type {
				continue
			}
			if !q.Since.IsZero() && !e.Timestamp.After(q.Since) {
				// Keys are in ingestion order, nothing older matches.
				break
			}
			out = append(out, &e)
			if q.Limit > 0 && len(out) == q.Limit {
				break
			}
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns the total number of archived events.
func (a *BoltArchive) Count() (int, error) {
	n := 0
	err := a.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(bucketEvents).Stats().KeyN
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}
