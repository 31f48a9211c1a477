package eventlog

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/okian/ladder/internal/domain/model"
)

const boltOpenTimeout = time.Second

var boltBucket = []byte("events")

// BoltLog keeps the log in a single bolt bucket. Keys are the bucket's
// sequence numbers in big-endian order, so a cursor walks insertion order.
type BoltLog struct {
	db *bolt.DB
}

// NewBoltLog opens (or creates) the database file at path.
func NewBoltLog(_ context.Context, path string) (*BoltLog, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("bolt path is required")
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: boltOpenTimeout})
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrUnavailable, path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(boltBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}
	return &BoltLog{db: db}, nil
}

// ReadAll walks the bucket in key order.
func (b *BoltLog) ReadAll(_ context.Context) ([]model.Record, error) {
	records := make([]model.Record, 0)
	err := b.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(boltBucket).ForEach(func(_, v []byte) error {
			var rec model.Record
			if err := json.Unmarshal(v, &rec); err != nil {
				// A row that cannot be decoded still occupies its position.
				rec = model.Record{}
			}
			records = append(records, rec)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("%w: read: %w", ErrUnavailable, err)
	}
	return records, nil
}

// Append stores rec under the next sequence number.
func (b *BoltLog) Append(_ context.Context, rec model.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	err = b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(boltBucket)
		seq, err := bucket.NextSequence()
		if err != nil {
			return err
		}
		return bucket.Put(boltKey(seq), data)
	})
	if err != nil {
		return fmt.Errorf("%w: append: %w", ErrUnavailable, err)
	}
	return nil
}

// DeleteAt removes the idx-th key of the bucket.
func (b *BoltLog) DeleteAt(_ context.Context, position int) error {
	idx, err := index(position)
	if err != nil {
		return err
	}
	found := false
	err = b.db.Update(func(tx *bolt.Tx) error {
		c := tx.Bucket(boltBucket).Cursor()
		i := 0
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			if i == idx {
				found = true
				return c.Delete()
			}
			i++
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: delete at %d: %w", ErrUnavailable, position, err)
	}
	if !found {
		return fmt.Errorf("%w: %d", ErrPositionOutOfRange, position)
	}
	return nil
}

// Kind returns KindBolt.
func (b *BoltLog) Kind() string { return KindBolt }

// Close releases the file lock.
func (b *BoltLog) Close() error { return b.db.Close() }

func boltKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}
