package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/diegogliarte/web-hunter/internal/domain"
)

const dealBucket = "deals"

// boltStore implements Store backed by BoltDB. Every operation runs in a
// single bbolt transaction, which also serves as the mutual-exclusion region
// closing the check-then-act race between Exists and Insert when runs overlap.
type boltStore struct {
	db  *bolt.DB
	now func() time.Time
}

// openBolt initializes a BoltDB-backed Store, creating the bucket if absent.
func openBolt(path string) (Store, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(dealBucket))
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init bucket: %w", err)
	}

	return &boltStore{db: db, now: time.Now}, nil
}

// Close closes the BoltDB store.
func (b *boltStore) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// Exists reports whether a record with the given fingerprint has already been
// delivered. Records inserted but not yet marked sent return false so an
// interrupted run retries delivery on the next pass.
func (b *boltStore) Exists(fp domain.Fingerprint) (bool, error) {
	if b == nil || b.db == nil {
		return false, nil
	}

	var exists bool
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(dealBucket))
		if bucket == nil {
			return fmt.Errorf("deal bucket missing")
		}

		value := bucket.Get(fp.Key())
		if value == nil {
			return nil
		}

		var rec Record
		if err := json.Unmarshal(value, &rec); err != nil {
			return fmt.Errorf("decode record: %w", err)
		}
		exists = rec.Sent
		return nil
	})
	return exists, err
}

// Insert stores the listing under its fingerprint with sent=false. If a
// record already exists for the fingerprint the original created_at and sent
// flag are preserved, making re-insertion after a crashed run harmless. The
// conditional write happens in one transaction, so overlapping runs cannot
// produce conflicting rows.
func (b *boltStore) Insert(l domain.Listing) error {
	if b == nil || b.db == nil {
		return fmt.Errorf("bolt store is not open")
	}

	key := l.Fingerprint().Key()
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(dealBucket))
		if bucket == nil {
			return fmt.Errorf("deal bucket missing")
		}

		if existing := bucket.Get(key); existing != nil {
			var rec Record
			if err := json.Unmarshal(existing, &rec); err == nil {
				// Already recorded; keep the first insertion's facts.
				return nil
			}
		}

		value, err := json.Marshal(Record{
			Listing:   l,
			Sent:      false,
			CreatedAt: b.now().UTC(),
		})
		if err != nil {
			return fmt.Errorf("encode record: %w", err)
		}
		return bucket.Put(key, value)
	})
}

// MarkSent flips the record's sent flag. Calling it twice is the same as
// calling it once, and a missing fingerprint is a no-op rather than an error.
func (b *boltStore) MarkSent(fp domain.Fingerprint) error {
	if b == nil || b.db == nil {
		return fmt.Errorf("bolt store is not open")
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(dealBucket))
		if bucket == nil {
			return fmt.Errorf("deal bucket missing")
		}

		key := fp.Key()
		value := bucket.Get(key)
		if value == nil {
			return nil
		}

		var rec Record
		if err := json.Unmarshal(value, &rec); err != nil {
			return fmt.Errorf("decode record: %w", err)
		}
		if rec.Sent {
			return nil
		}
		rec.Sent = true

		updated, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encode record: %w", err)
		}
		return bucket.Put(key, updated)
	})
}

// Get returns the raw record for a fingerprint, if present.
func (b *boltStore) Get(fp domain.Fingerprint) (Record, bool, error) {
	if b == nil || b.db == nil {
		return Record{}, false, nil
	}

	var (
		rec   Record
		found bool
	)
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(dealBucket))
		if bucket == nil {
			return fmt.Errorf("deal bucket missing")
		}

		value := bucket.Get(fp.Key())
		if value == nil {
			return nil
		}
		if err := json.Unmarshal(value, &rec); err != nil {
			return fmt.Errorf("decode record: %w", err)
		}
		found = true
		return nil
	})
	return rec, found, err
}
