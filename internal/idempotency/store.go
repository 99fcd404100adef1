// Package idempotency makes mutating requests safe to retry. The first request
// carrying an Idempotency-Key reserves the key; its response is recorded and
// replayed to later requests with the same key and the same payload.
package idempotency

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	bolt "github.com/boltdb/bolt"
)

const bucketName = "idempotency_keys"

// ErrUnknownKey is returned when completing or releasing a key that was never reserved
var ErrUnknownKey = errors.New("idempotency key not found")

// Record is the stored state of one key
type Record struct {
	Fingerprint string    `json:"fingerprint"`
	Complete    bool      `json:"complete"`
	Status      int       `json:"status,omitempty"`
	ContentType string    `json:"content_type,omitempty"`
	Body        []byte    `json:"body,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store keeps idempotency records in a BoltDB file
type Store struct {
	db  *bolt.DB
	ttl time.Duration
	now func() time.Time
}

// Open opens (or creates) the store at path. Records older than ttl are treated as absent.
func Open(path string, ttl time.Duration) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("idempotency: open %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("idempotency: create bucket: %w", err)
	}

	return &Store{db: db, ttl: ttl, now: time.Now}, nil
}

// Close releases the database file lock
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) expired(r Record) bool {
	return s.ttl > 0 && s.now().Sub(r.CreatedAt) > s.ttl
}

// Reserve claims key for a request with the given fingerprint. When the key is
// already held it returns the existing record and reserved=false.
func (s *Store) Reserve(key, fingerprint string) (Record, bool, error) {
	var existing Record
	reserved := false

	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))

		if v := b.Get([]byte(key)); v != nil {
			if err := json.Unmarshal(v, &existing); err != nil {
				return err
			}
			if !s.expired(existing) {
				return nil
			}
		}

		existing = Record{Fingerprint: fingerprint, CreatedAt: s.now().UTC()}
		data, err := json.Marshal(existing)
		if err != nil {
			return err
		}
		reserved = true
		return b.Put([]byte(key), data)
	})
	if err != nil {
		return Record{}, false, fmt.Errorf("idempotency: reserve %s: %w", key, err)
	}

	return existing, reserved, nil
}

// Complete stores the response for a reserved key
func (s *Store) Complete(key string, status int, contentType string, body []byte) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))

		v := b.Get([]byte(key))
		if v == nil {
			return ErrUnknownKey
		}
		var r Record
		if err := json.Unmarshal(v, &r); err != nil {
			return err
		}

		r.Complete = true
		r.Status = status
		r.ContentType = contentType
		r.Body = append([]byte(nil), body...)

		data, err := json.Marshal(r)
		if err != nil {
			return err
		}
		return b.Put([]byte(key), data)
	})
	if err != nil {
		return fmt.Errorf("idempotency: complete %s: %w", key, err)
	}
	return nil
}

// Release drops a reservation so the request can be retried
func (s *Store) Release(key string) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("idempotency: release %s: %w", key, err)
	}
	return nil
}

// Get returns the record for key
func (s *Store) Get(key string) (Record, error) {
	var r Record
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(bucketName)).Get([]byte(key))
		if v == nil {
			return ErrUnknownKey
		}
		return json.Unmarshal(v, &r)
	})
	if err != nil {
		return Record{}, err
	}
	if s.expired(r) {
		return Record{}, ErrUnknownKey
	}
	return r, nil
}
