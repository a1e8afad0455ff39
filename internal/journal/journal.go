// Package journal records which queue messages the consumer has already
// processed. The transports are at-least-once, so redeliveries are expected;
// the journal makes them visible in logs without ever suppressing processing.
package journal

import (
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

var bucketProcessed = []byte("processed_messages")

// Journal is a local bbolt-backed record of processed message ids.
type Journal struct {
	db *bolt.DB
}

// Open creates or opens the journal file.
func Open(path string) (*Journal, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketProcessed)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create journal bucket: %w", err)
	}

	return &Journal{db: db}, nil
}

// Close releases the underlying file.
func (j *Journal) Close() error {
	return j.db.Close()
}

// MarkProcessed records the message id and reports whether it had been
// recorded before (a transport redelivery).
func (j *Journal) MarkProcessed(messageID string) (bool, error) {
	var seen bool
	err := j.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketProcessed)
		seen = bucket.Get([]byte(messageID)) != nil
		return bucket.Put([]byte(messageID), []byte(time.Now().UTC().Format(time.RFC3339)))
	})
	if err != nil {
		return false, fmt.Errorf("mark message processed: %w", err)
	}
	return seen, nil
}
