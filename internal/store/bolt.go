package store

import (
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

var deliveriesBucket = []byte("deliveries")

// Delivery records that an inbound WhatsApp message was accepted. Only the
// message ID and timing are kept, never conversation state.
type Delivery struct {
	MessageID  string    `json:"message_id"`
	Phone      string    `json:"phone"`
	ReceivedAt time.Time `json:"received_at"`
}

type Store interface {
	// MarkDelivered stores d and reports whether its message ID was new.
	MarkDelivered(d Delivery) (bool, error)
	// Prune deletes deliveries received before cutoff.
	Prune(cutoff time.Time) (int, error)
	Close() error
}

type BoltStore struct {
	db *bolt.DB
}

func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(deliveriesBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating deliveries bucket: %w", err)
	}

	return &BoltStore{db: db}, nil
}

func (s *BoltStore) MarkDelivered(d Delivery) (bool, error) {
	if d.MessageID == "" {
		return false, fmt.Errorf("delivery without message id")
	}

	first := false
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(deliveriesBucket)
		key := []byte(d.MessageID)
		if b.Get(key) != nil {
			return nil
		}
		data, err := json.Marshal(d)
		if err != nil {
			return err
		}
		first = true
		return b.Put(key, data)
	})
	if err != nil {
		return false, err
	}
	return first, nil
}

func (s *BoltStore) Prune(cutoff time.Time) (int, error) {
	removed := 0
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(deliveriesBucket)
		var stale [][]byte
		err := b.ForEach(func(k, v []byte) error {
			var d Delivery
			if err := json.Unmarshal(v, &d); err != nil || d.ReceivedAt.Before(cutoff) {
				stale = append(stale, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		removed = len(stale)
		return nil
	})
	return removed, err
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
