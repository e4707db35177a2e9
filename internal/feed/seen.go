// QuakeLens - Earthquake Stream Clustering and Geographic Visualization
// Copyright 2026 QuakeLens Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quakelens/quakelens

package feed

import (
	"errors"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"
)

// SeenStore remembers event ids already published, persisted across poller
// restarts so the hourly feed's overlap never re-publishes old events.
// Entries expire by TTL; the broker's duplicate window backstops the gap
// between expiry and the feed dropping the event.
type SeenStore struct {
	db  *badger.DB
	ttl time.Duration
}

// OpenSeenStore opens (or creates) the store at the given path.
func OpenSeenStore(path string, ttl time.Duration) (*SeenStore, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open seen store at %s: %w", path, err)
	}
	return &SeenStore{db: db, ttl: ttl}, nil
}

// Seen reports whether the id has been marked within the TTL.
func (s *SeenStore) Seen(id string) (bool, error) {
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(id))
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup %s: %w", id, err)
	}
	return true, nil
}

// Mark records the id with the store TTL.
func (s *SeenStore) Mark(id string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(id), nil).WithTTL(s.ttl)
		return txn.SetEntry(entry)
	})
	if err != nil {
		return fmt.Errorf("mark %s: %w", id, err)
	}
	return nil
}

// Close releases the underlying database.
func (s *SeenStore) Close() error {
	return s.db.Close()
}
