// SPDX-License-Identifier: GPL-2.0-or-later

// Package wincache persists the window extrema discovered for a
// recording, so a replay can seed its auto-window instead of
// rediscovering the range and clipping early frames.
package wincache

import (
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

const bucketName = "windows"

// Entry cached extrema for one recording.
type Entry struct {
	DepthMin uint16 `json:"depthMin"`
	DepthMax uint16 `json:"depthMax"`
	IRMin    uint16 `json:"irMin"`
	IRMax    uint16 `json:"irMax"`
}

// Cache bolt-backed window cache keyed by recording path.
type Cache struct {
	db *bolt.DB
}

// Open opens or creates the cache database.
func Open(path string) (*Cache, error) {
	dbOpts := &bolt.Options{
		Timeout: 1 * time.Second,
	}

	db, err := bolt.Open(path, 0o600, dbOpts)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w: %v", err, path)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("could not create bucket: %w", err)
	}

	return &Cache{db: db}, nil
}

// Close closes the database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Get returns the cached entry for a recording, or false.
func (c *Cache) Get(recordingPath string) (Entry, bool, error) {
	var entry Entry
	var found bool

	err := c.db.View(func(tx *bolt.Tx) error {
		value := tx.Bucket([]byte(bucketName)).Get([]byte(recordingPath))
		if value == nil {
			return nil
		}
		if err := json.Unmarshal(value, &entry); err != nil {
			return fmt.Errorf("could not unmarshal entry: %w", err)
		}
		found = true
		return nil
	})
	if err != nil {
		return Entry{}, false, err
	}

	return entry, found, nil
}

// Set stores the entry for a recording.
func (c *Cache) Set(recordingPath string, entry Entry) error {
	value, _ := json.Marshal(entry)

	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Put([]byte(recordingPath), value)
	})
}
