package main

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/boltdb/bolt"
	"go.uber.org/zap"
)

var _ JournalStorage = (*boltJournalStorage)(nil) // ensure boltJournalStorage implements JournalStorage.

// JournalStorage records catalog events in arrival order.
type JournalStorage interface {
	Append(ctx context.Context, event CatalogEvent) error
	Latest(ctx context.Context, limit int) ([]CatalogEvent, error)
	Close() error
}

type boltJournalStorage struct {
	logger *zap.Logger
	client *bolt.DB
	config *JournalConfig
}

// GetBoltDBClient setup the database and the bucket then provides a ready to use client.
func GetBoltDBClient(config *Config) (*bolt.DB, error) {
	db, err := bolt.Open(config.Journal.FilePath, 0o600, &bolt.Options{Timeout: config.Journal.Timeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open the database, %v", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		if _, errB := tx.CreateBucketIfNotExists([]byte(config.Journal.BucketName)); errB != nil {
			return fmt.Errorf("failed to create %s bucket: %v", config.Journal.BucketName, errB)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set up bucket: %v", err)
	}
	return db, nil
}

// NewBoltJournalStorage provides an instance of bolt-based journal storage.
func NewBoltJournalStorage(logger *zap.Logger, journalConfig *JournalConfig, client *bolt.DB) JournalStorage {
	return &boltJournalStorage{
		logger: logger,
		client: client,
		config: journalConfig,
	}
}

// Close shuts down the bolt-based journal storage.
func (bs *boltJournalStorage) Close() error {
	return bs.client.Close()
}

// Append stores the event under the next bucket sequence number so
// that keys sort in insertion order.
func (bs *boltJournalStorage) Append(_ context.Context, event CatalogEvent) error {
	eventBytes, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return bs.client.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bs.config.BucketName))
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		key := make([]byte, 8)
		binary.BigEndian.PutUint64(key, seq)
		return b.Put(key, eventBytes)
	})
}

// Latest returns up to limit most recent events, newest first.
func (bs *boltJournalStorage) Latest(_ context.Context, limit int) ([]CatalogEvent, error) {
	tx, err := bs.client.Begin(false)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	c := tx.Bucket([]byte(bs.config.BucketName)).Cursor()

	events := []CatalogEvent{}
	for k, v := c.Last(); k != nil && len(events) < limit; k, v = c.Prev() {
		var event CatalogEvent
		if err = json.Unmarshal(v, &event); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, nil
}
