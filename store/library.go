// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package store

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/blinklabs-io/strum/ledger"
	badger "github.com/dgraph-io/badger/v4"
	"github.com/fxamacker/cbor/v2"
)

var songKeyPrefix = []byte("song:")

// SongRecord is a song's content and display metadata as persisted in the
// library
type SongRecord struct {
	_      struct{} `cbor:",toarray"`
	Name   string
	Author string
	Data   []byte
}

// Library is the persisted song store backed by badger. A distributor keeps
// downloaded and uploaded song content here, keyed by song ID, and loads it
// into the serving table when distribution starts
type Library struct {
	db     *badger.DB
	logger *slog.Logger
}

// OpenLibrary opens (creating if needed) a song library in the given
// directory
func OpenLibrary(dir string, logger *slog.Logger) (*Library, error) {
	if logger == nil {
		logger = slog.Default()
	}
	opts := badger.DefaultOptions(dir).
		// badger's own logger doesn't speak slog
		WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open library: %w", err)
	}
	return &Library{
		db:     db,
		logger: logger,
	}, nil
}

func songKey(songId ledger.SongID) []byte {
	return append(songKeyPrefix[:len(songKeyPrefix):len(songKeyPrefix)], songId...)
}

// Put stores a song record
func (l *Library) Put(songId ledger.SongID, record SongRecord) error {
	encoded, err := cbor.Marshal(&record)
	if err != nil {
		return fmt.Errorf("encode song record: %w", err)
	}
	err = l.db.Update(func(txn *badger.Txn) error {
		return txn.Set(songKey(songId), encoded)
	})
	if err != nil {
		return fmt.Errorf("store song record: %w", err)
	}
	l.logger.Debug(
		"stored song",
		"component", "library",
		"song_id", string(songId),
		"size", len(record.Data),
	)
	return nil
}

// Get returns a stored song record
func (l *Library) Get(songId ledger.SongID) (SongRecord, error) {
	var record SongRecord
	err := l.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(songKey(songId))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return cbor.Unmarshal(val, &record)
		})
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return SongRecord{}, ErrSongNotFound
		}
		return SongRecord{}, fmt.Errorf("load song record: %w", err)
	}
	return record, nil
}

// Delete removes a stored song record
func (l *Library) Delete(songId ledger.SongID) error {
	return l.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(songKey(songId))
	})
}

// List returns the IDs of all stored songs
func (l *Library) List() ([]ledger.SongID, error) {
	var ids []ledger.SongID
	err := l.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(songKeyPrefix); it.ValidForPrefix(songKeyPrefix); it.Next() {
			key := it.Item().Key()
			ids = append(
				ids,
				ledger.SongID(key[len(songKeyPrefix):]),
			)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// Close closes the underlying database
func (l *Library) Close() error {
	return l.db.Close()
}
