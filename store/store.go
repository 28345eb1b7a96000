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
	"sync"

	"github.com/blinklabs-io/strum/ledger"
)

var (
	// ErrSongNotFound is returned when a song is not in the store
	ErrSongNotFound = errors.New("song not found in store")
	// ErrChunkOutOfRange is returned when a chunk index is outside the
	// song's chunk list
	ErrChunkOutOfRange = errors.New("chunk index out of range")
)

// Store is the in-memory song table a distribution endpoint serves from:
// song ID to ordered chunk sequence. It is mutated only from the endpoint's
// control path and read during request handling
type Store struct {
	mutex sync.RWMutex
	songs map[ledger.SongID][][]byte
}

// NewStore returns an empty song table
func NewStore() *Store {
	return &Store{
		songs: make(map[ledger.SongID][][]byte),
	}
}

// AddSong registers a song's chunk sequence, making it servable
func (s *Store) AddSong(songId ledger.SongID, chunks [][]byte) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.songs[songId] = chunks
}

// RemoveSong drops a song from the table
func (s *Store) RemoveSong(songId ledger.SongID) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.songs, songId)
}

// Chunk returns one chunk of a song
func (s *Store) Chunk(songId ledger.SongID, index int) ([]byte, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	chunks, ok := s.songs[songId]
	if !ok {
		return nil, ErrSongNotFound
	}
	if index < 0 || index >= len(chunks) {
		return nil, ErrChunkOutOfRange
	}
	return chunks[index], nil
}

// ChunkCount returns the number of chunks for a song
func (s *Store) ChunkCount(songId ledger.SongID) (int, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	chunks, ok := s.songs[songId]
	if !ok {
		return 0, ErrSongNotFound
	}
	return len(chunks), nil
}

// SongCount returns the number of songs currently servable
func (s *Store) SongCount() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.songs)
}
