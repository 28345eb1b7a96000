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

package store_test

import (
	"testing"

	"github.com/blinklabs-io/strum/internal/test"
	"github.com/blinklabs-io/strum/protocol"
	"github.com/blinklabs-io/strum/store"

	"github.com/stretchr/testify/assert"
)

func TestSplitChunks(t *testing.T) {
	testDefs := []struct {
		dataSize       int
		chunkSize      int
		expectedCounts []int
	}{
		{dataSize: 0, chunkSize: 10, expectedCounts: []int{}},
		{dataSize: 10, chunkSize: 10, expectedCounts: []int{10}},
		{dataSize: 25, chunkSize: 10, expectedCounts: []int{10, 10, 5}},
		{dataSize: 30, chunkSize: 10, expectedCounts: []int{10, 10, 10}},
		{dataSize: 1, chunkSize: 10, expectedCounts: []int{1}},
	}
	for _, testDef := range testDefs {
		data := test.RandomBytes(1, testDef.dataSize)
		chunks := store.SplitChunks(data, testDef.chunkSize)
		assert.Len(t, chunks, len(testDef.expectedCounts))
		for i, chunk := range chunks {
			assert.Len(t, chunk, testDef.expectedCounts[i])
		}
		assert.Equal(t, data, store.JoinChunks(chunks))
	}
}

func TestChunkDigests(t *testing.T) {
	data := test.RandomBytes(2, 95)
	chunks := store.SplitChunks(data, 30)
	digests := store.ChunkDigests(data, 30)
	assert.Len(t, digests, 4)
	for i, chunk := range chunks {
		assert.Equal(t, protocol.ChunkDigest(chunk), digests[i])
	}
}

func TestStore(t *testing.T) {
	s := store.NewStore()
	assert.Equal(t, 0, s.SongCount())
	data := test.RandomBytes(3, 70)
	chunks := store.SplitChunks(data, 30)
	s.AddSong("0xsong", chunks)
	assert.Equal(t, 1, s.SongCount())
	count, err := s.ChunkCount("0xsong")
	assert.NoError(t, err)
	assert.Equal(t, 3, count)
	for i := range chunks {
		chunk, err := s.Chunk("0xsong", i)
		assert.NoError(t, err)
		assert.Equal(t, chunks[i], chunk)
	}
	_, err = s.Chunk("0xsong", 3)
	assert.ErrorIs(t, err, store.ErrChunkOutOfRange)
	_, err = s.Chunk("0xsong", -1)
	assert.ErrorIs(t, err, store.ErrChunkOutOfRange)
	_, err = s.Chunk("0xother", 0)
	assert.ErrorIs(t, err, store.ErrSongNotFound)
	s.RemoveSong("0xsong")
	assert.Equal(t, 0, s.SongCount())
	_, err = s.Chunk("0xsong", 0)
	assert.ErrorIs(t, err, store.ErrSongNotFound)
}
