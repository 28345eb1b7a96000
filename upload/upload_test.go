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

package upload_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/blinklabs-io/strum/internal/test"
	"github.com/blinklabs-io/strum/ledger"
	"github.com/blinklabs-io/strum/ledger/memledger"
	"github.com/blinklabs-io/strum/store"
	"github.com/blinklabs-io/strum/upload"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixPrice(t *testing.T) {
	testDefs := []struct {
		price      uint64
		chunkCount int
		expected   uint64
	}{
		{price: 550, chunkCount: 5, expected: 550},
		{price: 571, chunkCount: 5, expected: 550},
		{price: 54, chunkCount: 5, expected: 0},
		{price: 0, chunkCount: 5, expected: 0},
		{price: 1000, chunkCount: 0, expected: 0},
		{price: 121, chunkCount: 1, expected: 121},
	}
	for _, testDef := range testDefs {
		fixed := upload.FixPrice(testDef.price, testDef.chunkCount)
		assert.Equal(t, testDef.expected, fixed)
		if testDef.chunkCount > 0 {
			// every chunk price splits evenly between author and
			// distributor
			chunkPrice := fixed / uint64(testDef.chunkCount)
			assert.Zero(t, chunkPrice%ledger.DistributorFeeDivisor)
		}
	}
}

func TestNewUpload(t *testing.T) {
	data := test.RandomBytes(21, 120)
	up := upload.New(data, "test song", 600, 3*time.Minute, 50)
	assert.Equal(t, "test song", up.Name)
	// rounded down to divide evenly across 3 chunks
	assert.Equal(t, uint64(594), up.Price)
	assert.Equal(t, store.ChunkDigests(data, 50), up.Digests)
	assert.Len(t, up.Digests, 3)
}

func TestUploadFromFile(t *testing.T) {
	data := test.RandomBytes(22, 80)
	path := filepath.Join(t.TempDir(), "song.mp3")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	up, err := upload.NewFromFile(path, "file song", 550, time.Minute, 50)
	require.NoError(t, err)
	assert.Equal(t, data, up.Data)
	assert.Len(t, up.Digests, 2)

	_, err = upload.NewFromFile(
		filepath.Join(t.TempDir(), "missing.mp3"),
		"nope",
		550,
		time.Minute,
		50,
	)
	assert.Error(t, err)
}

func TestPublish(t *testing.T) {
	chain := memledger.NewChain()
	author, err := chain.NewAccount("author", 0)
	require.NoError(t, err)
	library, err := store.OpenLibrary(t.TempDir(), nil)
	require.NoError(t, err)
	defer library.Close()

	data := test.RandomBytes(23, 120)
	up := upload.New(data, "published song", 600, 3*time.Minute, 50)
	songId, err := up.Publish(author, library)
	require.NoError(t, err)

	// the ledger has the song with the fixed price and chunk digests
	songs, err := author.SongList()
	require.NoError(t, err)
	require.Len(t, songs, 1)
	assert.Equal(t, songId, songs[0].ID)
	assert.Equal(t, up.Price, songs[0].Price)
	assert.Equal(t, up.Digests, songs[0].ChunkDigests)
	assert.Equal(t, uint64(120), songs[0].Length)

	// the library has the content
	record, err := library.Get(songId)
	require.NoError(t, err)
	assert.Equal(t, data, record.Data)
	assert.Equal(t, "published song", record.Name)
}
