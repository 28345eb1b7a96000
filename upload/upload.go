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

// Package upload prepares a media file for publication: it chunks the
// content, computes the per-chunk digests recorded on the ledger, adjusts
// the price for even division, and stores the content in the local song
// library for distribution.
package upload

import (
	"os"
	"time"

	"github.com/blinklabs-io/strum/ledger"
	"github.com/blinklabs-io/strum/store"
)

// Upload is a song prepared for publication
type Upload struct {
	Name      string
	Price     uint64
	Duration  time.Duration
	Data      []byte
	Digests   []string
	chunkSize int
}

// FixPrice rounds a price down so it divides evenly by the chunk count and
// each chunk price divides evenly by the distributor fee granularity
func FixPrice(price uint64, chunkCount int) uint64 {
	if chunkCount <= 0 {
		return 0
	}
	granularity := uint64(chunkCount) * ledger.DistributorFeeDivisor
	return price - (price % granularity)
}

// New prepares song data for publication. The playback duration comes from
// the caller, since decoding media formats is the player's concern
func New(
	data []byte,
	name string,
	price uint64,
	duration time.Duration,
	chunkSize int,
) *Upload {
	if chunkSize <= 0 {
		chunkSize = store.DefaultChunkSize
	}
	digests := store.ChunkDigests(data, chunkSize)
	return &Upload{
		Name:      name,
		Price:     FixPrice(price, len(digests)),
		Duration:  duration,
		Data:      data,
		Digests:   digests,
		chunkSize: chunkSize,
	}
}

// NewFromFile prepares a media file for publication
func NewFromFile(
	path string,
	name string,
	price uint64,
	duration time.Duration,
	chunkSize int,
) (*Upload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return New(data, name, price, duration, chunkSize), nil
}

// Publish uploads the song to the ledger and stores its content in the
// library so it can be distributed
func (u *Upload) Publish(
	l ledger.Ledger,
	library *store.Library,
) (ledger.SongID, error) {
	songId, err := l.UploadSong(ledger.Song{
		Name:         u.Name,
		Price:        u.Price,
		Length:       uint64(len(u.Data)),
		Duration:     u.Duration,
		ChunkDigests: u.Digests,
	})
	if err != nil {
		return "", err
	}
	if library != nil {
		err = library.Put(songId, store.SongRecord{
			Name: u.Name,
			Data: u.Data,
		})
		if err != nil {
			return songId, err
		}
	}
	return songId, nil
}
