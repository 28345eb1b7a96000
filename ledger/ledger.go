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

// Package ledger defines the interface to the payment and session ledger
// along with the domain types shared by the session and distribution
// endpoints. The ledger is treated as an authoritative, linearizable source
// of truth for balances, payments, and session state.
package ledger

import (
	"time"
)

// SongID is the ledger-assigned handle for an uploaded song, rendered as a
// 0x-prefixed hex digest
type SongID string

// SessionID identifies a streaming session. It is derived deterministically
// from the listener address, distributor address, and song ID
type SessionID string

// Song represents a song as published on the ledger. The chunk digests are
// produced at upload time and are immutable once published
type Song struct {
	ID           SongID
	Name         string
	Author       Address
	AuthorName   string
	Price        uint64
	Length       uint64
	Duration     time.Duration
	ChunkDigests []string
}

// SongMetadata is the subset of song information needed to drive playback
// buffering
type SongMetadata struct {
	Length     uint64
	Duration   time.Duration
	ChunkCount int
}

// SessionInfo is the ledger's view of a session
type SessionInfo struct {
	Active      bool
	Listener    Address
	Distributor Address
	SongID      SongID
	Price       uint64
	Paid        uint64
}

// Ledger provides account identity, signed-message production and
// verification, and read/write calls against the payment and session ledger.
// Write calls are synchronous and may block for the duration of a
// transaction's confirmation
type Ledger interface {
	// Address returns the address of the account this ledger client is
	// bound to
	Address() Address
	// GetBalance returns the account's available balance
	GetBalance() (uint64, error)
	// GetSongMetadata returns the published metadata for a song
	GetSongMetadata(songId SongID) (SongMetadata, error)
	// SongList returns all songs currently published on the ledger
	SongList() ([]Song, error)
	// CreateSession creates an on-chain session for the given song. An
	// empty distributor address lets the ledger select a distributor at
	// random from those currently serving the song
	CreateSession(
		songId SongID,
		distributor Address,
	) (SessionID, Address, error)
	// GetSessionInfo returns the ledger's view of a session
	GetSessionInfo(sessionId SessionID) (SessionInfo, error)
	// PayChunk pays for a single chunk of a session's song
	PayChunk(sessionId SessionID, index int) error
	// IsChunkPaid returns whether a chunk has been paid for
	IsChunkPaid(sessionId SessionID, index int) (bool, error)
	// CheckChunkDigest returns whether the observed digest matches the
	// digest recorded at upload time
	CheckChunkDigest(songId SongID, index int, digest string) (bool, error)
	// CloseSession closes an on-chain session
	CloseSession(sessionId SessionID) error
	// Sign signs a message with the account key and returns a hex-encoded
	// signature
	Sign(message []byte) (string, error)
	// Verify checks a hex-encoded signature over a message against the
	// public key registered for the given identity
	Verify(message []byte, signature string, identity Address) (bool, error)
	// ResolveDistributorEndpoint returns the published endpoint record for
	// a distributor
	ResolveDistributorEndpoint(identity Address) (Endpoint, error)
	// UploadSong publishes a new song and returns its assigned ID
	UploadSong(song Song) (SongID, error)
	// Distribute registers the account as a distributor for a song
	Distribute(songId SongID) error
	// Undistribute removes the account as a distributor for a song
	Undistribute(songId SongID) error
	// IsDistributing returns whether an account is distributing a song
	IsDistributing(songId SongID, distributor Address) (bool, error)
	// PublishEndpoint publishes the account's distribution endpoint record
	PublishEndpoint(endpoint Endpoint) error
}

// DistributorFeeDivisor determines the distributor's cut of each payment. A
// song's total price includes a 10% distributor fee on top of the author's
// price, so the distributor share is 1/11 of the total
const DistributorFeeDivisor = 11

// SplitPayment divides a paid amount between the song's author and the
// serving distributor
func SplitPayment(total uint64) (authorCut uint64, distributorCut uint64) {
	distributorCut = total / DistributorFeeDivisor
	authorCut = total - distributorCut
	return authorCut, distributorCut
}
